package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

const pruneLock = "history-prune"

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestNewLock_OwnerID(t *testing.T) {
	client, _ := setupTestRedis(t)

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	if parts := strings.Split(lock1.OwnerID(), ":"); len(parts) != 3 {
		t.Errorf("expected hostname:pid:uuid owner ID, got %s", lock1.OwnerID())
	}
	if lock1.OwnerID() == lock2.OwnerID() {
		t.Errorf("expected unique owner IDs, got same: %s", lock1.OwnerID())
	}
}

func TestLock_Acquire(t *testing.T) {
	client, mr := setupTestRedis(t)
	replicaA := NewLock(client)
	replicaB := NewLock(client)
	ctx := context.Background()

	acquired, err := replicaA.Acquire(ctx, pruneLock, 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("expected first replica to acquire")
	}

	got, err := mr.Get("sercha-geo:lock:history-prune")
	if err != nil {
		t.Fatalf("expected lock key to exist: %v", err)
	}
	if got != replicaA.OwnerID() {
		t.Errorf("expected owner %s, got %s", replicaA.OwnerID(), got)
	}
	if ttl := mr.TTL("sercha-geo:lock:history-prune"); ttl != 10*time.Second {
		t.Errorf("expected 10s TTL, got %v", ttl)
	}

	if acquired, _ := replicaB.Acquire(ctx, pruneLock, 10*time.Second); acquired {
		t.Error("expected second replica to be refused")
	}
	if acquired, _ := replicaA.Acquire(ctx, pruneLock, 10*time.Second); acquired {
		t.Error("expected reentrant acquire to be refused")
	}
}

func TestLock_Acquire_RequiresTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewLock(client)

	for _, ttl := range []time.Duration{0, -time.Second} {
		_, err := lock.Acquire(context.Background(), pruneLock, ttl)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("ttl %v: expected ErrInvalidInput, got %v", ttl, err)
		}
	}
	if mr.Exists("sercha-geo:lock:history-prune") {
		t.Error("a lock without expiry must never be written")
	}
}

func TestLock_Acquire_AfterCrashedHolderExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	crashed := NewLock(client)
	survivor := NewLock(client)
	ctx := context.Background()

	if acquired, _ := crashed.Acquire(ctx, pruneLock, time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}

	mr.FastForward(2 * time.Second)

	acquired, err := survivor.Acquire(ctx, pruneLock, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected to acquire expired lock")
	}
}

func TestLock_Release(t *testing.T) {
	client, _ := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	if acquired, _ := lock.Acquire(ctx, pruneLock, 10*time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}
	if err := lock.Release(ctx, pruneLock); err != nil {
		t.Fatalf("unexpected error on release: %v", err)
	}

	if acquired, _ := lock.Acquire(ctx, pruneLock, 10*time.Second); !acquired {
		t.Error("expected to acquire lock after release")
	}
}

func TestLock_Release_Expired(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewLock(client)
	ctx := context.Background()

	if acquired, _ := lock.Acquire(ctx, pruneLock, time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}
	mr.FastForward(2 * time.Second)

	if err := lock.Release(ctx, pruneLock); !errors.Is(err, domain.ErrLockLost) {
		t.Errorf("expected ErrLockLost, got %v", err)
	}
}

func TestLock_Release_TakenOverByOtherReplica(t *testing.T) {
	client, mr := setupTestRedis(t)
	slow := NewLock(client)
	other := NewLock(client)
	ctx := context.Background()

	if acquired, _ := slow.Acquire(ctx, pruneLock, time.Second); !acquired {
		t.Fatal("expected to acquire lock")
	}
	mr.FastForward(2 * time.Second)
	if acquired, _ := other.Acquire(ctx, pruneLock, 10*time.Second); !acquired {
		t.Fatal("expected other replica to take over the expired lock")
	}

	if err := slow.Release(ctx, pruneLock); !errors.Is(err, domain.ErrLockLost) {
		t.Errorf("expected ErrLockLost, got %v", err)
	}

	got, _ := mr.Get("sercha-geo:lock:history-prune")
	if got != other.OwnerID() {
		t.Error("release must not delete another replica's lock")
	}
}

func TestLock_Release_BackendDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewLock(client)

	mr.Close()

	err := lock.Release(context.Background(), pruneLock)
	if err == nil {
		t.Fatal("expected error with backend down")
	}
	if errors.Is(err, domain.ErrLockLost) {
		t.Error("a connection error is not a lost lock")
	}
}
