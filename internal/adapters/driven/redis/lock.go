package redis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

const lockKeyPrefix = "sercha-geo:lock:"

// Lock implements DistributedLock with one expiring key per lock name.
// The key holds the owner ID of the replica running the cycle, so a
// crashed replica blocks pruning for at most one TTL.
type Lock struct {
	client redis.UniversalClient
	owner  string
}

// NewLock creates a Redis lock with a fresh owner ID (hostname:pid:uuid)
func NewLock(client redis.UniversalClient) *Lock {
	hostname, _ := os.Hostname()
	return &Lock{
		client: client,
		owner:  fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()),
	}
}

func lockKey(name string) string {
	return lockKeyPrefix + name
}

// Acquire sets the lock key if absent, expiring after ttl
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, fmt.Errorf("acquire lock %s: %w: ttl must be positive", name, domain.ErrInvalidInput)
	}
	ok, err := l.client.SetNX(ctx, lockKey(name), l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// releaseScript deletes the key only while this owner holds it.
// Returns 1 when deleted, 0 when absent, -1 when another owner holds it.
var releaseScript = redis.NewScript(`
	local holder = redis.call("get", KEYS[1])
	if holder == ARGV[1] then
		return redis.call("del", KEYS[1])
	elseif holder then
		return -1
	end
	return 0
`)

// Release deletes the lock key if this owner holds it.
// A key that expired or now belongs to another replica yields ErrLockLost.
func (l *Lock) Release(ctx context.Context, name string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{lockKey(name)}, l.owner).Int64()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if n != 1 {
		return fmt.Errorf("release lock %s: %w", name, domain.ErrLockLost)
	}
	return nil
}

// OwnerID identifies this replica in lock keys
func (l *Lock) OwnerID() string {
	return l.owner
}
