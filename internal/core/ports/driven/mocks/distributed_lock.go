package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

// LockCall is one recorded Acquire or Release
type LockCall struct {
	Op   string // "acquire" or "release"
	Name string
	TTL  time.Duration

	// CtxErr is ctx.Err() at the time of the call
	CtxErr error
}

// MockDistributedLock is an in-memory DistributedLock.
// Locks held by this instance never expire; HoldElsewhere simulates
// another replica holding a lock.
type MockDistributedLock struct {
	mu      sync.Mutex
	owned   map[string]bool
	foreign map[string]bool
	calls   []LockCall

	// Optional behavior overrides
	AcquireFn func(name string, ttl time.Duration) (bool, error)
	ReleaseFn func(name string) error
}

// NewMockDistributedLock creates an empty mock lock
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		owned:   make(map[string]bool),
		foreign: make(map[string]bool),
	}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, LockCall{Op: "acquire", Name: name, TTL: ttl, CtxErr: ctx.Err()})
	m.mu.Unlock()

	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owned[name] || m.foreign[name] {
		return false, nil
	}
	m.owned[name] = true
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	m.calls = append(m.calls, LockCall{Op: "release", Name: name, CtxErr: ctx.Err()})
	m.mu.Unlock()

	if m.ReleaseFn != nil {
		return m.ReleaseFn(name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.owned[name] {
		return nil
	}
	delete(m.owned, name)
	if m.foreign[name] {
		return domain.ErrLockLost
	}
	return nil
}

// HoldElsewhere marks name as held by another replica.
// If this instance already holds it, its next Release reports ErrLockLost.
func (m *MockDistributedLock) HoldElsewhere(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foreign[name] = true
}

// Held reports whether this instance holds name
func (m *MockDistributedLock) Held(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owned[name]
}

// Calls returns a copy of the recorded calls in order
func (m *MockDistributedLock) Calls() []LockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LockCall, len(m.calls))
	copy(out, m.calls)
	return out
}
