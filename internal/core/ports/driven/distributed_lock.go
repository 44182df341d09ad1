package driven

import (
	"context"
	"time"
)

// DistributedLock keeps history retention cycles from overlapping.
// Every replica runs the prune schedule; only the one holding the lock
// for a cycle deletes history.
type DistributedLock interface {
	// Acquire takes the named lock without blocking.
	// It returns false when another instance holds it. ttl bounds how long
	// a crashed holder keeps the lock; it must be positive. Backends with
	// session-scoped locks release on disconnect instead.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release gives the lock back after a successful Acquire.
	// It returns domain.ErrLockLost when the lock expired or passed to
	// another instance in the meantime.
	Release(ctx context.Context, name string) error
}
