package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-geo/internal/metrics"
)

// PruneLockName is the distributed lock guarding a retention cycle
const PruneLockName = "history-prune"

// ErrLockHeld is returned by RunOnce when another instance is pruning
var ErrLockHeld = errors.New("prune lock held by another instance")

// releaseTimeout bounds the lock release, which outlives a cancelled cycle
const releaseTimeout = 5 * time.Second

// Worker prunes query history on a cron schedule.
// Only one instance prunes at a time when a lock is configured.
type Worker struct {
	history driven.QueryHistory
	lock    driven.DistributedLock
	logger  *slog.Logger
	now     func() time.Time

	// Configuration
	schedule     string
	retention    time.Duration
	lockTTL      time.Duration
	lockRequired bool

	// Internal state
	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	cancel  context.CancelFunc
	stopped chan struct{} // closed once a Stop has drained the schedule
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	History      driven.QueryHistory
	Lock         driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Logger       *slog.Logger
	Schedule     string        // Cron expression, standard 5 fields or a descriptor (default: @daily)
	Retention    time.Duration // Entries older than this are pruned (default: 30 days)
	LockTTL      time.Duration // TTL for the distributed lock (default: 5m)
	LockRequired bool          // If true, skip the cycle when the lock backend fails
	Now          func() time.Time
}

// NewWorker creates a new retention worker.
// It fails when the schedule cannot be parsed.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.History == nil {
		return nil, fmt.Errorf("worker: query history is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "@daily"
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("worker: invalid schedule %q: %w", schedule, err)
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Worker{
		history:      cfg.History,
		lock:         cfg.Lock,
		logger:       logger,
		now:          now,
		schedule:     schedule,
		retention:    retention,
		lockTTL:      lockTTL,
		lockRequired: cfg.LockRequired,
	}, nil
}

// Start schedules the prune job.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	jobCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.schedule, func() { w.runScheduled(jobCtx) }); err != nil {
		cancel()
		return fmt.Errorf("worker: schedule prune job: %w", err)
	}
	c.Start()

	w.cron = c
	w.cancel = cancel
	w.running = true
	w.stopped = make(chan struct{})

	w.logger.Info("worker starting",
		"schedule", w.schedule,
		"retention", w.retention,
		"lock", w.lock != nil,
	)

	go func() {
		<-jobCtx.Done()
		w.Stop()
	}()

	return nil
}

// Stop gracefully stops the worker, waiting for a running prune to finish.
// Concurrent calls all wait for the same shutdown.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.cron == nil {
		w.mu.Unlock()
		return
	}
	stopped := w.stopped
	if !w.running {
		w.mu.Unlock()
		<-stopped
		return
	}
	w.running = false
	c, cancel := w.cron, w.cancel
	w.mu.Unlock()

	<-c.Stop().Done()
	cancel()

	w.logger.Info("worker stopped")
	close(stopped)
}

func (w *Worker) runScheduled(ctx context.Context) {
	removed, err := w.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrLockHeld):
		w.logger.Debug("prune lock held by another instance, skipping cycle")
	case err != nil:
		w.logger.Error("history prune failed", "error", err)
	default:
		w.logger.Info("history pruned", "removed", removed)
	}
}

// RunOnce executes one prune cycle and returns the number of entries removed
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx, PruneLockName, w.lockTTL)
		if err != nil {
			w.logger.Warn("failed to acquire prune lock", "error", err)
			if w.lockRequired {
				return 0, fmt.Errorf("acquire prune lock: %w", err)
			}
		} else if !acquired {
			return 0, ErrLockHeld
		} else {
			defer w.releaseLock(ctx)
		}
	}

	cutoff := w.now().Add(-w.retention)
	removed, err := w.history.Prune(ctx, cutoff)
	if err != nil {
		metrics.HistoryErrorsTotal.WithLabelValues("prune").Inc()
		return 0, fmt.Errorf("prune history before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	metrics.HistoryPrunedTotal.Add(float64(removed))
	return removed, nil
}

// releaseLock gives the prune lock back even when ctx is already cancelled
func (w *Worker) releaseLock(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	err := w.lock.Release(ctx, PruneLockName)
	switch {
	case errors.Is(err, domain.ErrLockLost):
		w.logger.Warn("prune lock expired before release, cycle may have overlapped another instance", "lock_ttl", w.lockTTL)
	case err != nil:
		w.logger.Warn("failed to release prune lock", "error", err)
	}
}
