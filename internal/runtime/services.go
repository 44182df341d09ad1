package runtime

import (
	"context"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
)

// Services holds the backends selected at startup.
// History and Lock are nil when no history backend is configured.
type Services struct {
	// Config tracks backend selection and store health
	config *domain.RuntimeConfig

	store   driven.DocumentStore
	history driven.QueryHistory
	lock    driven.DistributedLock
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig, store driven.DocumentStore, history driven.QueryHistory, lock driven.DistributedLock) *Services {
	if config == nil {
		config = domain.NewRuntimeConfig(domain.BackendNone, domain.BackendNone)
	}
	return &Services{
		config:  config,
		store:   store,
		history: history,
		lock:    lock,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// Store returns the document store
func (s *Services) Store() driven.DocumentStore {
	return s.store
}

// History returns the query history backend (may be nil)
func (s *Services) History() driven.QueryHistory {
	return s.history
}

// Lock returns the distributed lock (may be nil)
func (s *Services) Lock() driven.DistributedLock {
	return s.lock
}

// PingStore checks the document store and records the result in the runtime config
func (s *Services) PingStore(ctx context.Context) error {
	if s.store == nil {
		s.config.SetStoreHealthy(false)
		return domain.ErrServiceUnavailable
	}
	err := s.store.HealthCheck(ctx)
	s.config.SetStoreHealthy(err == nil)
	return err
}

// StoreCheck returns PingStore as a health check
func (s *Services) StoreCheck() PingFunc {
	return s.PingStore
}

// PingFunc adapts a function to a Ping method
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
