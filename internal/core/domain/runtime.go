package domain

import "sync"

// History backends
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// RuntimeConfig tracks which optional services are available at runtime.
// Backends are fixed at startup; store health is updated by readiness checks.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	HistoryBackend string // "redis", "postgres" or "none"
	LockBackend    string // "redis", "postgres" or "none"

	// Dynamic
	storeHealthy bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(historyBackend, lockBackend string) *RuntimeConfig {
	if historyBackend == "" {
		historyBackend = BackendNone
	}
	if lockBackend == "" {
		lockBackend = BackendNone
	}
	return &RuntimeConfig{
		HistoryBackend: historyBackend,
		LockBackend:    lockBackend,
	}
}

// HistoryEnabled returns whether searches are recorded for suggestions
func (c *RuntimeConfig) HistoryEnabled() bool {
	return c.HistoryBackend != BackendNone
}

// StoreHealthy returns the result of the last document store health check
func (c *RuntimeConfig) StoreHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storeHealthy
}

// SetStoreHealthy records the result of a document store health check
func (c *RuntimeConfig) SetStoreHealthy(healthy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeHealthy = healthy
}
