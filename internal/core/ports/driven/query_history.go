package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

// QueryHistory stores executed searches for suggestions (Redis or PostgreSQL)
type QueryHistory interface {
	// Record stores one executed search
	Record(ctx context.Context, entry *domain.SearchLogEntry) error

	// Suggest returns recent queries starting with prefix, most recent first
	Suggest(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error)

	// Prune removes entries last used before olderThan and returns the count removed
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Ping checks if the history backend is healthy
	Ping(ctx context.Context) error
}
