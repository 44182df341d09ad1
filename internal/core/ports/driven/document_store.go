package driven

import (
	"context"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

// DocumentStore executes search requests against the event collections (Elasticsearch)
type DocumentStore interface {
	// Search runs one search over the given collections.
	// Hits are returned in the store's relevance order.
	Search(ctx context.Context, indices []string, req domain.QueryRequest) (*domain.SearchResponse, error)

	// HealthCheck verifies the store is reachable
	HealthCheck(ctx context.Context) error
}
