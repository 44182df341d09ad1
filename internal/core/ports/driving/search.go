package driving

import (
	"context"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

// SearchService handles geotagged event search operations
type SearchService interface {
	// Search returns sanitized results for params in relevance order.
	// An empty query returns an empty list without contacting the store.
	Search(ctx context.Context, params domain.SearchParams) ([]domain.Result, error)

	// Suggest provides search suggestions/autocomplete from query history
	Suggest(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error)
}
