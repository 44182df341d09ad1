package driven

import "github.com/custodia-labs/sercha-geo/internal/core/domain"

// MapRenderer turns sanitized results into a displayable map document.
// Results without coordinates are skipped.
type MapRenderer interface {
	// Render returns a complete HTML page
	Render(results []domain.Result) ([]byte, error)
}
