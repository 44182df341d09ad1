package query

import "github.com/custodia-labs/sercha-geo/internal/core/domain"

const (
	DefaultNewsIndex     = "news_events"
	DefaultHistoricIndex = "terror_data"
)

// IndexRouter maps a source discriminator to store collection names
type IndexRouter struct {
	News     string
	Historic string
}

// DefaultIndexRouter returns the router for the standard collections
func DefaultIndexRouter() IndexRouter {
	return IndexRouter{
		News:     DefaultNewsIndex,
		Historic: DefaultHistoricIndex,
	}
}

// Resolve returns the collections to search for source.
// Unknown sources search both collections, news first.
// Each call returns a new slice.
func (r IndexRouter) Resolve(source domain.Source) []string {
	switch source {
	case domain.SourceNews:
		return []string{r.News}
	case domain.SourceHistoric:
		return []string{r.Historic}
	default:
		return []string{r.News, r.Historic}
	}
}
