package domain

import "time"

// Source selects which event collections a search covers
type Source string

const (
	SourceAll      Source = ""         // Both collections (default)
	SourceNews     Source = "news"     // News events only
	SourceHistoric Source = "historic" // Historic/terror events only
)

// Known reports whether the source is one of the recognized discriminators.
// Unrecognized values are treated as SourceAll.
func (s Source) Known() bool {
	switch s {
	case SourceAll, SourceNews, SourceHistoric:
		return true
	}
	return false
}

const (
	// DefaultLimit is used when the caller gives no usable limit
	DefaultLimit = 100

	// MaxResultSize caps the number of hits requested from the store
	MaxResultSize = 1000
)

// SearchParams describes one search intent.
// It is a value type: the core never mutates it.
type SearchParams struct {
	Query     string     `json:"query"`
	Limit     int        `json:"limit"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Source    Source     `json:"source,omitempty"`
}

// NewSearchParams returns params for query with the default limit
func NewSearchParams(query string) SearchParams {
	return SearchParams{
		Query: query,
		Limit: DefaultLimit,
	}
}

// HasDateRange reports whether either date bound is set
func (p SearchParams) HasDateRange() bool {
	return p.StartDate != nil || p.EndDate != nil
}

// InvertedRange reports whether both bounds are set and start is after end.
// Inverted ranges are passed to the store unchanged.
func (p SearchParams) InvertedRange() bool {
	return p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate)
}

// SearchResponse is what the document store returns for one search call
type SearchResponse struct {
	Hits  []Hit         `json:"hits"`
	Total int           `json:"total"`
	Took  time.Duration `json:"took"`
}

// Hit is one matched document
type Hit struct {
	Index  string         `json:"index"`
	ID     string         `json:"id"`
	Score  float64        `json:"score"`
	Source map[string]any `json:"source"`
}

// SearchSuggestion represents a search autocomplete suggestion
type SearchSuggestion struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// SearchLogEntry records one executed search for query history
type SearchLogEntry struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Source      Source    `json:"source,omitempty"`
	Limit       int       `json:"limit"`
	ResultCount int       `json:"result_count"`
	DurationMs  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
