package domain

// Fields the store returns for every hit.
const (
	FieldTitle           = "title"
	FieldContent         = "content"
	FieldPublicationDate = "publication_date"
	FieldCategory        = "category"
	FieldLocation        = "location"
	FieldCoordinates     = "coordinates"
)

// ResultFields lists the recognized result fields in request order
var ResultFields = []string{
	FieldTitle,
	FieldContent,
	FieldPublicationDate,
	FieldCategory,
	FieldLocation,
	FieldCoordinates,
}

// QueryDocument is a full-text query in the store's query DSL.
// Values may be shared through the query cache and must not be mutated.
type QueryDocument struct {
	Bool BoolQuery `json:"bool"`
}

// BoolQuery combines optional "should" matches with required "must" filters
type BoolQuery struct {
	Should             []Clause `json:"should"`
	Must               []Clause `json:"must,omitempty"`
	MinimumShouldMatch int      `json:"minimum_should_match"`
}

// Clause is a single leaf query; exactly one of Match or Range is set
type Clause struct {
	Match map[string]MatchQuery `json:"match,omitempty"`
	Range map[string]RangeQuery `json:"range,omitempty"`
}

// MatchQuery is a full-text match on one field
type MatchQuery struct {
	Query string   `json:"query"`
	Boost *float64 `json:"boost,omitempty"`
}

// RangeQuery bounds a field; an empty bound is omitted
type RangeQuery struct {
	GTE string `json:"gte,omitempty"`
	LTE string `json:"lte,omitempty"`
}

// SortOrder is one entry of the request sort list
type SortOrder map[string]string

// QueryRequest is the complete body sent to the store's search endpoint
type QueryRequest struct {
	Size   int           `json:"size"`
	Query  QueryDocument `json:"query"`
	Source []string      `json:"_source"`
	Sort   []SortOrder   `json:"sort"`
}
