// Package query turns search parameters into store query documents.
package query

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

const (
	// DefaultTitleBoost weights title matches over content and location
	DefaultTitleBoost = 2.0

	// DefaultCacheSize is the number of memoized query documents
	DefaultCacheSize = 256

	// dateLayout renders bounds as ISO-8601 date-times in UTC, which is
	// how the store reads a bound without an offset
	dateLayout = "2006-01-02T15:04:05"
)

// BuildQuery creates the base full-text query for text.
// A document matches if any of title, content or location matches.
func BuildQuery(text string, boost float64) domain.QueryDocument {
	b := boost
	return domain.QueryDocument{
		Bool: domain.BoolQuery{
			Should: []domain.Clause{
				match(domain.FieldTitle, text, &b),
				match(domain.FieldContent, text, nil),
				match(domain.FieldLocation, text, nil),
			},
			MinimumShouldMatch: 1,
		},
	}
}

func match(field, text string, boost *float64) domain.Clause {
	return domain.Clause{
		Match: map[string]domain.MatchQuery{
			field: {Query: text, Boost: boost},
		},
	}
}

// AddDateRange restricts q to the publication date bounds in params.
// q is returned unchanged when neither bound is set; otherwise a copy is
// returned and q itself is left untouched.
func AddDateRange(params domain.SearchParams, q domain.QueryDocument) domain.QueryDocument {
	if !params.HasDateRange() {
		return q
	}

	var r domain.RangeQuery
	if params.StartDate != nil {
		r.GTE = params.StartDate.UTC().Format(dateLayout)
	}
	if params.EndDate != nil {
		r.LTE = params.EndDate.UTC().Format(dateLayout)
	}

	out := q
	out.Bool.Must = append(make([]domain.Clause, 0, len(q.Bool.Must)+1), q.Bool.Must...)
	out.Bool.Must = append(out.Bool.Must, domain.Clause{
		Range: map[string]domain.RangeQuery{domain.FieldPublicationDate: r},
	})
	return out
}

// Finalize wraps q in a request body: capped size, source fields and score sort.
func Finalize(limit int, q domain.QueryDocument) domain.QueryRequest {
	size := limit
	if size > domain.MaxResultSize {
		size = domain.MaxResultSize
	}

	fields := make([]string, len(domain.ResultFields))
	copy(fields, domain.ResultFields)

	return domain.QueryRequest{
		Size:   size,
		Query:  q,
		Source: fields,
		Sort:   []domain.SortOrder{{"_score": "desc"}},
	}
}

type cacheKey struct {
	text  string
	boost float64
}

// Builder builds complete requests, memoizing base query documents by text.
// It is safe for concurrent use.
type Builder struct {
	boost  float64
	cache  *lru.Cache[cacheKey, domain.QueryDocument]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewBuilder creates a builder holding up to cacheSize base queries.
// A non-positive boost falls back to DefaultTitleBoost.
func NewBuilder(cacheSize int, boost float64) (*Builder, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if boost <= 0 {
		boost = DefaultTitleBoost
	}

	cache, err := lru.New[cacheKey, domain.QueryDocument](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}

	return &Builder{boost: boost, cache: cache}, nil
}

// Build returns the request body for params: base query, date range, finalize.
func (b *Builder) Build(params domain.SearchParams) domain.QueryRequest {
	base := b.base(params.Query)
	return Finalize(params.Limit, AddDateRange(params, base))
}

func (b *Builder) base(text string) domain.QueryDocument {
	key := cacheKey{text: text, boost: b.boost}
	if q, ok := b.cache.Get(key); ok {
		b.hits.Add(1)
		return q
	}
	b.misses.Add(1)

	q := BuildQuery(text, b.boost)
	b.cache.Add(key, q)
	return q
}

// CacheStats returns memoization hits, misses and current entry count
func (b *Builder) CacheStats() (hits, misses int64, size int) {
	return b.hits.Load(), b.misses.Load(), b.cache.Len()
}
