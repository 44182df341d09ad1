package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

// SearchCall records one call to MockDocumentStore.Search
type SearchCall struct {
	Indices []string
	Request domain.QueryRequest
}

// MockDocumentStore is a mock implementation of DocumentStore for testing.
// Documents are held per index; Search matches the query text against
// title, content and location with a case-insensitive substring check.
type MockDocumentStore struct {
	mu      sync.RWMutex
	indices map[string][]domain.Result
	calls   []SearchCall

	// Custom behavior hooks (optional)
	SearchFn      func(indices []string, req domain.QueryRequest) (*domain.SearchResponse, error)
	HealthCheckFn func() error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		indices: make(map[string][]domain.Result),
	}
}

// Add stores docs in index
func (m *MockDocumentStore) Add(index string, docs ...domain.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indices[index] = append(m.indices[index], docs...)
}

func (m *MockDocumentStore) Search(ctx context.Context, indices []string, req domain.QueryRequest) (*domain.SearchResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SearchCall{
		Indices: append([]string(nil), indices...),
		Request: req,
	})
	m.mu.Unlock()

	if m.SearchFn != nil {
		return m.SearchFn(indices, req)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	text := strings.ToLower(queryText(req))
	resp := &domain.SearchResponse{Hits: []domain.Hit{}}
	for _, index := range indices {
		for _, doc := range m.indices[index] {
			if !matches(doc, text) {
				continue
			}
			resp.Total++
			if len(resp.Hits) >= req.Size {
				continue
			}
			source := make(map[string]any, len(doc))
			for k, v := range doc {
				source[k] = v
			}
			resp.Hits = append(resp.Hits, domain.Hit{Index: index, Score: 1, Source: source})
		}
	}
	return resp, nil
}

func (m *MockDocumentStore) HealthCheck(ctx context.Context) error {
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn()
	}
	return nil
}

// Calls returns the recorded Search calls
func (m *MockDocumentStore) Calls() []SearchCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SearchCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears stored documents and recorded calls
func (m *MockDocumentStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indices = make(map[string][]domain.Result)
	m.calls = nil
}

func queryText(req domain.QueryRequest) string {
	for _, clause := range req.Query.Bool.Should {
		for _, mq := range clause.Match {
			return mq.Query
		}
	}
	return ""
}

func matches(doc domain.Result, text string) bool {
	for _, field := range []string{domain.FieldTitle, domain.FieldContent, domain.FieldLocation} {
		if s, ok := doc[field].(string); ok && strings.Contains(strings.ToLower(s), text) {
			return true
		}
	}
	return false
}
