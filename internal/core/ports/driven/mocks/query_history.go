package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

// MockQueryHistory is a mock implementation of QueryHistory for testing
type MockQueryHistory struct {
	mu      sync.RWMutex
	entries []*domain.SearchLogEntry

	// Custom behavior hooks (optional)
	RecordFn func(entry *domain.SearchLogEntry) error
	PruneFn  func(olderThan time.Time) (int64, error)
	PingFn   func() error
}

// NewMockQueryHistory creates a new MockQueryHistory
func NewMockQueryHistory() *MockQueryHistory {
	return &MockQueryHistory{}
}

func (m *MockQueryHistory) Record(ctx context.Context, entry *domain.SearchLogEntry) error {
	if m.RecordFn != nil {
		if err := m.RecordFn(entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockQueryHistory) Suggest(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[string]time.Time)
	prefix = strings.ToLower(prefix)
	for _, e := range m.entries {
		q := strings.ToLower(e.Query)
		if !strings.HasPrefix(q, prefix) {
			continue
		}
		if e.CreatedAt.After(latest[q]) {
			latest[q] = e.CreatedAt
		}
	}

	suggestions := make([]domain.SearchSuggestion, 0, len(latest))
	for q, ts := range latest {
		suggestions = append(suggestions, domain.SearchSuggestion{Text: q, Score: float64(ts.Unix())})
	}
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score == suggestions[j].Score {
			return suggestions[i].Text < suggestions[j].Text
		}
		return suggestions[i].Score > suggestions[j].Score
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func (m *MockQueryHistory) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	if m.PruneFn != nil {
		return m.PruneFn(olderThan)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	var removed int64
	for _, e := range m.entries {
		if e.CreatedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

func (m *MockQueryHistory) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// Add stores entries directly, bypassing Record (for test setup)
func (m *MockQueryHistory) Add(entries ...*domain.SearchLogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
}

// Entries returns the recorded entries
func (m *MockQueryHistory) Entries() []*domain.SearchLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.SearchLogEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
