package mocks

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

// MockMapRenderer is a mock implementation of MapRenderer for testing
type MockMapRenderer struct {
	mu       sync.Mutex
	rendered [][]domain.Result

	RenderFn func(results []domain.Result) ([]byte, error)
}

// NewMockMapRenderer creates a new MockMapRenderer
func NewMockMapRenderer() *MockMapRenderer {
	return &MockMapRenderer{}
}

// Render records results and returns a small HTML document listing the marker count
func (m *MockMapRenderer) Render(results []domain.Result) ([]byte, error) {
	m.mu.Lock()
	m.rendered = append(m.rendered, results)
	m.mu.Unlock()

	if m.RenderFn != nil {
		return m.RenderFn(results)
	}

	markers := 0
	for _, r := range results {
		if _, ok := r.Coordinates(); ok {
			markers++
		}
	}
	return []byte(fmt.Sprintf("<html><body>markers=%d</body></html>", markers)), nil
}

// Rendered returns every result list passed to Render
func (m *MockMapRenderer) Rendered() [][]domain.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]domain.Result, len(m.rendered))
	copy(out, m.rendered)
	return out
}
