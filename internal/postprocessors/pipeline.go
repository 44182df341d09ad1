package postprocessors

import (
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResultPipeline = (*Pipeline)(nil)

// Pipeline implements ResultPipeline.
// Processors run on each result by ascending Order; ties keep insertion order.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.ResultProcessor
}

// NewPipeline creates a new result pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.ResultProcessor, 0),
	}
}

// Add inserts processor at its Order position
func (p *Pipeline) Add(processor driven.ResultProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	sort.SliceStable(p.processors, func(i, j int) bool {
		return p.processors[i].Order() < p.processors[j].Order()
	})
}

// Process applies all processors in order to every result.
// Each result is processed independently.
func (p *Pipeline) Process(docs []domain.Result) []domain.Result {
	p.mu.RLock()
	processors := make([]driven.ResultProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.RUnlock()

	out := make([]domain.Result, len(docs))
	for i, doc := range docs {
		for _, proc := range processors {
			doc = proc.Process(doc)
		}
		out[i] = doc
	}
	return out
}

// List returns processor names in run order
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline validates coordinates and nothing else
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(NewCoordinateValidator())
	return p
}
