package driven

import "github.com/custodia-labs/sercha-geo/internal/core/domain"

// ResultProcessor applies post-processing to a single search result.
// Processors form a pipeline: CoordinateValidator -> ...
type ResultProcessor interface {
	// Process returns the processed result.
	// Implementations must not panic on malformed input.
	Process(doc domain.Result) domain.Result

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// ResultPipeline chains multiple result processors in order.
type ResultPipeline interface {
	// Process applies all processors in order to each result.
	// Output preserves input order and length.
	Process(docs []domain.Result) []domain.Result

	// Add adds a processor to the pipeline.
	// Processors are sorted by Order() before processing.
	Add(processor ResultProcessor)

	// List returns processor names in order.
	List() []string
}
