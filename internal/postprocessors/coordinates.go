package postprocessors

import (
	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
)

// SanitizeCoordinates nulls out the coordinates field unless it holds a
// lat/lon pair inside the valid ranges (see domain.ParseCoordinates). A
// missing field is set to an explicit nil. doc is modified in place and
// returned; other fields and valid coordinates are untouched.
func SanitizeCoordinates(doc domain.Result) domain.Result {
	if doc == nil {
		return domain.Result{domain.FieldCoordinates: nil}
	}
	if _, ok := domain.ParseCoordinates(doc[domain.FieldCoordinates]); !ok {
		doc[domain.FieldCoordinates] = nil
	}
	return doc
}

// CoordinateValidator runs SanitizeCoordinates as a pipeline stage.
// It should be first (Order = 0).
type CoordinateValidator struct{}

// Verify interface compliance
var _ driven.ResultProcessor = (*CoordinateValidator)(nil)

// NewCoordinateValidator creates a new coordinate validator.
func NewCoordinateValidator() *CoordinateValidator {
	return &CoordinateValidator{}
}

// Process sanitizes the coordinates of doc.
func (c *CoordinateValidator) Process(doc domain.Result) domain.Result {
	return SanitizeCoordinates(doc)
}

// Name returns the processor name.
func (c *CoordinateValidator) Name() string {
	return "coordinate-validator"
}

// Order returns 0 - coordinates are validated first.
func (c *CoordinateValidator) Order() int {
	return 0
}
