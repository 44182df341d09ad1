package http

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05T10:30:00", time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)},
		{"2024-03-05T10:30:00Z", time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)},
		{"2024-03-05T10:30:00+02:00", time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)},
		{"2024-03-05 10:30:00", time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)},
		{"2024-03-05T10:30", time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)},
		{"2024-03-05 10:30", time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)},
		{"2024-03-05 10:30:00-05:00", time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)},
		{"05-03-2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},   // day first wins when ambiguous
		{"03-25-2024", time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)},  // month first fallback
		{" 2024-03-05 ", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}, // surrounding space
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"yesterday", "2024/03/05", "2024-02-30", "32-13-2024", "05-03-24"} {
		t.Run(input, func(t *testing.T) {
			_, err := parseDate(input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 100},
		{"25", 25},
		{"5000", 5000},
		{"abc", 100},
		{"0", 100},
		{"-3", 100},
		{"2.5", 100},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLimit(tt.input, 100); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestSearchParamsFromRequest_WithoutDates(t *testing.T) {
	req := httptest.NewRequest("GET", "/news?query=storm&start_date=bad", nil)

	params, err := searchParamsFromRequest(req, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Query != "storm" || params.Limit != domain.DefaultLimit {
		t.Errorf("unexpected params %+v", params)
	}
	if params.HasDateRange() {
		t.Error("expected no date range")
	}
}

func TestSearchParamsFromRequest_EndDateOnly(t *testing.T) {
	req := httptest.NewRequest("GET", "/keywords?query=storm&end_date=2024-06-30", nil)

	params, err := searchParamsFromRequest(req, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.StartDate != nil {
		t.Error("expected nil start date")
	}
	if params.EndDate == nil || params.EndDate.Format("2006-01-02") != "2024-06-30" {
		t.Errorf("unexpected end date %v", params.EndDate)
	}
}

func TestSearchParamsFromRequest_MalformedQueryString(t *testing.T) {
	for _, withDates := range []bool{false, true} {
		req := httptest.NewRequest("GET", "/news?query=%zz", nil)

		_, err := searchParamsFromRequest(req, withDates)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("withDates=%v: expected ErrInvalidInput, got %v", withDates, err)
		}
	}
}

func TestSearchParamsFromRequest_SpaceSeparatedDate(t *testing.T) {
	req := httptest.NewRequest("GET", "/keywords?query=storm&start_date=2024-01-05+10:00:00", nil)

	params, err := searchParamsFromRequest(req, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	if params.StartDate == nil || !params.StartDate.Equal(want) {
		t.Errorf("expected %v, got %v", want, params.StartDate)
	}
}
