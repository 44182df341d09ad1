package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

// Accepted date layouts after ISO: day-first, then month-first
var fallbackDateLayouts = []string{"02-01-2006", "01-02-2006"}

// ISO layouts, tried when the value starts with a four digit year
var isoDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
}

// parseDate accepts YYYY-MM-DD (or a full ISO timestamp), DD-MM-YYYY, then MM-DD-YYYY
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	layouts := fallbackDateLayouts
	if head, _, ok := strings.Cut(value, "-"); ok && len(head) == 4 {
		layouts = isoDateLayouts
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD, DD-MM-YYYY, or MM-DD-YYYY", domain.ErrInvalidInput, value)
}

// parseOptionalDate returns nil for an absent parameter
func parseOptionalDate(q url.Values, name string) (*time.Time, error) {
	value := q.Get(name)
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &t, nil
}

// parseLimit returns fallback when the value is absent, unparsable, or not positive
func parseLimit(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseSource maps the source query parameter; unknown values search everything
func parseSource(value string) domain.Source {
	s := domain.Source(strings.ToLower(strings.TrimSpace(value)))
	if !s.Known() {
		return domain.SourceAll
	}
	return s
}

// searchParamsFromRequest reads query and limit, plus dates and source when the route allows them
func searchParamsFromRequest(r *http.Request, withDates bool) (domain.SearchParams, error) {
	q, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return domain.SearchParams{}, fmt.Errorf("%w: malformed query string: %v", domain.ErrInvalidInput, err)
	}
	params := domain.SearchParams{
		Query:  q.Get("query"),
		Limit:  parseLimit(q.Get("limit"), domain.DefaultLimit),
		Source: parseSource(q.Get("source")),
	}
	if !withDates {
		return params, nil
	}

	if params.StartDate, err = parseOptionalDate(q, "start_date"); err != nil {
		return domain.SearchParams{}, err
	}
	if params.EndDate, err = parseOptionalDate(q, "end_date"); err != nil {
		return domain.SearchParams{}, err
	}
	return params, nil
}
