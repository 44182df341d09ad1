package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven/mocks"
)

// Mock services for testing

type mockSearchService struct {
	mu        sync.Mutex
	calls     []domain.SearchParams
	searchFn  func(ctx context.Context, params domain.SearchParams) ([]domain.Result, error)
	suggestFn func(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error)
}

func (m *mockSearchService) Search(ctx context.Context, params domain.SearchParams) ([]domain.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, params)
	}
	return []domain.Result{}, nil
}

func (m *mockSearchService) Suggest(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, prefix, limit)
	}
	return nil, nil
}

func (m *mockSearchService) lastCall(t *testing.T) domain.SearchParams {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		t.Fatal("expected search to be called")
	}
	return m.calls[len(m.calls)-1]
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func newTestServer(search *mockSearchService, renderer *mocks.MockMapRenderer) *Server {
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, search, renderer, &mockPinger{}, nil)
}

func doRequest(s *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rr.Body.String(), err)
	}
	return resp
}

func sampleResults() []domain.Result {
	return []domain.Result{
		{
			"title":       "Flood in Valencia",
			"coordinates": map[string]any{"lat": 39.47, "lon": -0.38},
		},
		{
			"title":       "No location",
			"coordinates": nil,
		},
	}
}

// Health endpoints

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&mockSearchService{}, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"status":"healthy"}` {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(&mockSearchService{}, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/version")

	var resp VersionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", resp.Version)
	}
}

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name           string
		store          Pinger
		history        Pinger
		expectedStatus int
		expectedChecks map[string]string
	}{
		{
			name:           "store only",
			store:          &mockPinger{},
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]string{"elasticsearch": "ok"},
		},
		{
			name:           "store and history",
			store:          &mockPinger{},
			history:        &mockPinger{},
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]string{"elasticsearch": "ok", "history": "ok"},
		},
		{
			name:           "store down",
			store:          &mockPinger{err: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]string{"elasticsearch": "unavailable"},
		},
		{
			name:           "history down",
			store:          &mockPinger{},
			history:        &mockPinger{err: errors.New("redis down")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]string{"elasticsearch": "ok", "history": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			s := NewServer(cfg, &mockSearchService{}, mocks.NewMockMapRenderer(), tt.store, tt.history)

			rr := doRequest(s, "/ready")

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			var resp ReadyResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if len(resp.Checks) != len(tt.expectedChecks) {
				t.Fatalf("expected checks %v, got %v", tt.expectedChecks, resp.Checks)
			}
			for k, v := range tt.expectedChecks {
				if resp.Checks[k] != v {
					t.Errorf("check %s: expected %s, got %s", k, v, resp.Checks[k])
				}
			}
		})
	}
}

// Map pages

func TestHandleKeywords_RendersMap(t *testing.T) {
	search := &mockSearchService{
		searchFn: func(ctx context.Context, params domain.SearchParams) ([]domain.Result, error) {
			return sampleResults(), nil
		},
	}
	renderer := mocks.NewMockMapRenderer()
	s := newTestServer(search, renderer)

	rr := doRequest(s, "/keywords?query=flood&limit=25&start_date=2024-01-01&end_date=31-12-2024")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %s", ct)
	}
	if !strings.Contains(rr.Body.String(), "markers=1") {
		t.Errorf("expected one marker, got %q", rr.Body.String())
	}

	params := search.lastCall(t)
	if params.Query != "flood" {
		t.Errorf("expected query flood, got %q", params.Query)
	}
	if params.Limit != 25 {
		t.Errorf("expected limit 25, got %d", params.Limit)
	}
	if params.Source != domain.SourceAll {
		t.Errorf("expected all sources, got %q", params.Source)
	}
	if params.StartDate == nil || !params.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date %v", params.StartDate)
	}
	if params.EndDate == nil || !params.EndDate.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end date %v", params.EndDate)
	}

	if got := renderer.Rendered(); len(got) != 1 || len(got[0]) != 2 {
		t.Errorf("expected renderer to receive both results, got %v", got)
	}
}

func TestHandleKeywords_InvalidDate(t *testing.T) {
	search := &mockSearchService{}
	s := newTestServer(search, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/keywords?query=flood&start_date=yesterday")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "invalid_input" {
		t.Errorf("expected error invalid_input, got %q", resp.Error)
	}
	if !strings.Contains(resp.Message, "start_date") {
		t.Errorf("expected message to name the parameter, got %q", resp.Message)
	}
	if len(search.calls) != 0 {
		t.Error("search must not run for an invalid date")
	}
}

func TestHandleKeywords_StoreFailure(t *testing.T) {
	search := &mockSearchService{
		searchFn: func(ctx context.Context, params domain.SearchParams) ([]domain.Result, error) {
			return nil, fmt.Errorf("search news_events: %w: %w", domain.ErrStoreFailure, errors.New("dial tcp: refused"))
		},
	}
	s := newTestServer(search, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/keywords?query=flood")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "store_failure" {
		t.Errorf("expected error store_failure, got %q", resp.Error)
	}
	if strings.Contains(rr.Body.String(), "dial tcp") {
		t.Error("transport details must not leak into the response")
	}
}

func TestHandleKeywords_SourceParam(t *testing.T) {
	tests := []struct {
		value    string
		expected domain.Source
	}{
		{"news", domain.SourceNews},
		{"HISTORIC", domain.SourceHistoric},
		{"", domain.SourceAll},
		{"bogus", domain.SourceAll},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			search := &mockSearchService{}
			s := newTestServer(search, mocks.NewMockMapRenderer())

			doRequest(s, "/keywords?query=x&source="+tt.value)

			if got := search.lastCall(t).Source; got != tt.expected {
				t.Errorf("expected source %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestHandleCombined_SameAsKeywords(t *testing.T) {
	search := &mockSearchService{}
	s := newTestServer(search, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/combined?query=flood&limit=abc")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	params := search.lastCall(t)
	if params.Limit != domain.DefaultLimit {
		t.Errorf("expected default limit, got %d", params.Limit)
	}
}

func TestHandleNewsAndHistoric_FixedSource(t *testing.T) {
	tests := []struct {
		path     string
		expected domain.Source
	}{
		{"/news?query=flood&source=historic", domain.SourceNews},
		{"/historic?query=flood&source=news", domain.SourceHistoric},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			search := &mockSearchService{}
			s := newTestServer(search, mocks.NewMockMapRenderer())

			rr := doRequest(s, tt.path)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}
			params := search.lastCall(t)
			if params.Source != tt.expected {
				t.Errorf("expected source %q, got %q", tt.expected, params.Source)
			}
			if params.HasDateRange() {
				t.Error("fixed-source pages take no date range")
			}
		})
	}
}

func TestHandleNews_IgnoresDates(t *testing.T) {
	search := &mockSearchService{}
	s := newTestServer(search, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/news?query=flood&start_date=garbage")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestHandleNewsAndHistoric_MalformedQueryString(t *testing.T) {
	for _, path := range []string{"/news?query=%zz", "/historic?query=%zz"} {
		t.Run(path, func(t *testing.T) {
			search := &mockSearchService{}
			s := newTestServer(search, mocks.NewMockMapRenderer())

			rr := doRequest(s, path)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
			if resp := decodeError(t, rr); resp.Error != "invalid_input" {
				t.Errorf("expected error invalid_input, got %q", resp.Error)
			}
			if len(search.calls) != 0 {
				t.Error("search must not run for a malformed query string")
			}
		})
	}
}

func TestHandleMap_Preset(t *testing.T) {
	search := &mockSearchService{}
	s := newTestServer(search, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/map?query=ignored")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	params := search.lastCall(t)
	if params.Query != "category:terror_event" {
		t.Errorf("unexpected preset query %q", params.Query)
	}
	if params.Limit != 100 || params.Source != domain.SourceNews {
		t.Errorf("unexpected preset %+v", params)
	}
}

func TestHandleMap_RenderFailure(t *testing.T) {
	renderer := mocks.NewMockMapRenderer()
	renderer.RenderFn = func(results []domain.Result) ([]byte, error) {
		return nil, errors.New("template broken")
	}
	s := newTestServer(&mockSearchService{}, renderer)

	rr := doRequest(s, "/map")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error != "render_failed" {
		t.Errorf("expected render_failed, got %q", resp.Error)
	}
}

// JSON API

func TestHandleSearch_JSON(t *testing.T) {
	search := &mockSearchService{
		searchFn: func(ctx context.Context, params domain.SearchParams) ([]domain.Result, error) {
			return sampleResults(), nil
		},
	}
	s := newTestServer(search, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/api/v1/search?query=flood&source=news")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var resp SearchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Query != "flood" || resp.Source != "news" || resp.Count != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Results[1]["coordinates"] != nil {
		t.Errorf("expected null coordinates to survive encoding, got %v", resp.Results[1]["coordinates"])
	}
}

func TestHandleSearch_EmptyResultsEncodeAsArray(t *testing.T) {
	s := newTestServer(&mockSearchService{}, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/api/v1/search")

	if !strings.Contains(rr.Body.String(), `"results":[]`) {
		t.Errorf("expected empty results array, got %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"source":"all"`) {
		t.Errorf("expected source all, got %s", rr.Body.String())
	}
}

func TestHandleSearch_InvalidDate(t *testing.T) {
	s := newTestServer(&mockSearchService{}, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/api/v1/search?query=x&end_date=2024-13-45")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleSearch_UnexpectedError(t *testing.T) {
	search := &mockSearchService{
		searchFn: func(ctx context.Context, params domain.SearchParams) ([]domain.Result, error) {
			return nil, errors.New("boom")
		},
	}
	s := newTestServer(search, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/api/v1/search?query=x")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error != "internal_error" {
		t.Errorf("expected internal_error, got %q", resp.Error)
	}
}

func TestHandleSuggest(t *testing.T) {
	var gotPrefix string
	var gotLimit int
	search := &mockSearchService{
		suggestFn: func(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
			gotPrefix, gotLimit = prefix, limit
			return []domain.SearchSuggestion{{Text: "flood valencia", Score: 1}}, nil
		},
	}
	s := newTestServer(search, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/api/v1/suggest?prefix=flo&limit=5")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotPrefix != "flo" || gotLimit != 5 {
		t.Errorf("unexpected args prefix=%q limit=%d", gotPrefix, gotLimit)
	}

	var resp SuggestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].Text != "flood valencia" {
		t.Errorf("unexpected suggestions %+v", resp.Suggestions)
	}
}

func TestHandleSuggest_NilBecomesEmpty(t *testing.T) {
	s := newTestServer(&mockSearchService{}, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/api/v1/suggest?prefix=x&limit=nope")

	if !strings.Contains(rr.Body.String(), `"suggestions":[]`) {
		t.Errorf("expected empty suggestions array, got %s", rr.Body.String())
	}
}

func TestHandleSuggest_Error(t *testing.T) {
	search := &mockSearchService{
		suggestFn: func(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
			return nil, fmt.Errorf("suggest: %w", domain.ErrServiceUnavailable)
		},
	}
	s := newTestServer(search, mocks.NewMockMapRenderer())

	rr := doRequest(s, "/api/v1/suggest?prefix=x")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	s := newTestServer(&mockSearchService{}, mocks.NewMockMapRenderer())

	req := httptest.NewRequest("POST", "/keywords", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}
}

func TestRoutes_CORSOnEveryRoute(t *testing.T) {
	s := newTestServer(&mockSearchService{}, mocks.NewMockMapRenderer())

	for _, path := range []string{"/health", "/keywords?query=x", "/api/v1/search?query=x"} {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("Origin", "https://maps.example.com")
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://maps.example.com" {
			t.Errorf("%s: expected CORS header, got %q", path, got)
		}
	}
}

func TestRoutes_Metrics(t *testing.T) {
	s := newTestServer(&mockSearchService{}, mocks.NewMockMapRenderer())

	doRequest(s, "/health")
	rr := doRequest(s, "/metrics")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `sercha_geo_http_requests_total{method="GET",path="GET /health",status="200"}`) {
		t.Error("expected request counter for /health")
	}
}
