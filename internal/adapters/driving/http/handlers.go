package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusResponse represents a simple status response
type StatusResponse struct {
	Status string `json:"status"`
}

// VersionResponse represents the API version response
type VersionResponse struct {
	Version string `json:"version"`
}

// ReadyResponse reports the state of each backing service
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SearchResponse is the JSON body of /api/v1/search
type SearchResponse struct {
	Query   string          `json:"query"`
	Source  string          `json:"source"`
	Count   int             `json:"count"`
	Results []domain.Result `json:"results"`
	TookMs  int64           `json:"took_ms"`
}

// SuggestResponse is the JSON body of /api/v1/suggest
type SuggestResponse struct {
	Prefix      string                    `json:"prefix"`
	Suggestions []domain.SearchSuggestion `json:"suggestions"`
}

// Preset for the terror event map page
const (
	mapPresetQuery = "category:terror_event"
	mapPresetLimit = 100
)

// readyTimeout bounds each readiness check
const readyTimeout = 2 * time.Second

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK

	check := func(name string, p Pinger) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "component", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			return
		}
		resp.Checks[name] = "ok"
	}

	if s.store != nil {
		check("elasticsearch", s.store)
	}
	if s.history != nil {
		check("history", s.history)
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Map pages

// handleKeywords searches both collections (or the requested source) with an optional date range
func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	params, err := searchParamsFromRequest(r, true)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.renderSearch(w, r, params)
}

// handleCombined is an alias of /keywords
func (s *Server) handleCombined(w http.ResponseWriter, r *http.Request) {
	s.handleKeywords(w, r)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	s.renderSource(w, r, domain.SourceNews)
}

func (s *Server) handleHistoric(w http.ResponseWriter, r *http.Request) {
	s.renderSource(w, r, domain.SourceHistoric)
}

// renderSource searches a single collection; dates are not read on these pages
func (s *Server) renderSource(w http.ResponseWriter, r *http.Request, source domain.Source) {
	params, err := searchParamsFromRequest(r, false)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	params.Source = source
	s.renderSearch(w, r, params)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	s.renderSearch(w, r, domain.SearchParams{
		Query:  mapPresetQuery,
		Limit:  mapPresetLimit,
		Source: domain.SourceNews,
	})
}

// renderSearch runs the search and writes the results as an HTML map
func (s *Server) renderSearch(w http.ResponseWriter, r *http.Request, params domain.SearchParams) {
	results, err := s.searchService.Search(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	page, err := s.renderer.Render(results)
	if err != nil {
		s.logger.Error("map render failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "render_failed", "failed to render map")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// JSON API

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := searchParamsFromRequest(r, true)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	start := time.Now()
	results, err := s.searchService.Search(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   params.Query,
		Source:  sourceName(params.Source),
		Count:   len(results),
		Results: results,
		TookMs:  time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	suggestions, err := s.searchService.Suggest(r.Context(), prefix, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []domain.SearchSuggestion{}
	}

	writeJSON(w, http.StatusOK, SuggestResponse{Prefix: prefix, Suggestions: suggestions})
}

func sourceName(source domain.Source) string {
	if source == domain.SourceAll {
		return "all"
	}
	return string(source)
}

// writeServiceError maps domain errors to HTTP status codes
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		s.logger.Info("invalid request", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrStoreFailure):
		s.logger.Error("document store failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "store_failure", "search backend unavailable")
	case errors.Is(err, domain.ErrServiceUnavailable):
		s.logger.Error("service unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", "service unavailable")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
