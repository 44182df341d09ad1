package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-geo/internal/core/query"
	"github.com/custodia-labs/sercha-geo/internal/metrics"
	"github.com/custodia-labs/sercha-geo/internal/postprocessors"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService implements the SearchService interface
type searchService struct {
	store    driven.DocumentStore
	builder  *query.Builder
	router   query.IndexRouter
	pipeline driven.ResultPipeline
	history  driven.QueryHistory
	logger   *slog.Logger
}

// SearchServiceConfig holds configuration for the search service.
type SearchServiceConfig struct {
	Store    driven.DocumentStore
	Builder  *query.Builder        // Optional: defaults to a builder with default cache size and boost
	Router   *query.IndexRouter    // Optional: defaults to DefaultIndexRouter
	Pipeline driven.ResultPipeline // Optional: defaults to postprocessors.DefaultPipeline
	History  driven.QueryHistory   // Optional: query history for suggestions
	Logger   *slog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(cfg SearchServiceConfig) (driving.SearchService, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: document store is required", domain.ErrInvalidInput)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	builder := cfg.Builder
	if builder == nil {
		b, err := query.NewBuilder(query.DefaultCacheSize, query.DefaultTitleBoost)
		if err != nil {
			return nil, err
		}
		builder = b
	}

	router := query.DefaultIndexRouter()
	if cfg.Router != nil {
		router = *cfg.Router
	}

	var pipeline driven.ResultPipeline = postprocessors.DefaultPipeline()
	if cfg.Pipeline != nil {
		pipeline = cfg.Pipeline
	}

	return &searchService{
		store:    cfg.Store,
		builder:  builder,
		router:   router,
		pipeline: pipeline,
		history:  cfg.History,
		logger:   logger,
	}, nil
}

// Search runs one search against the document store and returns sanitized results
func (s *searchService) Search(ctx context.Context, params domain.SearchParams) ([]domain.Result, error) {
	source := metrics.SourceLabel(string(params.Source))

	if params.Query == "" {
		metrics.SearchRequestsTotal.WithLabelValues(source, "empty").Inc()
		return []domain.Result{}, nil
	}

	if params.Limit <= 0 {
		params.Limit = domain.DefaultLimit
	}
	if params.InvertedRange() {
		s.logger.Warn("search date range is inverted",
			"start_date", params.StartDate.Format(time.RFC3339),
			"end_date", params.EndDate.Format(time.RFC3339))
	}

	req := s.builder.Build(params)
	indices := s.router.Resolve(params.Source)

	start := time.Now()
	resp, err := s.store.Search(ctx, indices, req)
	elapsed := time.Since(start)
	metrics.SearchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(source, "error").Inc()
		s.logger.Error("search failed",
			"query", params.Query,
			"indices", strings.Join(indices, ","),
			"error", err)
		return nil, fmt.Errorf("search %s: %w: %w", strings.Join(indices, ","), domain.ErrStoreFailure, err)
	}

	results := s.extract(resp)
	metrics.SearchRequestsTotal.WithLabelValues(source, "ok").Inc()
	metrics.SearchResults.Observe(float64(len(results)))

	s.logger.Debug("search completed",
		"query", params.Query,
		"indices", strings.Join(indices, ","),
		"results", len(results),
		"duration_ms", elapsed.Milliseconds())

	s.record(ctx, params, len(results), elapsed)
	return results, nil
}

// extract pulls hit sources in store order and sanitizes them
func (s *searchService) extract(resp *domain.SearchResponse) []domain.Result {
	if resp == nil || len(resp.Hits) == 0 {
		return []domain.Result{}
	}

	docs := make([]domain.Result, len(resp.Hits))
	hadCoordinates := make([]bool, len(resp.Hits))
	for i, hit := range resp.Hits {
		doc := domain.Result(hit.Source)
		if doc == nil {
			doc = domain.Result{}
		}
		docs[i] = doc
		hadCoordinates[i] = doc[domain.FieldCoordinates] != nil
	}

	results := s.pipeline.Process(docs)
	for i, r := range results {
		if hadCoordinates[i] && r[domain.FieldCoordinates] == nil {
			metrics.InvalidCoordinatesTotal.Inc()
		}
	}
	return results
}

// record stores the search in query history; failures are logged only
func (s *searchService) record(ctx context.Context, params domain.SearchParams, count int, elapsed time.Duration) {
	if s.history == nil {
		return
	}

	entry := &domain.SearchLogEntry{
		ID:          uuid.New().String(),
		Query:       params.Query,
		Source:      params.Source,
		Limit:       params.Limit,
		ResultCount: count,
		DurationMs:  elapsed.Milliseconds(),
		CreatedAt:   time.Now(),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		metrics.HistoryErrorsTotal.WithLabelValues("record").Inc()
		s.logger.Warn("failed to record search history", "query", params.Query, "error", err)
	}
}

// Suggest provides search suggestions from recent query history
func (s *searchService) Suggest(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if s.history == nil || prefix == "" {
		return []domain.SearchSuggestion{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	suggestions, err := s.history.Suggest(ctx, prefix, limit)
	if err != nil {
		metrics.HistoryErrorsTotal.WithLabelValues("suggest").Inc()
		return nil, fmt.Errorf("suggest: %w", err)
	}
	if suggestions == nil {
		suggestions = []domain.SearchSuggestion{}
	}
	return suggestions, nil
}
