package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QueryHistory = (*SearchLogStore)(nil)

// SearchLogStore implements driven.QueryHistory using the search_log table
type SearchLogStore struct {
	db *DB
}

// NewSearchLogStore creates a new PostgreSQL-backed query history
func NewSearchLogStore(db *DB) *SearchLogStore {
	return &SearchLogStore{db: db}
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// escapeLike escapes LIKE wildcards so prefix matches are literal
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Record inserts one executed search
func (s *SearchLogStore) Record(ctx context.Context, entry *domain.SearchLogEntry) error {
	normalized := normalizeQuery(entry.Query)
	if normalized == "" {
		return nil
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO search_log (id, query, normalized, source, result_limit, result_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.pool.ExecContext(ctx, query,
		entry.ID,
		entry.Query,
		normalized,
		string(entry.Source),
		entry.Limit,
		entry.ResultCount,
		entry.DurationMs,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}
	return nil
}

// Suggest returns distinct normalized queries starting with prefix, most recent first
func (s *SearchLogStore) Suggest(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
	prefix = normalizeQuery(prefix)
	if prefix == "" || limit <= 0 {
		return []domain.SearchSuggestion{}, nil
	}

	query := `
		SELECT normalized, MAX(created_at) AS last_used
		FROM search_log
		WHERE normalized LIKE $1 ESCAPE '\'
		GROUP BY normalized
		ORDER BY last_used DESC, normalized
		LIMIT $2
	`
	rows, err := s.db.pool.QueryContext(ctx, query, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("query suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := make([]domain.SearchSuggestion, 0, limit)
	for rows.Next() {
		var text string
		var lastUsed time.Time
		if err := rows.Scan(&text, &lastUsed); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		suggestions = append(suggestions, domain.SearchSuggestion{
			Text:  text,
			Score: float64(lastUsed.Unix()),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}
	return suggestions, nil
}

// Prune deletes entries created before olderThan
func (s *SearchLogStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.pool.ExecContext(ctx, `DELETE FROM search_log WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune search log: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune search log: %w", err)
	}
	return n, nil
}

// Ping checks if the database is reachable
func (s *SearchLogStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
