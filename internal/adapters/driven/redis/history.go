package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QueryHistory = (*QueryHistory)(nil)

const (
	// Key names for Redis
	historyLexKey    = "sercha-geo:history:lex"    // ZSET, score 0, member = normalized query
	historyRecentKey = "sercha-geo:history:recent" // ZSET, score = last used unix time

	// maxSuggestCandidates bounds the lexicographic scan per Suggest call
	maxSuggestCandidates = 500
)

// QueryHistory implements driven.QueryHistory using Redis sorted sets.
// Queries are normalized to lower case and deduplicated; each keeps
// only its last-used time.
type QueryHistory struct {
	client redis.UniversalClient
}

// NewQueryHistory creates a new Redis-backed QueryHistory
func NewQueryHistory(client redis.UniversalClient) *QueryHistory {
	return &QueryHistory{client: client}
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Record stores the query and refreshes its last-used time
func (h *QueryHistory) Record(ctx context.Context, entry *domain.SearchLogEntry) error {
	q := normalizeQuery(entry.Query)
	if q == "" {
		return nil
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	pipe := h.client.TxPipeline()
	pipe.ZAdd(ctx, historyLexKey, redis.Z{Score: 0, Member: q})
	pipe.ZAdd(ctx, historyRecentKey, redis.Z{Score: float64(createdAt.Unix()), Member: q})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// Suggest returns stored queries starting with prefix, most recently used first
func (h *QueryHistory) Suggest(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error) {
	prefix = normalizeQuery(prefix)
	if prefix == "" || limit <= 0 {
		return []domain.SearchSuggestion{}, nil
	}

	candidates, err := h.client.ZRangeByLex(ctx, historyLexKey, &redis.ZRangeBy{
		Min:   "[" + prefix,
		Max:   "[" + prefix + "\xff",
		Count: maxSuggestCandidates,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan history: %w", err)
	}
	if len(candidates) == 0 {
		return []domain.SearchSuggestion{}, nil
	}

	pipe := h.client.Pipeline()
	scores := make([]*redis.FloatCmd, len(candidates))
	for i, c := range candidates {
		scores[i] = pipe.ZScore(ctx, historyRecentKey, c)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read history scores: %w", err)
	}

	suggestions := make([]domain.SearchSuggestion, 0, len(candidates))
	for i, c := range candidates {
		score, err := scores[i].Result()
		if err != nil {
			// Pruned between the two reads
			continue
		}
		suggestions = append(suggestions, domain.SearchSuggestion{Text: c, Score: score})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// pruneScript removes every query last used before ARGV[1] from both sets
// in one step, so a concurrent Record either lands before the prune (and
// survives it) or after it.
var pruneScript = redis.NewScript(`
	local stale = redis.call("zrangebyscore", KEYS[1], "-inf", ARGV[1])
	for _, q in ipairs(stale) do
		redis.call("zrem", KEYS[1], q)
		redis.call("zrem", KEYS[2], q)
	end
	return #stale
`)

// Prune removes queries last used before olderThan
func (h *QueryHistory) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	bound := "(" + strconv.FormatInt(olderThan.Unix(), 10)
	removed, err := pruneScript.Run(ctx, h.client, []string{historyRecentKey, historyLexKey}, bound).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return removed, nil
}

// Ping checks if the Redis backend is healthy
func (h *QueryHistory) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
