// Package elasticsearch implements the document store on Elasticsearch.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*Store)(nil)

// Store implements driven.DocumentStore using Elasticsearch
type Store struct {
	client *elasticsearch.Client
}

// Config holds Elasticsearch connection configuration
type Config struct {
	// Addresses are the cluster node URLs (e.g., http://localhost:9200)
	Addresses []string

	// Username and Password enable basic auth when set
	Username string
	Password string

	// APIKey is a base64 encoded API key; takes precedence over basic auth
	APIKey string

	// Timeout bounds how long to wait for response headers
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(addresses ...string) Config {
	if len(addresses) == 0 {
		addresses = []string{"http://localhost:9200"}
	}
	return Config{
		Addresses: addresses,
		Timeout:   30 * time.Second,
	}
}

// NewStore creates a new Elasticsearch-backed Store
func NewStore(cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing client
func NewStoreWithClient(client *elasticsearch.Client) *Store {
	return &Store{client: client}
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Index  string         `json:"_index"`
			ID     string         `json:"_id"`
			Score  *float64       `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// Search runs one search request across indices
func (s *Store) Search(ctx context.Context, indices []string, req domain.QueryRequest) (*domain.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	searchReq := esapi.SearchRequest{
		Index: indices,
		Body:  bytes.NewReader(body),
	}

	res, err := searchReq.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("elasticsearch search failed", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &domain.SearchResponse{
		Hits:  make([]domain.Hit, 0, len(parsed.Hits.Hits)),
		Total: parsed.Hits.Total.Value,
		Took:  time.Duration(parsed.Took) * time.Millisecond,
	}
	for _, h := range parsed.Hits.Hits {
		hit := domain.Hit{
			Index:  h.Index,
			ID:     h.ID,
			Source: h.Source,
		}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		if hit.Source == nil {
			hit.Source = map[string]any{}
		}
		out.Hits = append(out.Hits, hit)
	}

	return out, nil
}

// HealthCheck pings the cluster
func (s *Store) HealthCheck(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch unhealthy: %s", res.Status())
	}
	return nil
}

// Version returns the cluster version number
func (s *Store) Version(ctx context.Context) (string, error) {
	res, err := s.client.Info(s.client.Info.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("elasticsearch info failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", responseError("elasticsearch info failed", res)
	}

	var info struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode info response: %w", err)
	}
	return info.Version.Number, nil
}

func responseError(prefix string, res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64*1024))

	var parsed errorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Type != "" {
		return fmt.Errorf("%s: %s - %s: %s", prefix, res.Status(), parsed.Error.Type, parsed.Error.Reason)
	}
	return fmt.Errorf("%s: %s - %s", prefix, res.Status(), strings.TrimSpace(string(raw)))
}
