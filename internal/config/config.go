// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Run modes
const (
	ModeAPI    = "api"    // HTTP server only
	ModeWorker = "worker" // History retention only
	ModeAll    = "all"    // Both in one process
)

// Config holds everything main needs to wire the process
type Config struct {
	RunMode string
	Host    string
	Port    int

	// Elasticsearch
	ElasticsearchURLs     []string
	ElasticsearchUsername string
	ElasticsearchPassword string
	ElasticsearchAPIKey   string
	ElasticsearchTimeout  time.Duration
	NewsIndex             string
	HistoricIndex         string

	// Query building
	TitleBoost     float64
	QueryCacheSize int

	// Query history (Redis preferred, PostgreSQL fallback, both optional)
	RedisURL             string
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	HistoryRetention     time.Duration
	HistoryPruneSchedule string
	HistoryLockRequired  bool

	CORSAllowedOrigins []string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from the environment, after an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RunMode: strings.ToLower(getEnv("RUN_MODE", ModeAll)),
		Host:    getEnv("HOST", "0.0.0.0"),
		Port:    getEnvInt("PORT", 5003),

		ElasticsearchURLs:     splitCSV(getEnv("ELASTICSEARCH_URL", "http://localhost:9200")),
		ElasticsearchUsername: getEnv("ELASTICSEARCH_USERNAME", ""),
		ElasticsearchPassword: getEnv("ELASTICSEARCH_PASSWORD", ""),
		ElasticsearchAPIKey:   getEnv("ELASTICSEARCH_API_KEY", ""),
		ElasticsearchTimeout:  time.Duration(getEnvInt("ELASTICSEARCH_TIMEOUT_SEC", 30)) * time.Second,
		NewsIndex:             getEnv("ES_INDEX_FOR_NEWS", "news_events"),
		HistoricIndex:         getEnv("ES_INDEX_FOR_TERROR", "terror_data"),

		TitleBoost:     getEnvFloat("TITLE_BOOST", 2.0),
		QueryCacheSize: getEnvInt("QUERY_CACHE_SIZE", 256),

		RedisURL:             getEnv("REDIS_URL", ""),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 2),
		HistoryRetention:     time.Duration(getEnvInt("HISTORY_RETENTION_DAYS", 30)) * 24 * time.Hour,
		HistoryPruneSchedule: getEnv("HISTORY_PRUNE_SCHEDULE", "@daily"),
		HistoryLockRequired:  getEnvBool("HISTORY_LOCK_REQUIRED", true),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at wiring time
func (c *Config) Validate() error {
	switch c.RunMode {
	case ModeAPI, ModeWorker, ModeAll:
	default:
		return fmt.Errorf("RUN_MODE must be one of api, worker, all (got %q)", c.RunMode)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if len(c.ElasticsearchURLs) == 0 {
		return fmt.Errorf("ELASTICSEARCH_URL is required")
	}
	if c.NewsIndex == "" || c.HistoricIndex == "" {
		return fmt.Errorf("ES_INDEX_FOR_NEWS and ES_INDEX_FOR_TERROR must not be empty")
	}
	if c.HistoryRetention <= 0 {
		return fmt.Errorf("HISTORY_RETENTION_DAYS must be positive")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json (got %q)", c.LogFormat)
	}
	return nil
}

// HistoryEnabled reports whether a query history backend is configured
func (c *Config) HistoryEnabled() bool {
	return c.RedisURL != "" || c.DatabaseURL != ""
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
