package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-geo/internal/adapters/driven/elasticsearch"
	"github.com/custodia-labs/sercha-geo/internal/adapters/driven/maprender"
	"github.com/custodia-labs/sercha-geo/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/sercha-geo/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-geo/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-geo/internal/config"
	"github.com/custodia-labs/sercha-geo/internal/core/domain"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-geo/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-geo/internal/core/query"
	"github.com/custodia-labs/sercha-geo/internal/core/services"
	"github.com/custodia-labs/sercha-geo/internal/metrics"
	"github.com/custodia-labs/sercha-geo/internal/postprocessors"
	"github.com/custodia-labs/sercha-geo/internal/runtime"
	"github.com/custodia-labs/sercha-geo/internal/worker"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Run mode from RUN_MODE or command line arg
	if len(os.Args) > 1 {
		cfg.RunMode = os.Args[1]
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	logger := cfg.NewLogger()
	log.Printf("sercha-geo %s starting in %s mode", version, cfg.RunMode)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Initialize Elasticsearch =====
	log.Println("Connecting to Elasticsearch...")
	esConfig := elasticsearch.DefaultConfig(cfg.ElasticsearchURLs...)
	esConfig.Username = cfg.ElasticsearchUsername
	esConfig.Password = cfg.ElasticsearchPassword
	esConfig.APIKey = cfg.ElasticsearchAPIKey
	esConfig.Timeout = cfg.ElasticsearchTimeout
	store, err := elasticsearch.NewStore(esConfig)
	if err != nil {
		log.Fatalf("Failed to create Elasticsearch client: %v", err)
	}
	if esVersion, err := store.Version(ctx); err != nil {
		log.Printf("Warning: Elasticsearch health check failed: %v (search may not work)", err)
	} else {
		log.Printf("Elasticsearch %s connected", esVersion)
	}

	// ===== Query history and lock (Redis if available, otherwise PostgreSQL, otherwise none) =====
	var (
		history        driven.QueryHistory
		lock           driven.DistributedLock
		historyBackend = domain.BackendNone
	)
	switch {
	case cfg.RedisURL != "":
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		history = redisadapter.NewQueryHistory(redisClient)
		lock = redisadapter.NewLock(redisClient)
		historyBackend = domain.BackendRedis
		log.Println("Using Redis query history and distributed lock")

	case cfg.DatabaseURL != "":
		log.Println("Connecting to PostgreSQL...")
		dbConfig := postgres.DefaultConfig(cfg.DatabaseURL)
		dbConfig.MaxOpenConns = cfg.DBMaxOpenConns
		dbConfig.MaxIdleConns = cfg.DBMaxIdleConns
		db, err := postgres.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := prometheus.DefaultRegisterer.Register(db.Collector()); err != nil {
			log.Fatalf("Failed to register database metrics: %v", err)
		}

		// Initialize schema (idempotent)
		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}

		history = postgres.NewSearchLogStore(db)
		lock = postgres.NewAdvisoryLock(db)
		historyBackend = domain.BackendPostgres
		log.Println("Using PostgreSQL query history and advisory lock")

	default:
		log.Println("No REDIS_URL or DATABASE_URL set, query history disabled")
	}

	// Runtime configuration
	runtimeConfig := domain.NewRuntimeConfig(historyBackend, historyBackend)
	runtimeServices := runtime.NewServices(runtimeConfig, store, history, lock)
	log.Printf("Runtime config: history_backend=%s, lock_backend=%s",
		runtimeConfig.HistoryBackend,
		runtimeConfig.LockBackend)

	switch cfg.RunMode {
	case config.ModeAPI:
		runAPI(cfg, runtimeServices, logger)

	case config.ModeWorker:
		runWorkerMode(ctx, cfg, runtimeServices, logger)

	case config.ModeAll:
		// Start worker in background
		workerDone := make(chan struct{})
		go func() {
			defer close(workerDone)
			runWorkerMode(ctx, cfg, runtimeServices, logger)
		}()
		// Run API in foreground (blocks)
		runAPI(cfg, runtimeServices, logger)
		// Let an in-flight prune finish and release its lock
		cancel()
		<-workerDone

	default:
		log.Fatalf("Unknown mode: %s (use: api, worker, or all)", cfg.RunMode)
	}
}

func newSearchService(cfg *config.Config, rt *runtime.Services, logger *slog.Logger) driving.SearchService {
	builder, err := query.NewBuilder(cfg.QueryCacheSize, cfg.TitleBoost)
	if err != nil {
		log.Fatalf("Failed to create query builder: %v", err)
	}
	if err := metrics.RegisterQueryCache(prometheus.DefaultRegisterer, builder.CacheStats); err != nil {
		log.Fatalf("Failed to register query cache metrics: %v", err)
	}

	router := query.IndexRouter{News: cfg.NewsIndex, Historic: cfg.HistoricIndex}

	searchService, err := services.NewSearchService(services.SearchServiceConfig{
		Store:    rt.Store(),
		Builder:  builder,
		Router:   &router,
		Pipeline: postprocessors.DefaultPipeline(),
		History:  rt.History(),
		Logger:   logger.With("component", "search"),
	})
	if err != nil {
		log.Fatalf("Failed to create search service: %v", err)
	}
	return searchService
}

func runAPI(cfg *config.Config, rt *runtime.Services, logger *slog.Logger) {
	renderer, err := maprender.NewRenderer(maprender.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to create map renderer: %v", err)
	}

	var historyCheck http.Pinger
	if h := rt.History(); h != nil {
		historyCheck = h
	}

	server := http.NewServer(
		http.Config{
			Host:               cfg.Host,
			Port:               cfg.Port,
			Version:            version,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			Logger:             logger.With("component", "http"),
		},
		newSearchService(cfg, rt, logger),
		renderer,
		rt.StoreCheck(),
		historyCheck,
	)

	log.Printf("API server starting on %s:%d", cfg.Host, cfg.Port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runWorkerMode starts the history retention worker.
// It prunes on HISTORY_PRUNE_SCHEDULE until the context is cancelled.
func runWorkerMode(ctx context.Context, cfg *config.Config, rt *runtime.Services, logger *slog.Logger) {
	if rt.History() == nil {
		log.Println("Worker idle: no query history backend configured")
		<-ctx.Done()
		return
	}

	log.Println("Starting worker mode...")

	w, err := worker.NewWorker(worker.WorkerConfig{
		History:      rt.History(),
		Lock:         rt.Lock(),
		Logger:       logger.With("component", "worker"),
		Schedule:     cfg.HistoryPruneSchedule,
		Retention:    cfg.HistoryRetention,
		LockRequired: cfg.HistoryLockRequired,
	})
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	log.Printf("Worker started, pruning history older than %s on %q", cfg.HistoryRetention, cfg.HistoryPruneSchedule)

	// Wait for context cancellation
	<-ctx.Done()

	// Graceful shutdown
	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}
