package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/extractor"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/consumer"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-core/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/rpc"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/synapse"
)

var startupRetry = resilience.RetryConfig{
	MaxAttempts:  5,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     5 * time.Second,
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"source", cfg.Ingestion.Source,
		"version", synapse.Version,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	engine := indexer.NewEngine()
	ext, err := buildExtractor(cfg.Extractor)
	if err != nil {
		return err
	}
	pipe := pipeline.New(engine,
		pipeline.WithMetrics(m),
		pipeline.WithProgressEvery(cfg.Ingestion.ProgressEvery),
	)

	checker := health.NewChecker()
	checker.Register("index", health.IndexCheck(engine.Count))

	var pg *postgres.Client
	if cfg.Ingestion.Source == config.SourcePostgres {
		err := resilience.Retry(ctx, "postgres connect", startupRetry, func() error {
			var err error
			pg, err = postgres.New(ctx, cfg.Postgres)
			return err
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pg.Close()
		checker.Register("postgres", health.PingCheck(pg.Ping))
	}

	if src := buildSource(cfg.Ingestion, pg); src != nil {
		result, err := pipe.Load(ctx, src)
		if err != nil {
			return fmt.Errorf("initial load: %w", err)
		}
		slog.Info("initial load finished",
			"loaded", result.Loaded,
			"skipped", result.Skipped,
			"documents", engine.Count(),
		)
	}

	queryCache, redisClient := buildCache(ctx, cfg.Redis, m)
	if redisClient != nil {
		defer redisClient.Close()
		checker.Register("redis", health.PingCheck(redisClient.Ping))
	}

	var requests atomic.Int64
	searchHandler := handler.New(engine, ext, cfg.Search, handler.Options{
		Cache:    queryCache,
		Metrics:  m,
		Requests: &requests,
		Version:  synapse.Version,
	})
	documentHandler := ingesthandler.New(pipe, engine)

	mux := http.NewServeMux()
	searchHandler.Register(mux)
	documentHandler.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Metrics(m, "/search", "/extract", "/numbers", "/analyze", "/documents", "/stats", "/terms", "/health"),
		middleware.CountRequests(&requests),
	}
	var limiter *ratelimit.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = ratelimit.New(cfg.Server.RateLimit, time.Minute)
		chain = append(chain, middleware.RateLimit(limiter))
		slog.Info("rate limiting enabled", "requests_per_minute", cfg.Server.RateLimit)
	}
	chain = append(chain, middleware.Timeout(cfg.Server.RequestTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, chain...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	if limiter != nil {
		g.Go(func() error {
			limiter.Run(gctx, 5*time.Minute)
			return nil
		})
	}

	if cfg.Server.RPCPort > 0 {
		rpcServer := rpc.NewServer()
		synapse.Register(rpcServer, synapse.New(engine, ext))
		rpcAddr := fmt.Sprintf(":%d", cfg.Server.RPCPort)
		slog.Info("rpc methods registered", "methods", rpcServer.Methods())
		g.Go(func() error {
			if err := rpcServer.ListenAndServe(gctx, rpcAddr); err != nil {
				return fmt.Errorf("rpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, registry)
		g.Go(func() error {
			slog.Info("metrics server listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	if cfg.Ingestion.ConsumeKafka {
		kafkaConsumer := kafka.NewConsumer(
			cfg.Kafka,
			cfg.Kafka.Topics.DocumentIngest,
			consumer.HandleMessage(pipe, m),
		)
		indexConsumer := consumer.New(kafkaConsumer)
		slog.Info("consuming ingest events",
			"topic", cfg.Kafka.Topics.DocumentIngest,
			"group", cfg.Kafka.ConsumerGroup,
		)
		g.Go(func() error {
			return indexConsumer.Start(gctx)
		})
	}

	return g.Wait()
}

// buildExtractor appends the configured rules to the built-in ones.
func buildExtractor(cfg config.ExtractorConfig) (*extractor.Extractor, error) {
	extra := make([]extractor.Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		rule, err := extractor.Compile(rc.Name, rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("extractor rule %q: %w", rc.Name, err)
		}
		extra = append(extra, rule)
	}
	ext := extractor.Default(extra...)
	ext.SetBatchWorkers(cfg.BatchWorkers)
	slog.Info("extractor ready", "rules", ext.Rules(), "batch_workers", cfg.BatchWorkers)
	return ext, nil
}

// buildSource returns nil when the index should start empty.
func buildSource(cfg config.IngestionConfig, pg *postgres.Client) source.Source {
	switch cfg.Source {
	case config.SourceSample:
		return source.Sample()
	case config.SourceJSON:
		return source.NewJSONFile(cfg.Path)
	case config.SourcePostgres:
		return source.NewPostgres(pg.DB)
	default:
		return nil
	}
}

// buildCache connects to Redis when enabled. An unreachable Redis disables
// caching instead of failing startup.
func buildCache(ctx context.Context, cfg config.RedisConfig, m *metrics.Metrics) (*cache.QueryCache, *pkgredis.Client) {
	if !cfg.Enabled {
		return nil, nil
	}
	var client *pkgredis.Client
	err := resilience.Retry(ctx, "redis connect", startupRetry, func() error {
		var err error
		client, err = pkgredis.NewClient(ctx, cfg)
		return err
	})
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
		return nil, nil
	}

	breaker := resilience.NewCircuitBreaker("query-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		IsFailure:        cache.IsFailure,
		OnStateChange: func(name string, _, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	slog.Info("search cache enabled", "addr", cfg.Addr, "ttl", cfg.CacheTTL)
	return cache.New(client, cfg.CacheTTL, breaker, m), client
}
