package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"github.com/socialchef/lru/internal/api"
	"github.com/socialchef/lru/internal/cache"
	"github.com/socialchef/lru/internal/config"
	"github.com/socialchef/lru/internal/logger"
	"github.com/socialchef/lru/internal/metrics"
	"github.com/socialchef/lru/internal/sentry"
	"github.com/socialchef/lru/internal/telemetry"
	"github.com/socialchef/lru/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	defer sentry.Recover()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger with OTel support
	logger := logger.New(cfg.Env, cfg.ServiceName)
	slog.SetDefault(logger)

	// Initialize telemetry
	if cfg.OtelExporterOTLPEndpoint != "" {
		shutdown, err := telemetry.InitTelemetry(ctx, cfg.ServiceName, cfg.ServiceVersion, cfg.Env, cfg.OtelExporterOTLPEndpoint, cfg.OtelHeaders())
		if err != nil {
			slog.Warn("Failed to init telemetry", "error", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					slog.Warn("Telemetry shutdown failed", "error", err)
				}
			}()
		}
	}

	// Initialize Sentry
	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	}
	if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	// The eviction hook runs outside the cache lock, so it may record metrics.
	var cacheMetrics *metrics.CacheMetrics
	store, err := cache.New(cache.Config{
		Capacity: cfg.Cache.Capacity,
		OnEvict: func(ev cache.Eviction) {
			cacheMetrics.RecordEviction(context.Background(), string(ev.Reason))
		},
	})
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}

	cacheMetrics, err = metrics.NewCacheMetrics(func() int64 { return int64(store.Len()) })
	if err != nil {
		slog.Warn("Failed to init cache metrics", "error", err)
	}

	workerMetrics, err := worker.NewWorkerMetrics()
	if err != nil {
		slog.Warn("Failed to init worker metrics", "error", err)
	}
	sweeper := worker.NewSweeper(store, cfg.Cache.SweepInterval, workerMetrics)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(api.NewServer(cfg, store, cacheMetrics), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting server", "port", cfg.Port, "capacity", cfg.Cache.Capacity)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
