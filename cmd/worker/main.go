package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/ronak-creation/storefront/internal/app"
	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/media"
	"github.com/ronak-creation/storefront/internal/observability"
	"github.com/ronak-creation/storefront/internal/platform/cache"
	"github.com/ronak-creation/storefront/internal/platform/db"
	"github.com/ronak-creation/storefront/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var store media.Store
	if cfg.UsesCloudinary() {
		store, err = media.NewCloudinaryStore(cfg.CloudinaryURL)
	} else {
		store, err = media.NewLocalStore(cfg.UploadDir, "/uploads")
	}
	if err != nil {
		logger.Error("init media store", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	catalogCache := cache.NewVersioned(redisClient, "catalog", cfg.CatalogCacheTTL)
	catalogService := catalog.NewService(catalog.NewRepository(pool), catalogCache, metrics, logger)

	cleanupJob := jobs.NewMediaCleanupJob(store, logger, metrics.Jobs())
	warmupJob := jobs.NewCatalogWarmupJob(catalogService, cfg.HomePageSize, logger)

	redisOpts, err := jobs.RedisConnOpt(cfg.RedisAddr)
	if err != nil {
		logger.Error("parse redis address", slog.Any("error", err))
		os.Exit(1)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Routes: []jobs.Route{
			{Type: jobs.TaskMediaCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskCatalogWarmup, Handler: warmupJob.Handle},
		},
		Periodic: []jobs.Periodic{
			{Cron: "*/15 * * * *", Task: jobs.NewCatalogWarmupTask()},
		},
		Middleware: []asynq.MiddlewareFunc{metrics.Jobs().Middleware},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler()}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			_ = metricsServer.Close()
		}()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
