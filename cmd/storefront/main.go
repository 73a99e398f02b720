package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ronak-creation/storefront/cmd/storefront/cli"
	"github.com/ronak-creation/storefront/internal/app"
	"github.com/ronak-creation/storefront/internal/auth"
	"github.com/ronak-creation/storefront/internal/banners"
	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/dashboard"
	"github.com/ronak-creation/storefront/internal/media"
	"github.com/ronak-creation/storefront/internal/observability"
	"github.com/ronak-creation/storefront/internal/platform/cache"
	"github.com/ronak-creation/storefront/internal/platform/db"
	"github.com/ronak-creation/storefront/internal/products"
	"github.com/ronak-creation/storefront/internal/settings"
	"github.com/ronak-creation/storefront/internal/shared"
	"github.com/ronak-creation/storefront/internal/storefront"
	"github.com/ronak-creation/storefront/internal/view"
	"github.com/ronak-creation/storefront/jobs"
)

// catalogInvalidator drops cached listings after an admin write and asks the
// worker to refill them.
type catalogInvalidator struct {
	catalog *catalog.Service
	jobs    *jobs.Client
	logger  *slog.Logger
}

func (c catalogInvalidator) Invalidate(ctx context.Context) error {
	if err := c.catalog.Invalidate(ctx); err != nil {
		return err
	}
	if c.jobs == nil {
		return nil
	}
	if _, err := c.jobs.EnqueueCatalogWarmup(ctx); err != nil {
		c.logger.Warn("enqueue catalog warmup", slog.Any("error", err))
	}
	return nil
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if len(os.Args) > 1 {
		os.Exit(cli.Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
	}

	if err := serve(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		return err
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "storefront_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	metrics := observability.NewMetrics()

	var (
		store     media.Store
		uploadDir string
	)
	if cfg.UsesCloudinary() {
		store, err = media.NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			return fmt.Errorf("init cloudinary: %w", err)
		}
	} else {
		local, err := media.NewLocalStore(cfg.UploadDir, "/uploads")
		if err != nil {
			return fmt.Errorf("init upload dir: %w", err)
		}
		store, uploadDir = local, local.Dir()
		logger.Info("storing uploads on disk", slog.String("dir", uploadDir))
	}

	redisOpts, err := jobs.RedisConnOpt(cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("parse redis address: %w", err)
	}
	var (
		jobsClient *jobs.Client
		cleaner    media.Cleaner = media.InlineCleaner{Store: store, Logger: logger}
		jobHandler *jobs.Handler
	)
	if cfg.JobsEnabled {
		jobsClient, err = jobs.NewClient(redisOpts)
		if err != nil {
			return fmt.Errorf("init jobs client: %w", err)
		}
		defer func() {
			if err := jobsClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		cleaner = jobsClient

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	catalogCache := cache.NewVersioned(redisClient, "catalog", cfg.CatalogCacheTTL)
	catalogService := catalog.NewService(catalog.NewRepository(dbpool), catalogCache, metrics, logger)
	invalidator := catalogInvalidator{catalog: catalogService, jobs: jobsClient, logger: logger}

	settingsService := settings.NewService(settings.NewRepository(dbpool))
	bannerService := banners.NewService(banners.NewRepository(dbpool), settingsService, store, cleaner, logger)
	productService := products.NewService(products.NewRepository(dbpool), store, cleaner, invalidator, logger)
	dashboardService := dashboard.NewService(productService, bannerService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,
		StorefrontHandler: storefront.NewHandler(logger, catalogService, bannerService, templates, csrfManager, storefront.Config{
			WhatsAppNumber: cfg.WhatsAppNumber,
			HomePageSize:   cfg.HomePageSize,
		}),
		CatalogAPI:       catalog.NewAPIHandler(logger, catalogService),
		AuthHandler:      auth.NewHandler(logger, auth.NewService(cfg.AdminPasswordHash), templates, sessionManager, csrfManager),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService, templates, csrfManager),
		ProductsHandler:  products.NewHandler(logger, productService, templates, csrfManager, cfg.UploadMaxBytes),
		BannersHandler:   banners.NewHandler(logger, bannerService, templates, csrfManager, cfg.UploadMaxBytes),
		SettingsHandler:  settings.NewHandler(logger, settingsService, templates, csrfManager),
		JobHandler:       jobHandler,
		UploadDir:        uploadDir,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
