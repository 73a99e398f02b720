package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/ronak-creation/storefront/internal/catalog"
)

// CatalogReader is the part of the catalog service the warmup exercises.
type CatalogReader interface {
	List(ctx context.Context, site catalog.Site, p catalog.Params, withCount bool) (catalog.Result, error)
	Trending(ctx context.Context) ([]catalog.Product, error)
}

// CatalogWarmupJob loads the listings every home page visit needs so the
// first visitor after a write does not pay for the database round trips.
type CatalogWarmupJob struct {
	Catalog      CatalogReader
	HomePageSize int
	Logger       *slog.Logger
}

// NewCatalogWarmupJob wires dependencies for the warmup handler.
func NewCatalogWarmupJob(c CatalogReader, homePageSize int, logger *slog.Logger) *CatalogWarmupJob {
	return &CatalogWarmupJob{Catalog: c, HomePageSize: homePageSize, Logger: logger}
}

// Handle processes TaskCatalogWarmup tasks.
func (j *CatalogWarmupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Catalog == nil {
		return errors.New("catalog warmup: handler not configured")
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	home := catalog.DefaultParams()
	if j.HomePageSize > 0 {
		home.Limit = j.HomePageSize
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := j.Catalog.Trending(gctx)
		return err
	})
	g.Go(func() error {
		_, err := j.Catalog.List(gctx, catalog.SiteHome, home, false)
		return err
	})
	g.Go(func() error {
		_, err := j.Catalog.List(gctx, catalog.SiteCatalog, catalog.DefaultParams(), true)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("catalog warmup", slog.Any("error", err))
		return err
	}
	logger.Info("catalog warmup finished", slog.Duration("duration", time.Since(start)))
	return nil
}
