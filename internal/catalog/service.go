package catalog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ronak-creation/storefront/internal/platform/cache"
)

// Site names the caller of a listing for metrics.
type Site string

const (
	SiteHome     Site = "home"
	SiteTrending Site = "trending"
	SiteCatalog  Site = "catalog"
	SiteAPI      Site = "api"
)

// TrendingStripSize is the number of products shown in the home page strip.
const TrendingStripSize = 12

// Recorder receives one observation per listing.
type Recorder interface {
	RecordCatalogQuery(site, outcome string)
}

// Service answers listings through the query composer, caching results in
// redis. Writers invalidate through Invalidate.
type Service struct {
	store    Store
	cache    *cache.Versioned
	recorder Recorder
	logger   *slog.Logger
}

// NewService wires a Service. cache and recorder may be nil.
func NewService(store Store, c *cache.Versioned, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: c, recorder: recorder, logger: logger}
}

// List composes params into a query and runs it. withCount requests the
// total number of matches.
func (s *Service) List(ctx context.Context, site Site, p Params, withCount bool) (Result, error) {
	q := Compose(p)
	q.WithCount = withCount
	return s.find(ctx, site, q)
}

// Trending returns the newest trending products for the home page strip.
func (s *Service) Trending(ctx context.Context) ([]Product, error) {
	p := DefaultParams()
	p.TrendingOnly = true
	p.Sort = SortNewest
	p.Limit = TrendingStripSize
	res, err := s.find(ctx, SiteTrending, Compose(p))
	if err != nil {
		return nil, err
	}
	return res.Products, nil
}

// Get returns a visible product.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	var product Product
	key, err := s.cache.BuildKey(ctx, "product", id.String())
	if err != nil {
		s.logger.Warn("catalog cache key", slog.Any("error", err))
		return s.store.Get(ctx, id)
	}
	_, err = s.cache.FetchJSON(ctx, key, &product, func(ctx context.Context) (any, error) {
		return s.store.Get(ctx, id)
	})
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

// Invalidate drops every cached listing and product.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) find(ctx context.Context, site Site, q Query) (Result, error) {
	var res Result
	outcome := cache.OutcomeBypass
	key, err := s.cache.BuildKey(ctx, "query", q.Key())
	if err != nil {
		s.logger.Warn("catalog cache key", slog.Any("error", err))
		res, err = s.store.Find(ctx, q)
	} else {
		outcome, err = s.cache.FetchJSON(ctx, key, &res, func(ctx context.Context) (any, error) {
			return s.store.Find(ctx, q)
		})
	}
	if s.recorder != nil {
		o := string(outcome)
		if err != nil {
			o = "error"
		}
		s.recorder.RecordCatalogQuery(string(site), o)
	}
	if err != nil {
		return Result{}, err
	}
	if res.Products == nil {
		res.Products = []Product{}
	}
	return res, nil
}
