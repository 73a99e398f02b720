package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/media"
	"github.com/ronak-creation/storefront/internal/shared"
)

// PageSize is the number of rows on one admin listing page.
const PageSize = 20

// Invalidator drops cached storefront reads after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Page is one page of the admin product table.
type Page struct {
	Products   []catalog.Product
	Search     string
	Pagination shared.Pagination
}

// Service implements admin product use cases.
type Service struct {
	repo        Repository
	media       media.Store
	cleaner     media.Cleaner
	invalidator Invalidator
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewService wires a Service. invalidator and cleaner may be nil.
func NewService(repo Repository, store media.Store, cleaner media.Cleaner, invalidator Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		media:       store,
		cleaner:     cleaner,
		invalidator: invalidator,
		validate:    newValidator(),
		logger:      logger,
	}
}

// List returns a page of products, hidden ones included.
func (s *Service) List(ctx context.Context, search string, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	search = strings.TrimSpace(search)
	items, total, err := s.repo.List(ctx, ListFilter{Search: search, Page: page, Limit: PageSize})
	if err != nil {
		return Page{}, fmt.Errorf("products: list: %w", err)
	}
	return Page{
		Products:   items,
		Search:     search,
		Pagination: shared.NewPagination(page, PageSize, total),
	}, nil
}

// Get loads a product for editing.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	return s.repo.Get(ctx, id)
}

// Counts returns dashboard totals.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return s.repo.Counts(ctx)
}

// Validate checks in against the product rules. Headings are checked after
// trimming.
func (s *Service) Validate(in Input) error {
	in.Heading = strings.TrimSpace(in.Heading)
	return shared.ValidateStruct(s.validate, in)
}

// Create validates in, uploads the image and stores the product.
func (s *Service) Create(ctx context.Context, in Input, img Image) (catalog.Product, error) {
	if err := s.Validate(in); err != nil {
		return catalog.Product{}, err
	}
	if img.Reader == nil {
		return catalog.Product{}, shared.FieldErrors{"Image": "is required"}
	}
	asset, err := s.media.Upload(ctx, img.Reader, img.Filename, media.FolderProducts)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("products: upload: %w", err)
	}

	p := apply(catalog.Product{ID: uuid.New()}, in)
	p.ImageURL = asset.URL
	p.ImagePublicID = asset.PublicID
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		s.cleanup(ctx, asset.PublicID)
		return catalog.Product{}, fmt.Errorf("products: create: %w", err)
	}
	s.invalidate(ctx)
	return created, nil
}

// Update rewrites a product. A new image replaces the old one, which is
// cleaned up once the row is saved.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, img Image) (catalog.Product, error) {
	if err := s.Validate(in); err != nil {
		return catalog.Product{}, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return catalog.Product{}, err
	}

	next := apply(current, in)
	replaced := ""
	if img.Reader != nil {
		asset, err := s.media.Upload(ctx, img.Reader, img.Filename, media.FolderProducts)
		if err != nil {
			return catalog.Product{}, fmt.Errorf("products: upload: %w", err)
		}
		replaced = current.ImagePublicID
		next.ImageURL = asset.URL
		next.ImagePublicID = asset.PublicID
	}

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		if img.Reader != nil {
			s.cleanup(ctx, next.ImagePublicID)
		}
		return catalog.Product{}, fmt.Errorf("products: update: %w", err)
	}
	s.cleanup(ctx, replaced)
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a product and its image.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.cleanup(ctx, removed.ImagePublicID)
	s.invalidate(ctx)
	return nil
}

// ToggleHidden hides a visible product or shows a hidden one.
func (s *Service) ToggleHidden(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	p, err := s.repo.ToggleHidden(ctx, id)
	if err != nil {
		return catalog.Product{}, err
	}
	s.invalidate(ctx)
	return p, nil
}

func apply(p catalog.Product, in Input) catalog.Product {
	p.Heading = strings.TrimSpace(in.Heading)
	p.Price = in.Price
	p.Discount = in.Discount
	p.FinalPrice = in.FinalPrice
	p.FabricCategory = in.FabricCategory
	p.WorkCategory = in.WorkCategory
	p.Measurement = in.Measurement
	p.Fabric = in.Fabric
	p.Work = in.Work
	p.Colour = in.Colour
	p.StitchType = in.StitchType
	p.CareGuide = in.CareGuide
	p.NoOfPieces = in.NoOfPieces
	p.AvailableColoursHex = in.AvailableColoursHex
	p.Trending = in.Trending
	p.IsHidden = in.IsHidden
	return p
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate catalog cache", slog.Any("error", err))
	}
}

func (s *Service) cleanup(ctx context.Context, publicID string) {
	if publicID == "" || s.cleaner == nil {
		return
	}
	if err := s.cleaner.ScheduleCleanup(ctx, publicID); err != nil {
		s.logger.Warn("schedule product image cleanup", slog.String("public_id", publicID), slog.Any("error", err))
	}
}

// IsNotFound reports whether err means the product does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
