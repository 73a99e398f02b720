package banners

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ronak-creation/storefront/internal/media"
	"github.com/ronak-creation/storefront/internal/settings"
	"github.com/ronak-creation/storefront/internal/shared"
)

// SettingsReader supplies the active banner count.
type SettingsReader interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// CreateInput is the admin banner form.
type CreateInput struct {
	Name     string `validate:"required,max=120"`
	IsActive bool
}

// Image is an uploaded file ready for the media store.
type Image struct {
	Reader   io.Reader
	Filename string
}

// Service implements banner use cases.
type Service struct {
	repo     Repository
	settings SettingsReader
	media    media.Store
	cleaner  media.Cleaner
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService wires a Service.
func NewService(repo Repository, settings SettingsReader, store media.Store, cleaner media.Cleaner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		settings: settings,
		media:    store,
		cleaner:  cleaner,
		validate: validator.New(),
		logger:   logger,
	}
}

// Active returns the banners shown on the home page, limited by settings.
func (s *Service) Active(ctx context.Context) ([]Banner, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Active(ctx, st.ActiveBannerCount)
}

// List returns every banner for the admin area.
func (s *Service) List(ctx context.Context) ([]Banner, error) {
	return s.repo.List(ctx)
}

// Create uploads the image and appends a banner. The upload is rolled back
// when the insert fails.
func (s *Service) Create(ctx context.Context, in CreateInput, img Image) (Banner, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Banner{}, err
	}
	if img.Reader == nil {
		return Banner{}, shared.FieldErrors{"Image": "is required"}
	}
	asset, err := s.media.Upload(ctx, img.Reader, img.Filename, media.FolderBanners)
	if err != nil {
		return Banner{}, fmt.Errorf("banners: upload: %w", err)
	}
	created, err := s.repo.Create(ctx, Banner{
		ID:            uuid.New(),
		Name:          in.Name,
		ImageURL:      asset.URL,
		ImagePublicID: asset.PublicID,
		IsActive:      in.IsActive,
	})
	if err != nil {
		s.cleanup(ctx, asset.PublicID)
		return Banner{}, fmt.Errorf("banners: create: %w", err)
	}
	return created, nil
}

// Toggle flips whether a banner is shown.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID) (Banner, error) {
	return s.repo.Toggle(ctx, id)
}

// Delete removes a banner and schedules its image for deletion.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.cleanup(ctx, removed.ImagePublicID)
	return nil
}

// Reorder sets the display order to follow ids.
func (s *Service) Reorder(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return shared.FieldErrors{"ids": "is required"}
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return shared.FieldErrors{"ids": "contains duplicates"}
		}
		seen[id] = struct{}{}
	}
	return s.repo.Reorder(ctx, ids)
}

func (s *Service) cleanup(ctx context.Context, publicID string) {
	if publicID == "" || s.cleaner == nil {
		return
	}
	if err := s.cleaner.ScheduleCleanup(ctx, publicID); err != nil {
		s.logger.Warn("schedule banner image cleanup", slog.String("public_id", publicID), slog.Any("error", err))
	}
}

// IsNotFound reports whether err means the banner does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
