// Package settings holds the singleton storefront settings row.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronak-creation/storefront/internal/shared"
)

// DefaultActiveBannerCount applies until an admin saves settings.
const DefaultActiveBannerCount = 3

// Settings are the tunables editable from the admin area.
type Settings struct {
	ActiveBannerCount int       `json:"active_banner_count" validate:"gt=0,lte=50"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Defaults returns the settings used when none are stored.
func Defaults() Settings {
	return Settings{ActiveBannerCount: DefaultActiveBannerCount}
}

// Repository persists the settings row.
type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// PGRepository stores settings in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Get loads the row or returns shared.ErrNotFound.
func (r *PGRepository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `SELECT active_banner_count, updated_at FROM settings WHERE id = 1`).
		Scan(&s.ActiveBannerCount, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, shared.ErrNotFound
		}
		return Settings{}, err
	}
	return s, nil
}

// Save writes the singleton row, creating it on first use.
func (r *PGRepository) Save(ctx context.Context, s Settings) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO settings (id, active_banner_count, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET active_banner_count = EXCLUDED.active_banner_count, updated_at = NOW()`,
		s.ActiveBannerCount)
	return err
}

var _ Repository = (*PGRepository)(nil)

// Service reads and updates settings.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Get returns the stored settings or the defaults when none exist.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	st, err := s.repo.Get(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	if st.ActiveBannerCount <= 0 {
		st.ActiveBannerCount = DefaultActiveBannerCount
	}
	return st, nil
}

// Update validates and stores new settings.
func (s *Service) Update(ctx context.Context, st Settings) error {
	if err := shared.ValidateStruct(s.validate, st); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, st); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}
