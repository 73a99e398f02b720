// Package banners manages the home page carousel.
package banners

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronak-creation/storefront/internal/platform/db"
	"github.com/ronak-creation/storefront/internal/shared"
)

// Banner is one carousel slide.
type Banner struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ImageURL      string    `json:"image_url"`
	ImagePublicID string    `json:"-"`
	IsActive      bool      `json:"is_active"`
	SortOrder     int       `json:"sort_order"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public is the projection served to visitors.
type Public struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"image_url"`
}

// Public projects b onto the visitor fields.
func (b Banner) Public() Public {
	return Public{ID: b.ID, Name: b.Name, ImageURL: b.ImageURL}
}

// Repository persists banners.
type Repository interface {
	List(ctx context.Context) ([]Banner, error)
	Active(ctx context.Context, limit int) ([]Banner, error)
	Create(ctx context.Context, b Banner) (Banner, error)
	Toggle(ctx context.Context, id uuid.UUID) (Banner, error)
	Delete(ctx context.Context, id uuid.UUID) (Banner, error)
	Reorder(ctx context.Context, ids []uuid.UUID) error
}

const bannerColumns = `id, name, image_url, image_public_id, is_active, sort_order, created_at`

// PGRepository stores banners in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

func scanBanner(row pgx.Row) (Banner, error) {
	var (
		b             Banner
		name, imageID *string
	)
	if err := row.Scan(&b.ID, &name, &b.ImageURL, &imageID, &b.IsActive, &b.SortOrder, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Banner{}, shared.ErrNotFound
		}
		return Banner{}, err
	}
	if name != nil {
		b.Name = *name
	}
	if imageID != nil {
		b.ImagePublicID = *imageID
	}
	return b, nil
}

func (r *PGRepository) query(ctx context.Context, sql string, args ...any) ([]Banner, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Banner, 0)
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// List returns every banner in display order.
func (r *PGRepository) List(ctx context.Context) ([]Banner, error) {
	return r.query(ctx, `SELECT `+bannerColumns+` FROM banners ORDER BY sort_order ASC, created_at ASC`)
}

// Active returns up to limit active banners in display order.
func (r *PGRepository) Active(ctx context.Context, limit int) ([]Banner, error) {
	return r.query(ctx, `SELECT `+bannerColumns+` FROM banners
		WHERE is_active = true ORDER BY sort_order ASC, created_at ASC LIMIT $1`, limit)
}

// Create inserts b after the last banner. The table lock keeps concurrent
// creates from sharing a position.
func (r *PGRepository) Create(ctx context.Context, b Banner) (Banner, error) {
	var created Banner
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE banners IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}
		var next int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM banners`).Scan(&next); err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `INSERT INTO banners (id, name, image_url, image_public_id, is_active, sort_order)
			VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6)
			RETURNING `+bannerColumns,
			b.ID, b.Name, b.ImageURL, b.ImagePublicID, b.IsActive, next)
		var err error
		created, err = scanBanner(row)
		return err
	})
	return created, err
}

// Toggle flips is_active and returns the updated banner.
func (r *PGRepository) Toggle(ctx context.Context, id uuid.UUID) (Banner, error) {
	row := r.pool.QueryRow(ctx, `UPDATE banners SET is_active = NOT is_active WHERE id = $1 RETURNING `+bannerColumns, id)
	return scanBanner(row)
}

// Delete removes a banner and returns what was removed.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) (Banner, error) {
	row := r.pool.QueryRow(ctx, `DELETE FROM banners WHERE id = $1 RETURNING `+bannerColumns, id)
	return scanBanner(row)
}

// Reorder assigns sort_order 1..n following ids, in one transaction. Unknown
// ids fail the whole operation.
func (r *PGRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, id := range ids {
			batch.Queue(`UPDATE banners SET sort_order = $1 WHERE id = $2`, i+1, id)
		}
		results := tx.SendBatch(ctx, batch)
		for _, id := range ids {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return err
			}
			if tag.RowsAffected() == 0 {
				_ = results.Close()
				return fmt.Errorf("banner %s: %w", id, shared.ErrNotFound)
			}
		}
		return results.Close()
	})
}
