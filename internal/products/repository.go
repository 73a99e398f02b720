package products

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/platform/db"
	"github.com/ronak-creation/storefront/internal/shared"
)

// ListFilter narrows the admin product table.
type ListFilter struct {
	Search string
	Page   int
	Limit  int
}

// Counts summarises the catalog for the dashboard.
type Counts struct {
	Total    int
	Trending int
	Hidden   int
}

// Repository persists products for the admin area. Unlike catalog.Store it
// sees hidden products.
type Repository interface {
	List(ctx context.Context, f ListFilter) ([]catalog.Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) (catalog.Product, error)
	Update(ctx context.Context, p catalog.Product) (catalog.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	ToggleHidden(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	Counts(ctx context.Context) (Counts, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// checkFields maps table constraints to the form fields they guard, so a row
// the database rejects is reported next to the offending input.
var checkFields = map[string]string{
	"products_price_check":        "Price",
	"products_discount_check":     "Discount",
	"products_final_price_check":  "FinalPrice",
	"products_no_of_pieces_check": "NoOfPieces",
}

func scan(row pgx.Row) (catalog.Product, error) {
	p, err := catalog.ScanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, shared.ErrNotFound
	}
	if name, ok := db.Constraint(err); ok {
		if field, known := checkFields[name]; known {
			return catalog.Product{}, shared.FieldErrors{field: "Value is out of range"}
		}
	}
	return p, err
}

// List returns one page of products, newest first, plus the total match count.
func (r *PGRepository) List(ctx context.Context, f ListFilter) ([]catalog.Product, int, error) {
	where := ""
	args := []any{}
	if f.Search != "" {
		where = ` WHERE heading ILIKE $1`
		args = append(args, catalog.ContainsPattern(f.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := f.Limit, (f.Page-1)*f.Limit
	if offset < 0 {
		offset = 0
	}
	listArgs := append(append([]any{}, args...), limit, offset)
	n := len(args)
	sql := `SELECT ` + catalog.ProductColumns + ` FROM products` + where +
		` ORDER BY created_at DESC, id ASC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.pool.Query(ctx, sql, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]catalog.Product, 0, limit)
	for rows.Next() {
		p, err := catalog.ScanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Get loads a product regardless of visibility.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+catalog.ProductColumns+` FROM products WHERE id = $1`, id))
}

// Create inserts p and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO products (
			id, heading, price, discount, final_price, fabric_category, work_category,
			measurement, fabric, work, colour, stitch_type, care_guide, no_of_pieces,
			available_colours_hex, trending, is_hidden, image_url, image_public_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), $14,
			$15, $16, $17, NULLIF($18, ''), NULLIF($19, ''))
		RETURNING `+catalog.ProductColumns,
		p.ID, p.Heading, p.Price, p.Discount, p.FinalPrice, p.FabricCategory, p.WorkCategory,
		p.Measurement, p.Fabric, p.Work, p.Colour, p.StitchType, p.CareGuide, p.NoOfPieces,
		colours(p.AvailableColoursHex), p.Trending, p.IsHidden, p.ImageURL, p.ImagePublicID)
	return scan(row)
}

// Update overwrites every editable column of p.
func (r *PGRepository) Update(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	row := r.pool.QueryRow(ctx, `UPDATE products SET
			heading = $2, price = $3, discount = $4, final_price = $5, fabric_category = $6, work_category = $7,
			measurement = NULLIF($8, ''), fabric = NULLIF($9, ''), work = NULLIF($10, ''), colour = NULLIF($11, ''),
			stitch_type = NULLIF($12, ''), care_guide = NULLIF($13, ''), no_of_pieces = $14,
			available_colours_hex = $15, trending = $16, is_hidden = $17,
			image_url = NULLIF($18, ''), image_public_id = NULLIF($19, ''), updated_at = $20
		WHERE id = $1
		RETURNING `+catalog.ProductColumns,
		p.ID, p.Heading, p.Price, p.Discount, p.FinalPrice, p.FabricCategory, p.WorkCategory,
		p.Measurement, p.Fabric, p.Work, p.Colour, p.StitchType, p.CareGuide, p.NoOfPieces,
		colours(p.AvailableColoursHex), p.Trending, p.IsHidden, p.ImageURL, p.ImagePublicID, time.Now())
	return scan(row)
}

// Delete removes a product and returns the removed row.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	return scan(r.pool.QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING `+catalog.ProductColumns, id))
}

// ToggleHidden flips is_hidden in place.
func (r *PGRepository) ToggleHidden(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	return scan(r.pool.QueryRow(ctx, `UPDATE products SET is_hidden = NOT is_hidden, updated_at = NOW()
		WHERE id = $1 RETURNING `+catalog.ProductColumns, id))
}

// Counts aggregates the product table in one pass.
func (r *PGRepository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*),
			COUNT(*) FILTER (WHERE trending AND NOT is_hidden),
			COUNT(*) FILTER (WHERE is_hidden)
		FROM products`).Scan(&c.Total, &c.Trending, &c.Hidden)
	return c, err
}

func colours(c []string) []string {
	if c == nil {
		return []string{}
	}
	return c
}
