package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Result is one window of a listing. Count is set only when the query asked
// for it and holds the total number of matches ignoring the window.
type Result struct {
	Products []Product `json:"products"`
	Count    *int      `json:"count,omitempty"`
}

// Store answers composed queries.
type Store interface {
	Find(ctx context.Context, q Query) (Result, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
}

// ProductColumns lists the products columns in ScanProduct order.
const ProductColumns = `id, heading, price, discount, final_price, fabric_category, work_category,
	measurement, fabric, work, colour, stitch_type, care_guide, no_of_pieces,
	available_colours_hex, trending, is_hidden, image_url, image_public_id, created_at, updated_at`

// ScanProduct reads a row selected with ProductColumns.
func ScanProduct(row pgx.Row) (Product, error) {
	var (
		p                                               Product
		measurement, fabric, work, colour, stitch, care *string
		imageURL, imagePublicID                         *string
	)
	err := row.Scan(
		&p.ID, &p.Heading, &p.Price, &p.Discount, &p.FinalPrice, &p.FabricCategory, &p.WorkCategory,
		&measurement, &fabric, &work, &colour, &stitch, &care, &p.NoOfPieces,
		&p.AvailableColoursHex, &p.Trending, &p.IsHidden, &imageURL, &imagePublicID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Product{}, err
	}
	p.Measurement = deref(measurement)
	p.Fabric = deref(fabric)
	p.Work = deref(work)
	p.Colour = deref(colour)
	p.StitchType = deref(stitch)
	p.CareGuide = deref(care)
	p.ImageURL = deref(imageURL)
	p.ImagePublicID = deref(imagePublicID)
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PGRepository implements Store on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed Store.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Store = (*PGRepository)(nil)

// Find runs the listing query and, when requested, the count query inside
// one read-only snapshot so both describe the same data.
func (r *PGRepository) Find(ctx context.Context, q Query) (Result, error) {
	where, args, err := buildWhere(q.Filters)
	if err != nil {
		return Result{}, &StoreError{Op: "find", Err: err}
	}
	listSQL, listArgs, err := buildList(where, args, q)
	if err != nil {
		return Result{}, &StoreError{Op: "find", Err: err}
	}

	var res Result
	run := func(db pgxQuerier) error {
		if q.WithCount {
			var total int
			if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
				return err
			}
			res.Count = &total
		}
		rows, err := db.Query(ctx, listSQL, listArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		res.Products = make([]Product, 0, q.Limit)
		for rows.Next() {
			p, err := ScanProduct(rows)
			if err != nil {
				return err
			}
			res.Products = append(res.Products, p)
		}
		return rows.Err()
	}

	if !q.WithCount {
		if err := run(r.pool); err != nil {
			return Result{}, &StoreError{Op: "find", Err: err}
		}
		return res, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return Result{}, &StoreError{Op: "find", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := run(tx); err != nil {
		return Result{}, &StoreError{Op: "find", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, &StoreError{Op: "find", Err: err}
	}
	return res, nil
}

// Get loads a visible product by id.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+ProductColumns+" FROM products WHERE id = $1 AND is_hidden = false", id)
	p, err := ScanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, &StoreError{Op: "get", Err: err}
	}
	return p, nil
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var columns = map[Field]string{
	FieldID:             "id",
	FieldHeading:        "heading",
	FieldPrice:          "price",
	FieldFabricCategory: "fabric_category",
	FieldWorkCategory:   "work_category",
	FieldColoursHex:     "available_colours_hex",
	FieldTrending:       "trending",
	FieldHidden:         "is_hidden",
	FieldCreatedAt:      "created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns an ILIKE pattern matching text literally anywhere
// in a value.
func ContainsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

// buildWhere renders filters as a WHERE clause with positional arguments.
func buildWhere(filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	for _, f := range filters {
		var clause string
		switch f := f.(type) {
		case RangeFilter:
			col, err := column(f.Field)
			if err != nil {
				return "", nil, err
			}
			clause = fmt.Sprintf("%s >= %s AND %s <= %s", col, next(f.Min), col, next(f.Max))
		case SetFilter:
			col, err := column(f.Field)
			if err != nil {
				return "", nil, err
			}
			clause = fmt.Sprintf("%s = ANY(%s)", col, next(f.Values))
		case SubstringFilter:
			col, err := column(f.Field)
			if err != nil {
				return "", nil, err
			}
			clause = fmt.Sprintf("%s ILIKE %s", col, next(ContainsPattern(f.Text)))
		case ContainsAllFilter:
			col, err := column(f.Field)
			if err != nil {
				return "", nil, err
			}
			clause = fmt.Sprintf("%s @> %s", col, next(f.Values))
		case BoolFilter:
			col, err := column(f.Field)
			if err != nil {
				return "", nil, err
			}
			clause = fmt.Sprintf("%s = %s", col, next(f.Value))
		default:
			return "", nil, fmt.Errorf("unsupported filter %T", f)
		}
		clauses = append(clauses, clause)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// buildList appends ordering and the window to the WHERE clause.
func buildList(where string, whereArgs []any, q Query) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(ProductColumns)
	b.WriteString(" FROM products")
	b.WriteString(where)

	if len(q.Orders) > 0 {
		parts := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			col, err := column(o.Field)
			if err != nil {
				return "", nil, err
			}
			if o.Desc {
				col += " DESC"
			} else {
				col += " ASC"
			}
			parts = append(parts, col)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	args := append([]any(nil), whereArgs...)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	args = append(args, q.Offset)
	b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	return b.String(), args, nil
}

func column(f Field) (string, error) {
	col, ok := columns[f]
	if !ok {
		return "", fmt.Errorf("unknown field %q", f)
	}
	return col, nil
}
