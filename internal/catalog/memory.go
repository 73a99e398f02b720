package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore evaluates queries against an in-process product list. It backs
// tests; behaviour matches PGRepository.
type MemoryStore struct {
	mu       sync.RWMutex
	products []Product
}

// NewMemoryStore returns a store seeded with products.
func NewMemoryStore(products ...Product) *MemoryStore {
	s := &MemoryStore{}
	s.products = append(s.products, products...)
	return s
}

// Put inserts or replaces a product.
func (s *MemoryStore) Put(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			return
		}
	}
	s.products = append(s.products, p)
}

// Find implements Store.
func (s *MemoryStore) Find(ctx context.Context, q Query) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &StoreError{Op: "find", Err: err}
	}
	s.mu.RLock()
	matched := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if matchAll(q.Filters, p) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return less(matched[i], matched[j], q.Orders)
	})

	res := Result{Products: window(matched, q.Offset, q.Limit)}
	if q.WithCount {
		total := len(matched)
		res.Count = &total
	}
	return res, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id && !p.IsHidden {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func matchAll(filters []Filter, p Product) bool {
	for _, f := range filters {
		if !f.Match(p) {
			return false
		}
	}
	return true
}

func less(a, b Product, orders []Order) bool {
	for _, o := range orders {
		c := compareField(a, b, o.Field)
		if c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compareField(a, b Product, f Field) int {
	switch f {
	case FieldPrice:
		return a.Price - b.Price
	case FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case FieldTrending:
		return boolRank(a.Trending) - boolRank(b.Trending)
	case FieldID:
		return strings.Compare(a.ID.String(), b.ID.String())
	case FieldHeading:
		return strings.Compare(a.Heading, b.Heading)
	}
	return 0
}

func boolRank(v bool) int {
	if v {
		return 1
	}
	return 0
}

func window(products []Product, offset, limit int) []Product {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(products) {
		return []Product{}
	}
	end := len(products)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return products[offset:end]
}
