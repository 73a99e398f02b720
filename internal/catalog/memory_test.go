package catalog

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func product(n int, mutate func(*Product)) Product {
	p := Product{
		ID:                  uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n)),
		Heading:             fmt.Sprintf("Lehenga %d", n),
		Price:               1000 * n,
		FabricCategory:      "net",
		WorkCategory:        "sequence",
		AvailableColoursHex: []string{"#FF0000"},
		CreatedAt:           epoch.Add(time.Duration(n) * time.Hour),
	}
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func ids(products []Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		n, _ := strconv.Atoi(p.ID.String()[24:])
		out = append(out, n)
	}
	return out
}

func find(t *testing.T, store Store, raw map[string]string, withCount bool) Result {
	t.Helper()
	p := DefaultParams()
	for k, v := range raw {
		switch k {
		case "priceBucket":
			p.PriceBucket = v
		case "search":
			p.Search = v
		case "sort":
			p.Sort = ParseSort(v)
		}
	}
	q := Compose(p)
	q.WithCount = withCount
	res, err := store.Find(context.Background(), q)
	require.NoError(t, err)
	return res
}

func TestMemoryStoreNeverReturnsHidden(t *testing.T) {
	store := NewMemoryStore(
		product(1, nil),
		product(2, func(p *Product) { p.IsHidden = true; p.Trending = true }),
		product(3, nil),
	)
	res := find(t, store, nil, true)
	assert.Equal(t, []int{3, 1}, ids(res.Products))
	require.NotNil(t, res.Count)
	assert.Equal(t, 2, *res.Count)

	_, err := store.Get(context.Background(), product(2, nil).ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := store.Get(context.Background(), product(1, nil).ID)
	require.NoError(t, err)
	assert.Equal(t, "Lehenga 1", got.Heading)
}

func TestMemoryStoreFilterSemantics(t *testing.T) {
	store := NewMemoryStore(
		product(1, func(p *Product) { p.FabricCategory = "satin"; p.AvailableColoursHex = []string{"#FF0000", "#00FF00"} }),
		product(2, func(p *Product) { p.FabricCategory = "velvet"; p.AvailableColoursHex = []string{"#FF0000"} }),
		product(3, func(p *Product) { p.FabricCategory = "net"; p.AvailableColoursHex = []string{"#00FF00", "#FF0000"} }),
		product(4, func(p *Product) { p.FabricCategory = "satin"; p.WorkCategory = "Gliter-dori" }),
	)

	p := DefaultParams()
	p.Sort = SortPriceAsc
	p.Fabrics = []string{"satin", "net"}
	res, err := store.Find(context.Background(), Compose(p))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, ids(res.Products), "fabrics are OR-ed")

	p.Colors = []string{"#FF0000", "#00FF00"}
	res, err = store.Find(context.Background(), Compose(p))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids(res.Products), "colours are AND-ed")

	p.Works = []string{"Gliter-dori"}
	res, err = store.Find(context.Background(), Compose(p))
	require.NoError(t, err)
	assert.Empty(t, res.Products, "groups are AND-ed")
	assert.NotNil(t, res.Products)
}

func TestMemoryStorePriceBucketIsInclusive(t *testing.T) {
	store := NewMemoryStore(product(1, nil), product(2, nil), product(3, nil), product(4, nil))
	res := find(t, store, map[string]string{"priceBucket": "2000-3000", "sort": "price_asc"}, false)
	assert.Equal(t, []int{2, 3}, ids(res.Products))
	assert.Nil(t, res.Count)
}

func TestMemoryStoreSearchIsCaseInsensitiveAndLiteral(t *testing.T) {
	store := NewMemoryStore(
		product(1, func(p *Product) { p.Heading = "Red Bridal Lehenga" }),
		product(2, func(p *Product) { p.Heading = "50% off Saree" }),
		product(3, func(p *Product) { p.Heading = "500 thread" }),
	)
	res := find(t, store, map[string]string{"search": "bridal"}, false)
	assert.Equal(t, []int{1}, ids(res.Products))

	res = find(t, store, map[string]string{"search": "50%"}, false)
	assert.Equal(t, []int{2}, ids(res.Products))
}

func TestMemoryStoreOrderingIsDeterministic(t *testing.T) {
	same := func(p *Product) { p.Price = 500; p.CreatedAt = epoch }
	store := NewMemoryStore(product(3, same), product(1, same), product(2, same))

	for _, sort := range []string{"price_asc", "price_desc", "newest", "trending"} {
		res := find(t, store, map[string]string{"sort": sort}, false)
		assert.Equal(t, []int{1, 2, 3}, ids(res.Products), sort)
	}
}

func TestMemoryStoreTrendingSort(t *testing.T) {
	store := NewMemoryStore(
		product(1, func(p *Product) { p.Trending = true }),
		product(2, nil),
		product(3, func(p *Product) { p.Trending = true }),
		product(4, nil),
	)
	res := find(t, store, nil, false)
	assert.Equal(t, []int{3, 1, 4, 2}, ids(res.Products))
}

func TestMemoryStoreWindowAndCount(t *testing.T) {
	store := NewMemoryStore()
	for i := 1; i <= 45; i++ {
		store.Put(product(i, nil))
	}
	p := DefaultParams()
	p.Sort = SortPriceAsc
	p.Page = 3
	q := Compose(p)
	q.WithCount = true

	res, err := store.Find(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []int{41, 42, 43, 44, 45}, ids(res.Products))
	require.NotNil(t, res.Count)
	assert.Equal(t, 45, *res.Count)

	p.Page = 4
	res, err = store.Find(context.Background(), Compose(p))
	require.NoError(t, err)
	assert.Empty(t, res.Products)
}

func TestMemoryStoreWindowToleratesOutOfRangeOffsets(t *testing.T) {
	store := NewMemoryStore(product(1, nil), product(2, nil), product(3, nil))
	q := Compose(DefaultParams())

	q.Offset, q.Limit = -5, 2
	res, err := store.Find(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, res.Products, 2)

	q.Offset, q.Limit = 1, math.MaxInt
	res, err = store.Find(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, res.Products, 2)

	q.Offset = math.MaxInt
	res, err = store.Find(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, res.Products)
}

func TestMemoryStorePutReplaces(t *testing.T) {
	store := NewMemoryStore(product(1, nil))
	store.Put(product(1, func(p *Product) { p.Heading = "Renamed" }))
	res := find(t, store, nil, true)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Renamed", res.Products[0].Heading)
}

func TestMemoryStoreHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore(product(1, nil)).Find(ctx, Compose(DefaultParams()))
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.ErrorIs(t, err, context.Canceled)
}
