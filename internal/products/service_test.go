package products_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/media"
	"github.com/ronak-creation/storefront/internal/products"
	"github.com/ronak-creation/storefront/internal/shared"
	_ "github.com/ronak-creation/storefront/testing"
)

type memoryRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]catalog.Product
	updateErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[uuid.UUID]catalog.Product{}}
}

func (m *memoryRepo) List(ctx context.Context, f products.ListFilter) ([]catalog.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []catalog.Product
	for _, p := range m.items {
		if f.Search == "" || strings.Contains(strings.ToLower(p.Heading), strings.ToLower(f.Search)) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memoryRepo) Get(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = time.Now().Add(time.Duration(len(m.items)) * time.Second)
	p.UpdatedAt = p.CreatedAt
	m.items[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return catalog.Product{}, m.updateErr
	}
	if _, ok := m.items[p.ID]; !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	m.items[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	delete(m.items, id)
	return p, nil
}

func (m *memoryRepo) ToggleHidden(ctx context.Context, id uuid.UUID) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return catalog.Product{}, shared.ErrNotFound
	}
	p.IsHidden = !p.IsHidden
	m.items[id] = p
	return p, nil
}

func (m *memoryRepo) Counts(ctx context.Context) (products.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c products.Counts
	for _, p := range m.items {
		c.Total++
		if p.IsHidden {
			c.Hidden++
		} else if p.Trending {
			c.Trending++
		}
	}
	return c, nil
}

type recordingCleaner struct{ ids []string }

func (c *recordingCleaner) ScheduleCleanup(ctx context.Context, ids ...string) error {
	c.ids = append(c.ids, ids...)
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return nil
}

type fixture struct {
	repo        *memoryRepo
	cleaner     *recordingCleaner
	invalidator *countingInvalidator
	svc         *products.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := media.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	f := fixture{repo: newMemoryRepo(), cleaner: &recordingCleaner{}, invalidator: &countingInvalidator{}}
	f.svc = products.NewService(f.repo, store, f.cleaner, f.invalidator, nil)
	return f
}

func validInput(heading string) products.Input {
	return products.Input{
		Heading:             heading,
		Price:               1200,
		Discount:            10,
		FabricCategory:      "velvet",
		WorkCategory:        "sequence",
		AvailableColoursHex: []string{"#AABBCC"},
	}
}

func photo(name string) products.Image {
	return products.Image{Reader: strings.NewReader("fake image"), Filename: name}
}

func TestCreateStoresProductAndInvalidates(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Create(context.Background(), validInput("  Velvet suit "), photo("suit.jpg"))
	require.NoError(t, err)

	assert.Equal(t, "Velvet suit", p.Heading)
	assert.Equal(t, 1080, p.DisplayPrice())
	assert.True(t, strings.HasPrefix(p.ImageURL, "/uploads/products/"))
	assert.Equal(t, 1, f.invalidator.calls)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput("")
	in.Discount = 120
	in.FabricCategory = "cotton"
	in.AvailableColoursHex = []string{"#AABBCC", "red"}
	pieces := 11
	in.NoOfPieces = &pieces

	_, err := f.svc.Create(ctx, in, photo("a.jpg"))
	fields, ok := shared.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["Heading"])
	assert.Equal(t, "must be at most 100", fields["Discount"])
	assert.Equal(t, "is not a known option", fields["FabricCategory"])
	assert.Equal(t, "must be a #RRGGBB colour", fields["AvailableColoursHex"])
	assert.Equal(t, "must be at most 10", fields["NoOfPieces"])

	_, err = f.svc.Create(ctx, validInput("No photo"), products.Image{})
	fields, ok = shared.AsFieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "Image")
	assert.Zero(t, f.invalidator.calls)
}

func TestUpdateReplacesImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, validInput("Original"), photo("one.jpg"))
	require.NoError(t, err)

	in := validInput("Renamed")
	in.Trending = true
	updated, err := f.svc.Update(ctx, p.ID, in, products.Image{})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Heading)
	assert.Equal(t, p.ImagePublicID, updated.ImagePublicID)
	assert.Empty(t, f.cleaner.ids)

	replaced, err := f.svc.Update(ctx, p.ID, in, photo("two.jpg"))
	require.NoError(t, err)
	assert.NotEqual(t, p.ImagePublicID, replaced.ImagePublicID)
	assert.Equal(t, []string{p.ImagePublicID}, f.cleaner.ids)
	assert.Equal(t, 3, f.invalidator.calls)
}

func TestUpdateFailureCleansNewUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, validInput("Original"), photo("one.jpg"))
	require.NoError(t, err)

	f.repo.updateErr = errors.New("write failed")
	_, err = f.svc.Update(ctx, p.ID, validInput("Renamed"), photo("two.jpg"))
	require.Error(t, err)
	require.Len(t, f.cleaner.ids, 1)
	assert.NotEqual(t, p.ImagePublicID, f.cleaner.ids[0])

	_, err = f.svc.Update(ctx, uuid.New(), validInput("Missing"), products.Image{})
	assert.True(t, products.IsNotFound(err))
}

func TestDeleteAndToggleHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, validInput("Short lived"), photo("x.png"))
	require.NoError(t, err)

	hidden, err := f.svc.ToggleHidden(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, hidden.IsHidden)

	counts, err := f.svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, products.Counts{Total: 1, Hidden: 1}, counts)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	assert.Equal(t, []string{p.ImagePublicID}, f.cleaner.ids)
	assert.True(t, products.IsNotFound(f.svc.Delete(ctx, p.ID)))
	assert.Equal(t, 3, f.invalidator.calls)
}

func TestListPaginatesAndSearches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < products.PageSize+5; i++ {
		name := "Plain"
		if i%5 == 0 {
			name = "Bridal"
		}
		_, err := f.svc.Create(ctx, validInput(name), photo("p.jpg"))
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Products, 5)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasPrev())

	page, err = f.svc.List(ctx, " bridal ", 0)
	require.NoError(t, err)
	assert.Equal(t, "bridal", page.Search)
	assert.Equal(t, 5, page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.Page)
}
