package banners_test

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

	"github.com/ronak-creation/storefront/internal/banners"
	"github.com/ronak-creation/storefront/internal/media"
	"github.com/ronak-creation/storefront/internal/settings"
	"github.com/ronak-creation/storefront/internal/shared"
	_ "github.com/ronak-creation/storefront/testing"
)

type memoryRepo struct {
	mu        sync.Mutex
	banners   []banners.Banner
	createErr error
}

func (m *memoryRepo) sorted() []banners.Banner {
	out := append([]banners.Banner(nil), m.banners...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func (m *memoryRepo) List(ctx context.Context) ([]banners.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(), nil
}

func (m *memoryRepo) Active(ctx context.Context, limit int) ([]banners.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []banners.Banner
	for _, b := range m.sorted() {
		if b.IsActive && len(out) < limit {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryRepo) Create(ctx context.Context, b banners.Banner) (banners.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return banners.Banner{}, m.createErr
	}
	last := 0
	for _, existing := range m.banners {
		if existing.SortOrder > last {
			last = existing.SortOrder
		}
	}
	b.SortOrder = last + 1
	b.CreatedAt = time.Now()
	m.banners = append(m.banners, b)
	return b, nil
}

func (m *memoryRepo) find(id uuid.UUID) int {
	for i, b := range m.banners {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (m *memoryRepo) Toggle(ctx context.Context, id uuid.UUID) (banners.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return banners.Banner{}, shared.ErrNotFound
	}
	m.banners[i].IsActive = !m.banners[i].IsActive
	return m.banners[i], nil
}

func (m *memoryRepo) Delete(ctx context.Context, id uuid.UUID) (banners.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return banners.Banner{}, shared.ErrNotFound
	}
	removed := m.banners[i]
	m.banners = append(m.banners[:i], m.banners[i+1:]...)
	return removed, nil
}

func (m *memoryRepo) Reorder(ctx context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if m.find(id) < 0 {
			return shared.ErrNotFound
		}
	}
	for pos, id := range ids {
		m.banners[m.find(id)].SortOrder = pos + 1
	}
	return nil
}

type fixedSettings int

func (f fixedSettings) Get(ctx context.Context) (settings.Settings, error) {
	return settings.Settings{ActiveBannerCount: int(f)}, nil
}

type recordingCleaner struct {
	ids []string
}

func (c *recordingCleaner) ScheduleCleanup(ctx context.Context, ids ...string) error {
	c.ids = append(c.ids, ids...)
	return nil
}

func newService(t *testing.T, repo *memoryRepo, active int) (*banners.Service, *recordingCleaner) {
	t.Helper()
	store, err := media.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	cleaner := &recordingCleaner{}
	return banners.NewService(repo, fixedSettings(active), store, cleaner, nil), cleaner
}

func image(name string) banners.Image {
	return banners.Image{Reader: strings.NewReader("fake image"), Filename: name}
}

func TestCreateAppendsAfterLastBanner(t *testing.T) {
	repo := &memoryRepo{}
	svc, _ := newService(t, repo, 3)
	ctx := context.Background()

	first, err := svc.Create(ctx, banners.CreateInput{Name: " Diwali ", IsActive: true}, image("diwali.jpg"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, banners.CreateInput{Name: "Wedding"}, image("wedding.jpg"))
	require.NoError(t, err)

	assert.Equal(t, "Diwali", first.Name)
	assert.Equal(t, 1, first.SortOrder)
	assert.Equal(t, 2, second.SortOrder)
	assert.False(t, second.IsActive)
	assert.True(t, strings.HasPrefix(first.ImageURL, "/uploads/banners/"))
	assert.True(t, strings.HasPrefix(first.ImagePublicID, media.LocalPrefix))
}

func TestCreateValidates(t *testing.T) {
	svc, _ := newService(t, &memoryRepo{}, 3)

	_, err := svc.Create(context.Background(), banners.CreateInput{Name: "  "}, image("a.jpg"))
	fields, ok := shared.AsFieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "Name")

	_, err = svc.Create(context.Background(), banners.CreateInput{Name: "No image"}, banners.Image{})
	fields, ok = shared.AsFieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "Image")
}

func TestCreateCleansUpUploadOnInsertFailure(t *testing.T) {
	repo := &memoryRepo{createErr: errors.New("insert failed")}
	svc, cleaner := newService(t, repo, 3)

	_, err := svc.Create(context.Background(), banners.CreateInput{Name: "Broken"}, image("x.png"))
	require.Error(t, err)
	require.Len(t, cleaner.ids, 1)
	assert.True(t, strings.HasPrefix(cleaner.ids[0], media.LocalPrefix+"banners/"))
}

func TestActiveRespectsSettingsAndOrder(t *testing.T) {
	repo := &memoryRepo{}
	svc, _ := newService(t, repo, 2)
	ctx := context.Background()

	var ids []uuid.UUID
	for _, name := range []string{"a", "b", "c", "d"} {
		b, err := svc.Create(ctx, banners.CreateInput{Name: name, IsActive: true}, image(name+".jpg"))
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	_, err := svc.Toggle(ctx, ids[0])
	require.NoError(t, err)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "b", active[0].Name)
	assert.Equal(t, "c", active[1].Name)

	require.NoError(t, svc.Reorder(ctx, []uuid.UUID{ids[3], ids[2], ids[1], ids[0]}))
	active, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "d", active[0].Name)
	assert.Equal(t, "c", active[1].Name)
}

func TestReorderRejectsBadInput(t *testing.T) {
	svc, _ := newService(t, &memoryRepo{}, 3)
	id := uuid.New()

	_, ok := shared.AsFieldErrors(svc.Reorder(context.Background(), nil))
	assert.True(t, ok)
	_, ok = shared.AsFieldErrors(svc.Reorder(context.Background(), []uuid.UUID{id, id}))
	assert.True(t, ok)
	assert.True(t, banners.IsNotFound(svc.Reorder(context.Background(), []uuid.UUID{id})))
}

func TestDeleteSchedulesImageCleanup(t *testing.T) {
	repo := &memoryRepo{}
	svc, cleaner := newService(t, repo, 3)
	ctx := context.Background()

	b, err := svc.Create(ctx, banners.CreateInput{Name: "Gone", IsActive: true}, image("gone.jpg"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, b.ID))
	assert.Equal(t, []string{b.ImagePublicID}, cleaner.ids)

	assert.True(t, banners.IsNotFound(svc.Delete(ctx, b.ID)))
}
