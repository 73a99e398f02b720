package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronak-creation/storefront/internal/platform/httpx"
	"github.com/ronak-creation/storefront/internal/settings"
	"github.com/ronak-creation/storefront/internal/shared"
)

type stubRepo struct {
	stored *settings.Settings
	err    error
}

func (s *stubRepo) Get(ctx context.Context) (settings.Settings, error) {
	if s.err != nil {
		return settings.Settings{}, s.err
	}
	if s.stored == nil {
		return settings.Settings{}, shared.ErrNotFound
	}
	return *s.stored, nil
}

func (s *stubRepo) Save(ctx context.Context, st settings.Settings) error {
	if s.err != nil {
		return s.err
	}
	s.stored = &st
	return nil
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc := settings.NewService(&stubRepo{})
	st, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultActiveBannerCount, st.ActiveBannerCount)
}

func TestGetSurfacesStoreFailures(t *testing.T) {
	svc := settings.NewService(&stubRepo{err: errors.New("db down")})
	_, err := svc.Get(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestUpdateValidatesAndStores(t *testing.T) {
	repo := &stubRepo{}
	svc := settings.NewService(repo)

	for _, bad := range []int{0, -1, 51} {
		err := svc.Update(context.Background(), settings.Settings{ActiveBannerCount: bad})
		fields, ok := shared.AsFieldErrors(err)
		require.True(t, ok, "count %d", bad)
		assert.Contains(t, fields, "ActiveBannerCount")
		assert.True(t, errors.Is(err, httpx.ErrValidation))
	}
	assert.Nil(t, repo.stored)

	require.NoError(t, svc.Update(context.Background(), settings.Settings{ActiveBannerCount: 5}))
	st, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, st.ActiveBannerCount)
}
