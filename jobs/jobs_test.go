package jobs_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronak-creation/storefront/internal/catalog"
	"github.com/ronak-creation/storefront/internal/media"
	"github.com/ronak-creation/storefront/jobs"
	_ "github.com/ronak-creation/storefront/testing"
)

func TestNewMediaCleanupTask(t *testing.T) {
	task, err := jobs.NewMediaCleanupTask(jobs.MediaCleanupPayload{PublicIDs: []string{"products/a"}})
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskMediaCleanup, task.Type())
	assert.JSONEq(t, `{"public_ids":["products/a"]}`, string(task.Payload()))

	_, err = jobs.NewMediaCleanupTask(jobs.MediaCleanupPayload{})
	assert.Error(t, err)
}

func TestMediaCleanupDeletesLocalFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := media.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)
	asset, err := store.Upload(context.Background(), strings.NewReader("img"), "a.png", media.FolderProducts)
	require.NoError(t, err)

	path := filepath.Join(dir, strings.TrimPrefix(asset.PublicID, media.LocalPrefix))
	_, err = os.Stat(path)
	require.NoError(t, err)

	task, err := jobs.NewMediaCleanupTask(jobs.MediaCleanupPayload{PublicIDs: []string{asset.PublicID, media.LocalPrefix + "products/missing.png"}})
	require.NoError(t, err)

	job := jobs.NewMediaCleanupJob(store, nil, nil)
	require.NoError(t, job.Handle(context.Background(), task))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

type brokenStore struct {
	media.Store
	calls int
}

func (b *brokenStore) Delete(ctx context.Context, publicID string) error {
	b.calls++
	if publicID == "bad" {
		return errors.New("storage unavailable")
	}
	return nil
}

func TestMediaCleanupReportsFailuresForRetry(t *testing.T) {
	store := &brokenStore{}
	task, err := jobs.NewMediaCleanupTask(jobs.MediaCleanupPayload{PublicIDs: []string{"ok", "bad", "ok2"}})
	require.NoError(t, err)

	err = jobs.NewMediaCleanupJob(store, nil, nil).Handle(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, 3, store.calls)
}

func TestMediaCleanupSkipsMalformedPayload(t *testing.T) {
	task := asynq.NewTask(jobs.TaskMediaCleanup, []byte("{"))
	err := jobs.NewMediaCleanupJob(&brokenStore{}, nil, nil).Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type countingCatalog struct {
	lists    atomic.Int32
	trending atomic.Int32
	limits   chan int
	err      error
}

func (c *countingCatalog) List(ctx context.Context, site catalog.Site, p catalog.Params, withCount bool) (catalog.Result, error) {
	c.lists.Add(1)
	if site == catalog.SiteHome {
		c.limits <- p.Limit
	}
	return catalog.Result{}, c.err
}

func (c *countingCatalog) Trending(ctx context.Context) ([]catalog.Product, error) {
	c.trending.Add(1)
	return nil, c.err
}

func TestCatalogWarmupLoadsHomeListings(t *testing.T) {
	c := &countingCatalog{limits: make(chan int, 1)}
	job := jobs.NewCatalogWarmupJob(c, 24, nil)

	require.NoError(t, job.Handle(context.Background(), jobs.NewCatalogWarmupTask()))
	assert.Equal(t, int32(2), c.lists.Load())
	assert.Equal(t, int32(1), c.trending.Load())
	assert.Equal(t, 24, <-c.limits)
}

func TestCatalogWarmupPropagatesErrors(t *testing.T) {
	c := &countingCatalog{limits: make(chan int, 1), err: errors.New("db down")}
	err := jobs.NewCatalogWarmupJob(c, 0, nil).Handle(context.Background(), jobs.NewCatalogWarmupTask())
	assert.Error(t, err)
}

func TestScheduleCleanupIgnoresEmptyIDs(t *testing.T) {
	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:1"})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.ScheduleCleanup(context.Background()))
	assert.NoError(t, client.ScheduleCleanup(context.Background(), "", ""))
}

func TestRedisConnOpt(t *testing.T) {
	opt, err := jobs.RedisConnOpt("127.0.0.1:6379")
	require.NoError(t, err)
	assert.Equal(t, asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}, opt)

	opt, err = jobs.RedisConnOpt("redis://:pw@cache:6380/3")
	require.NoError(t, err)
	client, ok := opt.(asynq.RedisClientOpt)
	require.True(t, ok)
	assert.Equal(t, "cache:6380", client.Addr)
	assert.Equal(t, "pw", client.Password)
	assert.Equal(t, 3, client.DB)

	_, err = jobs.RedisConnOpt("")
	assert.Error(t, err)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", jobs.NewHandler(nil, nil).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"archived":0,"paused":false,"latency_ms":0}`, rr.Body.String())
}

func TestStatsFromInfo(t *testing.T) {
	stats := jobs.StatsFromInfo(&asynq.QueueInfo{Queue: "default", Pending: 3, Retry: 1, Archived: 2, Latency: 1500 * time.Millisecond})
	assert.Equal(t, jobs.QueueStats{Queue: "default", Pending: 3, Retry: 1, Archived: 2, LatencyMS: 1500}, stats)
}

func TestNewWorkerRequiresRoutes(t *testing.T) {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:1"}
	_, err := jobs.NewWorker(jobs.WorkerConfig{RedisOpts: opt})
	assert.Error(t, err)

	_, err = jobs.NewWorker(jobs.WorkerConfig{RedisOpts: opt, Routes: []jobs.Route{{Type: jobs.TaskMediaCleanup}}})
	assert.Error(t, err)

	_, err = jobs.NewWorker(jobs.WorkerConfig{})
	assert.Error(t, err)
}
