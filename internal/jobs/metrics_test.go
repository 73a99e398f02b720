package jobmetrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsResults(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	fail := errors.New("storage down")
	handler := m.Middleware(asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		switch string(t.Payload()) {
		case "fail":
			return fail
		case "skip":
			return fmt.Errorf("bad payload: %w", asynq.SkipRetry)
		}
		return nil
	}))

	ctx := context.Background()
	assert.NoError(t, handler.ProcessTask(ctx, asynq.NewTask("media:cleanup", []byte("ok"))))
	assert.ErrorIs(t, handler.ProcessTask(ctx, asynq.NewTask("media:cleanup", []byte("fail"))), fail)
	assert.ErrorIs(t, handler.ProcessTask(ctx, asynq.NewTask("media:cleanup", []byte("skip"))), asynq.SkipRetry)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.processed.WithLabelValues("media:cleanup", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processed.WithLabelValues("media:cleanup", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processed.WithLabelValues("media:cleanup", ResultSkipped)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.retried.WithLabelValues("media:cleanup")))
}

func TestAddAssetsIgnoresEmptyRuns(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddAssets("deleted", 3)
	m.AddAssets("deleted", 0)
	m.AddAssets("failed", -1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.assets.WithLabelValues("deleted")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.assets))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Observe("catalog:warmup", time.Second, nil)
	m.AddAssets("deleted", 1)

	called := false
	next := asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		called = true
		return nil
	})
	assert.NoError(t, m.Middleware(next).ProcessTask(context.Background(), asynq.NewTask("x", nil)))
	assert.True(t, called)
}
