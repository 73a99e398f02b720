// Package jobmetrics instruments asynq task handlers with Prometheus
// collectors. It is imported as jobmetrics to keep it apart from the
// top-level jobs package that defines the tasks.
package jobmetrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// Metrics holds the worker collectors. A nil *Metrics records nothing.
type Metrics struct {
	processed *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	retried   *prometheus.CounterVec
	assets    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_jobs_processed_total",
			Help: "Tasks processed by the worker, by task type and result.",
		}, []string{"task", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_jobs_duration_seconds",
			Help:    "Wall time spent in task handlers.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"task"}),
		retried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_jobs_retried_total",
			Help: "Task executions that were retries of an earlier failure.",
		}, []string{"task"}),
		assets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_media_assets_cleaned_total",
			Help: "Media assets processed by cleanup tasks, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.processed, m.latency, m.retried, m.assets)
	return m
}

// Middleware is an asynq.MiddlewareFunc that times every task on the mux.
func (m *Metrics) Middleware(next asynq.Handler) asynq.Handler {
	if m == nil {
		return next
	}
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		if n, ok := asynq.GetRetryCount(ctx); ok && n > 0 {
			m.retried.WithLabelValues(t.Type()).Inc()
		}
		m.Observe(t.Type(), time.Since(start), err)
		return err
	})
}

// Observe records one task execution.
func (m *Metrics) Observe(task string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(task, Result(err)).Inc()
	m.latency.WithLabelValues(task).Observe(elapsed.Seconds())
}

// AddAssets counts media assets handled by a cleanup run.
func (m *Metrics) AddAssets(result string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.assets.WithLabelValues(result).Add(float64(count))
}

// Result classifies a handler error. SkipRetry errors are reported apart
// from failures that asynq will retry.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, asynq.SkipRetry):
		return ResultSkipped
	default:
		return ResultError
	}
}
