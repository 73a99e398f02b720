package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.Jobs().Observe("media:cleanup", 20*time.Millisecond, nil)

	body := scrape(t, metrics)
	if !strings.Contains(body, `storefront_jobs_processed_total{result="ok",task="media:cleanup"} 1`) {
		t.Fatalf("expected job run in metrics, got: %s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collector output")
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "storefront_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "storefront_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestRecordCatalogQuery(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordCatalogQuery("home", "hit")
	metrics.RecordCatalogQuery("home", "hit")
	metrics.RecordCatalogQuery("api", "error")

	body := scrape(t, metrics)
	if !strings.Contains(body, `storefront_catalog_queries_total{outcome="hit",site="home"} 2`) {
		t.Fatalf("expected home hits, got: %s", body)
	}
	if !strings.Contains(body, `storefront_catalog_queries_total{outcome="error",site="api"} 1`) {
		t.Fatalf("expected api error, got: %s", body)
	}
}

func TestJobFailureAndAssets(t *testing.T) {
	metrics := NewMetrics()
	metrics.Jobs().Observe("media:cleanup", time.Second, errors.New("boom"))
	metrics.Jobs().AddAssets("deleted", 3)
	metrics.Jobs().AddAssets("deleted", 0)

	body := scrape(t, metrics)
	if !strings.Contains(body, `storefront_jobs_processed_total{result="error",task="media:cleanup"} 1`) {
		t.Fatalf("expected failure count, got: %s", body)
	}
	if !strings.Contains(body, `storefront_media_assets_cleaned_total{result="deleted"} 3`) {
		t.Fatalf("expected asset count, got: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.RecordCatalogQuery("home", "miss")
	metrics.Jobs().AddAssets("deleted", 1)
	metrics.Jobs().Observe("x", time.Second, nil)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
