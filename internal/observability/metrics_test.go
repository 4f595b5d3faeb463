package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/basecruz/stockbridge/internal/jobs"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobCollectors(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("syncStock").End(nil)

	body := scrape(t, metrics)
	require.Contains(t, body, `stockbridge_jobs_total{job="syncStock",status="success"} 1`)
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/products")

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `stockbridge_http_requests_total{code="418",route="/products"} 1`)
	require.Contains(t, body, `stockbridge_http_request_duration_seconds_bucket{route="/products"`)
}

func TestObserveUpstream(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveUpstream("shopify", "GET /products.json", 200, 15*time.Millisecond)
	metrics.ObserveUpstream("externalstock", "query", 0, time.Second)

	body := scrape(t, metrics)
	require.Contains(t, body, `stockbridge_upstream_requests_total{code="200",endpoint="GET /products.json",service="shopify"} 1`)
	require.Contains(t, body, `stockbridge_upstream_requests_total{code="error",endpoint="query",service="externalstock"} 1`)
	require.True(t, strings.Contains(body, `stockbridge_upstream_request_duration_seconds_count{service="shopify"} 1`))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveUpstream("shopify", "x", 500, time.Millisecond)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
