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
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `stockledger_http_requests_total{code="418",route="/test"} 1`)
	require.Contains(t, body, `stockledger_http_request_duration_seconds_bucket{route="/test"`)
}

func TestObserveCallAndSaveRows(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveCall("fetch", "ok", 120*time.Millisecond)
	metrics.ObserveCall("fetch", "error", time.Second)
	metrics.AddSaveRows("committed", 3)
	metrics.AddSaveRows("failed", 0)

	body := scrape(t, metrics)
	require.Contains(t, body, `stockledger_store_calls_total{action="fetch",outcome="ok"} 1`)
	require.Contains(t, body, `stockledger_store_calls_total{action="fetch",outcome="error"} 1`)
	require.Contains(t, body, `stockledger_batch_rows_total{result="committed"} 3`)
	require.False(t, strings.Contains(body, `result="failed"`))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCall("fetch", "ok", time.Millisecond)
	m.AddSaveRows("committed", 1)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
