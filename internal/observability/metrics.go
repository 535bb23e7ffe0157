package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storeCalls      *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	saveRows        *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockledger_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	storeCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_store_calls_total",
		Help: "Remote row store calls by action and outcome.",
	}, []string{"action", "outcome"})
	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockledger_store_call_duration_seconds",
		Help:    "Remote row store call latency by action.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"action"})
	saveRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_batch_rows_total",
		Help: "Batch save rows by result (committed, skipped, failed).",
	}, []string{"result"})
	registry.MustRegister(requests, duration, storeCalls, storeDuration, saveRows)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		storeCalls:      storeCalls,
		storeDuration:   storeDuration,
		saveRows:        saveRows,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCall records one remote store call.
func (m *Metrics) ObserveCall(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.storeCalls.WithLabelValues(action, outcome).Inc()
	m.storeDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// AddSaveRows counts batch save rows for a result label.
func (m *Metrics) AddSaveRows(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.saveRows.WithLabelValues(result).Add(float64(n))
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
