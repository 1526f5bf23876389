// Package metrics provides Prometheus instrumentation for the bingo engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchAttempts counts strategy attempts by strategy and outcome.
	FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bingo_fetch_attempts_total",
		Help: "Draw source strategy attempts",
	}, []string{"strategy", "outcome"})

	// FetchLatency tracks how long each strategy attempt took.
	FetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bingo_fetch_latency_seconds",
		Help:    "Draw source strategy latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 6, 10},
	}, []string{"strategy"})

	// FetchSweepFailures counts sweeps in which every strategy failed.
	FetchSweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bingo_fetch_sweep_failures_total",
		Help: "Fetch sweeps that exhausted every strategy",
	})

	// CacheLookups counts draw cache lookups by result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bingo_cache_lookups_total",
		Help: "Draw cache lookups",
	}, []string{"result"})

	// DrawsCached is the number of draws in the most recent snapshot.
	DrawsCached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bingo_draws_cached",
		Help: "Draw records in the current snapshot",
	})

	// Settlements counts settlement runs by mode and status.
	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bingo_settlements_total",
		Help: "Settlement runs",
	}, []string{"mode", "status"})

	// PrizePaid accumulates settled prize amounts in NTD by mode.
	PrizePaid = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bingo_prize_ntd_total",
		Help: "Cumulative settled prize in NTD",
	}, []string{"mode"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bingo_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bingo_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bingo_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0, 15.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Route pattern keeps ticket ids out of the label set.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
