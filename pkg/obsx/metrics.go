// Package obsx carries the service's Prometheus metrics and Sentry wiring.
package obsx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exported on /metrics. A private registry
// keeps tests free of duplicate-registration panics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// HTTP metrics
var (
	httpInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Auth metrics
var (
	// AuthAttempts counts guarded attempts by endpoint and outcome
	// (success, failure, blocked, captcha, limited).
	AuthAttempts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Login and registration attempts by outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	// RateLimitBans counts ban rows written by the persistent limiter.
	RateLimitBans = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_ratelimit_bans_total",
			Help: "Bans applied after the attempt threshold was reached.",
		},
		[]string{"endpoint"},
	)

	// TokensIssued counts signed tokens by kind (access, refresh).
	TokensIssued = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Signed tokens issued by kind.",
		},
		[]string{"kind"},
	)

	// HousekeepingDeleted counts rows removed by the cleanup loop.
	HousekeepingDeleted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_housekeeping_deleted_total",
			Help: "Rows removed by housekeeping by table.",
		},
		[]string{"table"},
	)
)

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument records request count, latency and in-flight gauge. It must
// wrap the ServeMux directly so the matched pattern is visible after the
// call; unmatched requests are labelled "unmatched" to bound cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
