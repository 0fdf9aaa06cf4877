// Package obs holds the gateway's Prometheus metrics.
package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are registered on one registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	loginsTotal    *prometheus.CounterVec
	refreshesTotal *prometheus.CounterVec
	guardTotal     *prometheus.CounterVec
	upstreamTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers the gateway metrics on a fresh registry
// that also carries the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		loginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_login_callbacks_total",
				Help: "Authorization callbacks by outcome.",
			},
			[]string{"outcome"},
		),
		refreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_token_refreshes_total",
				Help: "Token refresh attempts by outcome.",
			},
			[]string{"outcome"},
		),
		guardTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_route_guard_decisions_total",
				Help: "Route guard decisions.",
			},
			[]string{"decision"},
		),
		upstreamTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdeck_api_proxy_responses_total",
				Help: "Responses from the task API by status class.",
			},
			[]string{"class"},
		),
	}

	reg.MustRegister(
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.loginsTotal,
		m.refreshesTotal,
		m.guardTotal,
		m.upstreamTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) LoginOutcome(outcome string) {
	if m != nil {
		m.loginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) RefreshOutcome(outcome string) {
	if m != nil {
		m.refreshesTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) GuardDecision(decision string) {
	if m != nil {
		m.guardTotal.WithLabelValues(decision).Inc()
	}
}

// UpstreamStatus counts a task API response; status 0 means no response.
func (m *Metrics) UpstreamStatus(status int) {
	if m == nil {
		return
	}
	class := "error"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	m.upstreamTotal.WithLabelValues(class).Inc()
}

// Instrument measures request count, latency and in-flight requests. The
// route label is the matched ServeMux pattern, so path parameters do not
// explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(sw.code)

		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
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

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
