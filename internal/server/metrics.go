package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bblocks/bblocks/pkg/observability"
)

const namespace = "bblocks"

// Metrics holds the Prometheus collectors of the server. It implements the
// observability hook interfaces; [Metrics.Install] registers it globally so
// library packages report into it.
type Metrics struct {
	registry *prometheus.Registry

	registerLoads  *prometheus.CounterVec   // status
	registerLoad   prometheus.Histogram
	fullResolves   *prometheus.CounterVec   // status
	upliftRuns     *prometheus.CounterVec   // status
	upliftDuration prometheus.Histogram
	upliftTriples  prometheus.Histogram
	upliftSteps    *prometheus.CounterVec   // stage, kind, status
	stepDuration   *prometheus.HistogramVec // kind
	cacheEvents    *prometheus.CounterVec   // key_type, event
	cacheBytes     *prometheus.CounterVec   // key_type
	fetchResponses *prometheus.CounterVec   // host, code
	fetchErrors    *prometheus.CounterVec   // host
	fetchDuration  *prometheus.HistogramVec // host
	requests       *prometheus.CounterVec   // method, route, code
	requestLatency *prometheus.HistogramVec // route
}

// NewMetrics creates the collectors in a fresh registry that also carries
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		registerLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "register", Name: "loads_total",
			Help: "Register documents fetched and decoded",
		}, []string{"status"}),
		registerLoad: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "register", Name: "load_duration_seconds",
			Help:    "Time to fetch and decode one register document",
			Buckets: prometheus.DefBuckets,
		}),
		fullResolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "register", Name: "full_resolves_total",
			Help: "Full records materialized (cache misses)",
		}, []string{"status"}),

		upliftRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "uplift", Name: "runs_total",
			Help: "Semantic uplift runs",
		}, []string{"status"}),
		upliftDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "uplift", Name: "duration_seconds",
			Help:    "Duration of complete uplift runs",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		upliftTriples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "uplift", Name: "triples",
			Help:    "Size of produced graphs",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		upliftSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "uplift", Name: "steps_total",
			Help: "Applied uplift steps",
		}, []string{"stage", "kind", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "uplift", Name: "step_duration_seconds",
			Help:    "Duration of single uplift steps",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"kind"}),

		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "events_total",
			Help: "Cache hits, misses and writes",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to caches",
		}, []string{"key_type"}),

		fetchResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fetch", Name: "responses_total",
			Help: "HTTP responses received by the fetch client",
		}, []string{"host", "code"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fetch", Name: "errors_total",
			Help: "Failed HTTP requests of the fetch client",
		}, []string{"host"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "fetch", Name: "duration_seconds",
			Help:    "HTTP request duration of the fetch client",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP API requests",
		}, []string{"method", "route", "code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.registerLoads, m.registerLoad, m.fullResolves,
		m.upliftRuns, m.upliftDuration, m.upliftTriples, m.upliftSteps, m.stepDuration,
		m.cacheEvents, m.cacheBytes,
		m.fetchResponses, m.fetchErrors, m.fetchDuration,
		m.requests, m.requestLatency,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Install registers m as the global register, uplift, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetRegisterHooks(m)
	observability.SetUpliftHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnLoad(_ context.Context, _ string, _ int, d time.Duration, err error) {
	m.registerLoads.WithLabelValues(status(err)).Inc()
	m.registerLoad.Observe(d.Seconds())
}

func (m *Metrics) OnFullResolve(_ context.Context, _ string, _ time.Duration, err error) {
	m.fullResolves.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) OnStep(_ context.Context, _, stage, kind string, d time.Duration, err error) {
	m.upliftSteps.WithLabelValues(stage, kind, status(err)).Inc()
	m.stepDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) OnUplift(_ context.Context, _ string, triples int, d time.Duration, err error) {
	m.upliftRuns.WithLabelValues(status(err)).Inc()
	m.upliftDuration.Observe(d.Seconds())
	if err == nil {
		m.upliftTriples.Observe(float64(triples))
	}
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnResponse(_ context.Context, host string, code int, d time.Duration) {
	m.fetchResponses.WithLabelValues(host, strconv.Itoa(code)).Inc()
	m.fetchDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, host string, _ error) {
	m.fetchErrors.WithLabelValues(host).Inc()
}

var (
	_ observability.RegisterHooks = (*Metrics)(nil)
	_ observability.UpliftHooks   = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

// instrument counts requests by route pattern, so /items/{id} is one series
// regardless of the identifier.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(code)).Inc()
		m.requestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
