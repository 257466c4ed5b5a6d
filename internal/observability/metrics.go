package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sumatoshi-tech/typlsp/internal/memo"
)

// metricsReadTimeout bounds slow scrape clients.
const metricsReadTimeout = 10 * time.Second

// Metrics holds the server's Prometheus instruments on a private registry.
// A nil *Metrics is valid and records nothing, so instrumented components
// need no nil checks at call sites.
type Metrics struct {
	registry *prometheus.Registry

	compilePasses prometheus.Counter
	evalPasses    prometheus.Counter
	sourceLoads   prometheus.Counter
	sourceReloads prometheus.Counter
	openSources   prometheus.Gauge
}

// NewMetrics creates the instrument set. Memoization hit/miss/eviction
// counts are collected straight from the cache's own counters rather than
// double-counted at call sites.
func NewMetrics(cache *memo.Cache) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		compilePasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typlsp_compile_passes_total",
			Help: "Completed compile passes.",
		}),
		evalPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typlsp_eval_passes_total",
			Help: "Completed evaluate passes.",
		}),
		sourceLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typlsp_source_loads_total",
			Help: "Source files loaded from disk for the first time.",
		}),
		sourceReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typlsp_source_reloads_total",
			Help: "Stale source slots refilled from disk.",
		}),
		openSources: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "typlsp_open_sources",
			Help: "Files currently open in the editor.",
		}),
	}

	registry.MustRegister(
		m.compilePasses,
		m.evalPasses,
		m.sourceLoads,
		m.sourceReloads,
		m.openSources,
	)

	if cache != nil {
		registerMemoCollectors(registry, cache)
	}

	return m
}

// registerMemoCollectors exposes the memoization cache's own counters.
func registerMemoCollectors(registry *prometheus.Registry, cache *memo.Cache) {
	registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "typlsp_memo_hits_total",
			Help: "Memoization cache hits.",
		}, func() float64 {
			hits, _, _ := cache.Stats()

			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "typlsp_memo_misses_total",
			Help: "Memoization cache misses.",
		}, func() float64 {
			_, misses, _ := cache.Stats()

			return float64(misses)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "typlsp_memo_evictions_total",
			Help: "Memoization entries evicted by pass-age bounding.",
		}, func() float64 {
			_, _, evictions := cache.Stats()

			return float64(evictions)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "typlsp_memo_entries",
			Help: "Live memoization entries.",
		}, func() float64 {
			return float64(cache.Len())
		}),
	)
}

// IncCompilePass records a completed compile pass.
func (m *Metrics) IncCompilePass() {
	if m == nil {
		return
	}

	m.compilePasses.Inc()
}

// IncEvalPass records a completed evaluate pass.
func (m *Metrics) IncEvalPass() {
	if m == nil {
		return
	}

	m.evalPasses.Inc()
}

// IncSourceLoad records a first-time disk load.
func (m *Metrics) IncSourceLoad() {
	if m == nil {
		return
	}

	m.sourceLoads.Inc()
}

// IncSourceReload records a stale-slot refill.
func (m *Metrics) IncSourceReload() {
	if m == nil {
		return
	}

	m.sourceReloads.Inc()
}

// AddOpenSources moves the open-files gauge by delta.
func (m *Metrics) AddOpenSources(delta float64) {
	if m == nil {
		return
	}

	m.openSources.Add(delta)
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr in a background goroutine. Errors are
// logged, not fatal: metrics are an auxiliary surface.
func (m *Metrics) Serve(addr string, logger *slog.Logger) {
	if m == nil || addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadTimeout: metricsReadTimeout}

	go func() {
		err := srv.ListenAndServe()
		if err != nil && logger != nil {
			logger.Error("metrics listener stopped", "addr", addr, "error", fmt.Sprint(err))
		}
	}()
}
