// Package metrics exposes Prometheus collectors for searches, provider
// calls, cache traffic and scoring.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "venue"

// Metrics holds the process collectors. A nil *Metrics is valid and records
// nothing, so components can be built without instrumentation in tests.
type Metrics struct {
	registry *prometheus.Registry

	searchesTotal    *prometheus.CounterVec
	searchDuration   prometheus.Histogram
	providerCalls    *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	providerRetries  *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	scoresTotal      *prometheus.CounterVec
	enrichTotal      *prometheus.CounterVec
	aiCostUSD        *prometheus.CounterVec
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Searches by outcome (ok, degraded, cached, unavailable, cancelled).",
		}, []string{"outcome"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "End-to-end search duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Provider calls by provider and status.",
		}, []string{"provider", "status"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "duration_seconds",
			Help:      "Provider call duration in seconds, including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		providerRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "retries_total",
			Help:      "Provider call retries.",
		}, []string{"provider"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by result (hit, miss).",
		}, []string{"result"}),
		scoresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scorer",
			Name:      "scores_total",
			Help:      "Compatibility scores by source (ai, rule_based).",
		}, []string{"source"}),
		enrichTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "venues_total",
			Help:      "Venue enrichments by status (ok, failed).",
		}, []string{"status"}),
		aiCostUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scorer",
			Name:      "ai_cost_usd_total",
			Help:      "Estimated AI scoring spend in USD by model.",
		}, []string{"model"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searchesTotal,
		m.searchDuration,
		m.providerCalls,
		m.providerDuration,
		m.providerRetries,
		m.cacheLookups,
		m.scoresTotal,
		m.enrichTotal,
		m.aiCostUSD,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one finished search.
func (m *Metrics) ObserveSearch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.searchesTotal.WithLabelValues(outcome).Inc()
	m.searchDuration.Observe(d.Seconds())
}

// ObserveProviderCall records one guarded provider call.
func (m *Metrics) ObserveProviderCall(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.providerCalls.WithLabelValues(provider, status).Inc()
	m.providerDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// AddProviderRetries records retries made for one provider call.
func (m *Metrics) AddProviderRetries(provider string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.providerRetries.WithLabelValues(provider).Add(float64(n))
}

// ObserveCacheLookup records a result cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveScore records a compatibility score by source.
func (m *Metrics) ObserveScore(source string) {
	if m == nil {
		return
	}
	m.scoresTotal.WithLabelValues(source).Inc()
}

// ObserveEnrichment records one venue enrichment attempt.
func (m *Metrics) ObserveEnrichment(ok bool) {
	if m == nil {
		return
	}
	status := "failed"
	if ok {
		status = "ok"
	}
	m.enrichTotal.WithLabelValues(status).Inc()
}

// AddAICost records the estimated spend of one AI call.
func (m *Metrics) AddAICost(model string, usd float64) {
	if m == nil || usd <= 0 {
		return
	}
	m.aiCostUSD.WithLabelValues(model).Add(usd)
}
