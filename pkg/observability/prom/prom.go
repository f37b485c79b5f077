// Package prom implements the observability hooks on Prometheus collectors.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jfahler/loadmasterbot/pkg/observability"
)

// Metrics holds every loadmaster collector. It satisfies
// observability.AnalysisHooks, CacheHooks and HTTPHooks.
type Metrics struct {
	analysesTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	itemsTotal       *prometheus.CounterVec
	itemDuration     prometheus.Histogram
	cacheTotal       *prometheus.CounterVec
	cacheBytes       prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
}

// New registers the collectors with reg. Passing a fresh registry per server
// keeps tests independent of the global default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		analysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadmaster_analyses_total",
			Help: "Total analyses by result",
		}, []string{"result"}),
		analysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "loadmaster_analysis_duration_seconds",
			Help:    "Analysis duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}),
		itemsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadmaster_items_enriched_total",
			Help: "Enriched workshop items by status",
		}, []string{"status"}),
		itemDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "loadmaster_item_enrich_duration_seconds",
			Help:    "Per-item enrichment duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		cacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadmaster_cache_operations_total",
			Help: "Cache operations by key type and outcome",
		}, []string{"key_type", "outcome"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "loadmaster_cache_written_bytes_total",
			Help: "Bytes written to the metadata cache",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadmaster_http_requests_total",
			Help: "Outbound HTTP requests by host",
		}, []string{"host"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loadmaster_http_request_duration_seconds",
			Help:    "Outbound HTTP request duration by host and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"host", "code"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loadmaster_http_errors_total",
			Help: "Outbound HTTP transport errors by host",
		}, []string{"host"}),
	}
}

// Register installs m as the global analysis, cache and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetAnalysisHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnAnalysisStart(context.Context, int) {}

func (m *Metrics) OnAnalysisComplete(_ context.Context, _ int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.analysesTotal.WithLabelValues(result).Inc()
	m.analysisDuration.Observe(d.Seconds())
}

func (m *Metrics) OnItemEnriched(_ context.Context, _ string, fallback bool, d time.Duration) {
	status := "ok"
	if fallback {
		status = "fallback"
	}
	m.itemsTotal.WithLabelValues(status).Inc()
	m.itemDuration.Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheTotal.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

func (m *Metrics) OnRequest(_ context.Context, _, host, _ string) {
	m.httpRequests.WithLabelValues(host).Inc()
}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	m.httpDuration.WithLabelValues(host, statusClass(code)).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.httpErrors.WithLabelValues(host).Inc()
}

// statusClass buckets status codes as "2xx", "4xx" and so on to bound label
// cardinality.
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	}
	return "other"
}

var (
	_ observability.AnalysisHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
