// Package observability exposes the Prometheus metrics recorded by the engine.
package observability

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvassistant_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)
	cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvassistant_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)
	cacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvassistant_cache_evictions_total",
			Help: "Total number of cache evictions by reason",
		},
		[]string{"cache", "reason"}, // reason: ttl, lru, corrupt
	)
	cacheSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dvassistant_cache_size",
			Help: "Current number of entries per cache",
		},
		[]string{"cache"},
	)

	providerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvassistant_provider_requests_total",
			Help: "Total provider calls by outcome",
		},
		[]string{"provider", "op", "outcome"},
	)
	providerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dvassistant_provider_request_duration_seconds",
			Help:    "Duration of provider calls including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "op"},
	)

	intentClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvassistant_intent_classifications_total",
			Help: "Intent classifications by intent and source",
		},
		[]string{"intent", "source"},
	)
	intentConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dvassistant_intent_confidence",
			Help:    "Heuristic confidence of intent classifications",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
	responseRoutesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvassistant_response_routes_total",
			Help: "Responses produced by path and source",
		},
		[]string{"path", "source"},
	)
	followUpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dvassistant_followups_total",
			Help: "Resolved follow-up utterances by response type",
		},
		[]string{"type"},
	)

	metricsRegistered atomic.Bool
	metricsEnabled    atomic.Bool
)

// SetMetricsEnabled toggles metric collection.
func SetMetricsEnabled(enabled bool) {
	metricsEnabled.Store(enabled)
}

// IsMetricsEnabled reports whether metrics are collected.
func IsMetricsEnabled() bool {
	return metricsEnabled.Load()
}

// RegisterMetrics registers all collectors with the default registry. Safe to call repeatedly.
func RegisterMetrics() {
	if !metricsRegistered.CompareAndSwap(false, true) {
		return
	}
	prometheus.MustRegister(
		cacheHitsTotal,
		cacheMissesTotal,
		cacheEvictionsTotal,
		cacheSize,
		providerRequestsTotal,
		providerRequestDuration,
		intentClassificationsTotal,
		intentConfidence,
		responseRoutesTotal,
		followUpsTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordCacheHit(cache string) {
	if !IsMetricsEnabled() {
		return
	}
	cacheHitsTotal.WithLabelValues(cache).Inc()
}

func RecordCacheMiss(cache string) {
	if !IsMetricsEnabled() {
		return
	}
	cacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordCacheEviction counts evictions; reason is one of ttl, lru or corrupt.
func RecordCacheEviction(cache, reason string, n int) {
	if !IsMetricsEnabled() || n <= 0 {
		return
	}
	cacheEvictionsTotal.WithLabelValues(cache, reason).Add(float64(n))
}

func SetCacheSize(cache string, size int) {
	if !IsMetricsEnabled() {
		return
	}
	cacheSize.WithLabelValues(cache).Set(float64(size))
}

// RecordProviderCall records one logical provider call (after retries).
func RecordProviderCall(provider, op, outcome string, elapsed time.Duration) {
	if !IsMetricsEnabled() {
		return
	}
	providerRequestsTotal.WithLabelValues(provider, op, outcome).Inc()
	providerRequestDuration.WithLabelValues(provider, op).Observe(elapsed.Seconds())
}

func RecordIntent(intent, source string, confidence float64) {
	if !IsMetricsEnabled() {
		return
	}
	intentClassificationsTotal.WithLabelValues(intent, source).Inc()
	intentConfidence.Observe(confidence)
}

func RecordRoute(path, source string) {
	if !IsMetricsEnabled() {
		return
	}
	responseRoutesTotal.WithLabelValues(path, source).Inc()
}

func RecordFollowUp(responseType string) {
	if !IsMetricsEnabled() {
		return
	}
	followUpsTotal.WithLabelValues(responseType).Inc()
}
