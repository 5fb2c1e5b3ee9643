package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the engine-level counters exposed on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	QuoteRequests     *prometheus.CounterVec
	ComparisonResults *prometheus.CounterVec
	MasterCacheHits   prometheus.Counter
	MasterCacheMisses prometheus.Counter
	CacheInvalidation prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		QuoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spedira",
			Name:      "quote_requests_total",
			Help:      "Quote requests by outcome.",
		}, []string{"outcome"}),
		ComparisonResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spedira",
			Name:      "rate_comparisons_total",
			Help:      "Dual-source rate comparisons by winning source.",
		}, []string{"source"}),
		MasterCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spedira",
			Name:      "master_cache_hits_total",
			Help:      "Master price list cache hits.",
		}),
		MasterCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spedira",
			Name:      "master_cache_misses_total",
			Help:      "Master price list cache misses.",
		}),
		CacheInvalidation: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spedira",
			Name:      "master_cache_invalidations_total",
			Help:      "Explicit master cache invalidations.",
		}),
	}

	reg.MustRegister(
		m.QuoteRequests,
		m.ComparisonResults,
		m.MasterCacheHits,
		m.MasterCacheMisses,
		m.CacheInvalidation,
	)
	return m
}
