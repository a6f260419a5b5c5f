package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by query family
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_cache_hits_total",
			Help: "Total number of CMS query cache hits",
		},
		[]string{"kind"}, // "list", "detail", "all"
	)

	// CacheMisses tracks cache misses by query family
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_cache_misses_total",
			Help: "Total number of CMS query cache misses",
		},
		[]string{"kind"},
	)

	// CacheWrittenBytes tracks bytes written to Redis
	CacheWrittenBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cms_cache_written_bytes_total",
			Help: "Total bytes written to the CMS query cache",
		},
	)

	// CacheInvalidations tracks keys removed by prefix invalidation
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cms_cache_invalidated_keys_total",
			Help: "Total number of cache keys removed by invalidation",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "invalidate"
	)
)

func kindLabel(k Key) string {
	if k.Kind == "" {
		return "root"
	}
	return string(k.Kind)
}
