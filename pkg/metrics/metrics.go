// Package metrics provides the Prometheus registry used by the CMS client.
// Collectors are declared with promauto in the packages that own them
// (client, pagination, auth, cache) to avoid import cycles.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all collectors are added to.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the collected metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - cms_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - cms_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - cms_errors_total{class} (Counter): Errors by class (client, server, auth, network)
//   - cms_auth_retries_total{outcome} (Counter): 401 refresh-and-retry outcomes
//     (success, rejected, refresh_failed, error)
//
// Aggregation Metrics (pkg/pagination):
//   - cms_aggregation_pages_total (Counter): Pages fetched during aggregation
//   - cms_aggregation_stops_total{reason} (Counter): Why aggregation stopped
//   - cms_aggregation_duration_seconds (Histogram): Duration of a full aggregation
//
// Token Metrics (pkg/auth):
//   - cms_token_refreshes_total{result} (Counter): Token exchanges by result
//   - cms_token_refresh_duration_seconds (Histogram): Token exchange duration
//
// Cache Metrics (pkg/cache):
//   - cms_cache_hits_total{kind} (Counter): Cache hits by key family
//   - cms_cache_misses_total{kind} (Counter): Cache misses by key family
//   - cms_cache_written_bytes_total (Counter): Bytes written to Redis
//   - cms_cache_invalidated_keys_total (Counter): Keys removed by invalidation
//   - cms_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(cms_cache_hits_total[5m])) /
//   (sum(rate(cms_cache_hits_total[5m])) + sum(rate(cms_cache_misses_total[5m])))
//
//   # Token rejected even after refresh
//   rate(cms_auth_retries_total{outcome="rejected"}[5m])
//
//   # Aggregations cut off by the page cap
//   rate(cms_aggregation_stops_total{reason="max_pages"}[1h])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(cms_request_duration_seconds_bucket[5m]))
