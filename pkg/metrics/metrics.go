// Package metrics provides the Prometheus registry reference, the HTTP
// server metrics and the /metrics handler.
//
// Upstream, cache, quota and pagination metrics are defined in their
// respective packages (client, cache, ratelimit, pagination) to keep
// those packages free of a dependency on this one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry served by Handler.
var Gatherer = prometheus.DefaultGatherer

// HTTP server metrics, labelled by route pattern rather than raw path so
// item codes do not create new series.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medimatch_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medimatch_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Quota Metrics (pkg/ratelimit):
//   - medimatch_quota_used (Gauge): Upstream requests issued in the current service day
//   - medimatch_quota_blocks_total (Counter): Requests blocked by the daily quota
//   - medimatch_quota_exhausted_total (Counter): "Limit exceeded" reports from upstream
//
// Cache Metrics (pkg/cache):
//   - medimatch_cache_hits_total (Counter): Cache hits
//   - medimatch_cache_misses_total (Counter): Cache misses
//   - medimatch_cache_entry_bytes (Histogram): Size of stored entries
//   - medimatch_cache_errors_total{operation} (Counter): Cache operation errors
//
// Upstream Metrics (pkg/client):
//   - medimatch_upstream_requests_total{endpoint, status} (Counter): Requests by endpoint and status
//   - medimatch_upstream_request_duration_seconds{endpoint} (Histogram): Request duration
//   - medimatch_upstream_errors_total{class} (Counter): Errors by class
//   - medimatch_upstream_shared_total (Counter): Calls answered by an identical in-flight request
//   - medimatch_upstream_retries_total{error_class} (Counter): Retry attempts
//   - medimatch_upstream_retry_backoff_seconds{error_class} (Histogram): Backoff duration
//   - medimatch_upstream_retry_exhausted_total{error_class} (Counter): Requests that exhausted retries
//
// Pagination Metrics (pkg/pagination):
//   - medimatch_page_fetches_total{feed, status} (Counter): Page fetches by feed
//   - medimatch_page_sessions (Gauge): Live query sessions
//
// HTTP Metrics (this package):
//   - medimatch_http_requests_total{route, method, status} (Counter)
//   - medimatch_http_request_duration_seconds{route} (Histogram)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(medimatch_cache_hits_total[5m])) /
//   (sum(rate(medimatch_cache_hits_total[5m])) + sum(rate(medimatch_cache_misses_total[5m])))
//
//   # Quota consumption
//   medimatch_quota_used
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(medimatch_upstream_request_duration_seconds_bucket[5m]))
