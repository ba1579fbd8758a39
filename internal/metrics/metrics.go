package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redirect outcomes
const (
	OutcomeResolved = "resolved"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Click write results
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collectors are registered with the default registry via promauto

var (
	// ==================== HTTP METRICS ====================

	// HTTPRequestDuration tracks the duration of HTTP requests
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestsTotal counts total HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// ==================== CACHE METRICS ====================

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_cache_hits_total",
			Help: "Total number of link cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_cache_misses_total",
			Help: "Total number of link cache misses",
		},
	)

	// CacheOperationDuration tracks cache latency by operation (get, set, delete)
	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "link_cache_operation_duration_seconds",
			Help:    "Duration of link cache operations in seconds",
			Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05},
		},
		[]string{"operation"},
	)

	// ==================== RATE LIMITING METRICS ====================

	RateLimitedRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of rate-limited requests",
		},
	)

	RateLimitAllowedRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_allowed_requests_total",
			Help: "Total number of requests allowed by rate limiter",
		},
	)

	// ==================== LINK METRICS ====================

	LinksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total number of links created",
		},
	)

	// RedirectsTotal counts redirect requests by terminal outcome
	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total number of redirect requests by outcome",
		},
		[]string{"outcome"},
	)

	// ClickWritesTotal counts daily click increments by result
	ClickWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "click_writes_total",
			Help: "Total number of daily click increments by result",
		},
		[]string{"result"},
	)

	// ClickWritesInFlight tracks detached click writes not yet finished
	ClickWritesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "click_writes_in_flight",
			Help: "Number of click increments currently running",
		},
	)

	// ==================== DATABASE METRICS ====================

	// DatabaseQueryDuration tracks database query latency
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	DatabaseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"operation"},
	)
)

func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// ObserveCache records the latency of a cache operation started at start
func ObserveCache(operation string, start time.Time) {
	CacheOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func RecordLinkCreated() {
	LinksCreatedTotal.Inc()
}

// RecordRedirect counts a redirect request with its terminal outcome
func RecordRedirect(outcome string) {
	RedirectsTotal.WithLabelValues(outcome).Inc()
}

// RecordClickWrite counts a finished click increment
func RecordClickWrite(err error) {
	if err != nil {
		ClickWritesTotal.WithLabelValues(ResultError).Inc()
		return
	}
	ClickWritesTotal.WithLabelValues(ResultOK).Inc()
}

func RecordRateLimited() {
	RateLimitedRequestsTotal.Inc()
}

func RecordRateLimitAllowed() {
	RateLimitAllowedRequestsTotal.Inc()
}

// ObserveQuery records the latency of a database operation and counts it
// as an error when err is non-nil
func ObserveQuery(operation string, start time.Time, err error) {
	DatabaseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DatabaseErrorsTotal.WithLabelValues(operation).Inc()
	}
}
