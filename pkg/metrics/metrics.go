package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweetflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tweetflow_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweetflow_store_operations_total",
			Help: "Total number of store operations by outcome",
		},
		[]string{"operation", "entity", "outcome"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tweetflow_store_operation_duration_seconds",
			Help:    "Store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "entity"},
	)

	EngagementTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tweetflow_engagement_total",
			Help: "Social actions applied, labelled by action",
		},
		[]string{"action"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tweetflow_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tweetflow_cache_hits_total",
			Help: "Cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tweetflow_cache_misses_total",
			Help: "Cache misses",
		},
	)
)

func RecordHttpRequest(method, endpoint, status string, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func RecordStoreOperation(operation, entity string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StoreOperationsTotal.WithLabelValues(operation, entity, outcome).Inc()
	StoreOperationDuration.WithLabelValues(operation, entity).Observe(duration.Seconds())
}

// RecordEngagement counts follow, like and retweet style actions.
func RecordEngagement(action string) {
	EngagementTotal.WithLabelValues(action).Inc()
}

func RecordRateLimited() {
	RateLimited.Inc()
}

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}
