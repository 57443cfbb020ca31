// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapfeed_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseQueriesTotal counts database statements by operation and table.
	DatabaseQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_database_queries_total",
		Help: "Total number of database statements executed",
	}, []string{"operation", "table"})

	// FeedStorePath counts post store calls by the strategy that served them.
	FeedStorePath = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_feed_store_path_total",
		Help: "Post store calls by serving strategy (native or raw)",
	}, []string{"path", "operation"})

	// FeedStoreFallbacks counts native calls that failed on a missing relation and were retried raw.
	FeedStoreFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_feed_store_fallbacks_total",
		Help: "Native post store calls recovered through the raw strategy",
	}, []string{"operation"})

	// FeedInfrastructureProvisions counts raw-table provisioning attempts by outcome.
	FeedInfrastructureProvisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapfeed_feed_infrastructure_provisions_total",
		Help: "Raw post table provisioning attempts by outcome",
	}, []string{"outcome"})
)

// ObserveQuery records the latency and count of one database statement.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	DatabaseQueriesTotal.WithLabelValues(operation, table).Inc()
}

// RecordFeedPath increments the strategy counter for a post store call.
func RecordFeedPath(path, operation string) {
	FeedStorePath.WithLabelValues(path, operation).Inc()
}
