// Package metrics provides Prometheus metrics and HTTP middleware for
// monitoring indexing and search.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InferenceBuckets covers local CPU inference and remote embedding calls,
// from 10ms to 60s.
var InferenceBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

var (
	// OperationsTotal counts index and search operations by outcome.
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semfind_operations_total",
			Help: "Index and search operations",
		},
		[]string{"operation", "status"},
	)

	// OperationDuration records end-to-end operation latency in seconds.
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "semfind_operation_duration_seconds",
			Help:    "Operation duration",
			Buckets: InferenceBuckets,
		},
		[]string{"operation"},
	)

	// EmbedDuration records embedding latency by provider and task.
	EmbedDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "semfind_embed_duration_seconds",
			Help:    "Embedding duration",
			Buckets: InferenceBuckets,
		},
		[]string{"provider", "task"},
	)

	// LockWait records how long callers waited for a guarded resource.
	LockWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "semfind_lock_wait_seconds",
			Help:    "Time spent waiting for a resource lock",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"resource"},
	)

	// CacheLookupsTotal counts embedding cache lookups by result.
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semfind_embedding_cache_lookups_total",
			Help: "Embedding cache lookups",
		},
		[]string{"result"},
	)

	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semfind_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "semfind_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: InferenceBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		OperationsTotal,
		OperationDuration,
		EmbedDuration,
		LockWait,
		CacheLookupsTotal,
		RequestsTotal,
		RequestDuration,
	)
}

// ObserveOperation records one finished operation.
func ObserveOperation(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	OperationsTotal.WithLabelValues(op, status).Inc()
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
