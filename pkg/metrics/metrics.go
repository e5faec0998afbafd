package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "promptkeeper", Name: "http_requests_total", Help: "Number of handled HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "promptkeeper", Name: "store_operations_total", Help: "Number of document store operations by operation and outcome."},
		[]string{"operation", "status"},
	)
	StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "promptkeeper", Name: "store_operation_duration_seconds", Help: "Latency of document store operations.", Buckets: prometheus.DefBuckets},
		[]string{"operation"},
	)
	ReportCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "promptkeeper", Name: "report_cache_lookups_total", Help: "Industry report cache lookups by result (hit, miss, error)."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(StoreOperations)
	reg.MustRegister(StoreLatency)
	reg.MustRegister(ReportCacheLookups)
}

// ObserveStoreOp records one store round trip. status is "ok", "not_found" or "error".
func ObserveStoreOp(operation, status string, start time.Time) {
	StoreOperations.WithLabelValues(operation, status).Inc()
	StoreLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
