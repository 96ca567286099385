package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qh_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qh_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	AuthRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qh_auth_rejections_total",
			Help: "Total number of requests rejected for missing or invalid sessions",
		},
		[]string{"reason"},
	)
	RemoteSyncFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qh_remote_sync_failures_total",
			Help: "Remote record reads and writes that failed and fell back to the local cache",
		},
		[]string{"record", "op"},
	)
	LocalCacheFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qh_local_cache_failures_total",
			Help: "Local cache reads, writes and decodes that failed",
		},
		[]string{"record", "op"},
	)
	ContentAPIFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qh_content_api_failures_total",
			Help: "Failed requests to the Quran content API",
		},
		[]string{"endpoint"},
	)
)

// Register adds every collector to reg. Call it once from main.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthRejections,
		RemoteSyncFailures,
		LocalCacheFailures,
		ContentAPIFailures,
	)
}
