package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Console HTTP API
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	// Promotion API (upstream)
	PromoAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_api_requests_total",
			Help: "Total number of promotion API requests",
		},
		[]string{"operation", "status"},
	)
	PromoAPIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "promo_api_request_duration_seconds",
			Help: "Duration of promotion API requests in seconds",
		},
		[]string{"operation"},
	)
	SessionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_api_sessions_expired_total",
			Help: "Number of credentials cleared after the promotion API rejected them",
		},
	)

	// Uploads
	FileUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_uploads_total",
			Help: "Files processed by the upload orchestrator by final state",
		},
		[]string{"file_type", "state"},
	)
)

var initOnce sync.Once

// InitMetrics registers the collectors with the default registry, which
// already carries the Go and process collectors.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(HTTPRequestsInFlight)

		prometheus.MustRegister(PromoAPIRequestsTotal)
		prometheus.MustRegister(PromoAPIRequestDuration)
		prometheus.MustRegister(SessionsExpiredTotal)

		prometheus.MustRegister(FileUploadsTotal)
	})
}
