package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemeter_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviemeter_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviemeter_api_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemeter_auth_events_total",
			Help: "Authentication events by type and outcome",
		},
		[]string{"event", "outcome"},
	)

	// SessionWipes counts refresh-token mismatches that revoked every session of a user.
	SessionWipes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviemeter_session_wipes_total",
			Help: "Refresh token mismatches that revoked all sessions of a user",
		},
	)

	ImageDeleteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviemeter_image_delete_failures_total",
			Help: "Best-effort image deletions that failed",
		},
	)
)

func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func RecordAuthEvent(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}
