// Package metrics declares the Prometheus collectors shared by the
// notification core.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// NotificationsCreated counts persisted notifications by kind.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homefinder_notifications_created_total",
		Help: "Persisted notifications by kind",
	}, []string{"kind"})

	// NotificationsDeduplicated counts dispatches skipped because a prior
	// notification for the same dedup key already exists.
	NotificationsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homefinder_notifications_deduplicated_total",
		Help: "Dispatches skipped by the dedup check, by kind",
	}, []string{"kind"})

	// PushResults counts real-time push attempts by result.
	PushResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homefinder_push_results_total",
		Help: "Real-time push attempts by result (ok, failed)",
	}, []string{"result"})

	// LiveConnections tracks open websocket connections.
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "homefinder_ws_connections",
		Help: "Open websocket connections",
	})

	// SweeperRuns counts sweeper iterations by sweeper and result.
	SweeperRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homefinder_sweeper_runs_total",
		Help: "Sweeper iterations by sweeper and result (ok, failed, panic)",
	}, []string{"sweeper", "result"})

	// SweeperDuration tracks how long one sweep takes.
	SweeperDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homefinder_sweeper_duration_seconds",
		Help:    "Sweep duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"sweeper"})
)

// Handler exposes the default registry on a gin route.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
