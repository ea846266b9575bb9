package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ClientsAuthenticated counts successful client authentications per port.
	ClientsAuthenticated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pacd",
			Name:      "clients_authenticated_total",
			Help:      "Total number of clients that reached the Authenticated state",
		},
		[]string{"ifname", "method"},
	)

	// ClientsRejected counts RADIUS-rejected or exhausted-method attempts.
	ClientsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pacd",
			Name:      "clients_rejected_total",
			Help:      "Total number of clients that entered the Held state",
		},
		[]string{"ifname", "method"},
	)

	// ClientsActive gauges the current Authorized client count per port.
	ClientsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pacd",
			Name:      "clients_active",
			Help:      "Current number of Authorized clients on the port",
		},
		[]string{"ifname"},
	)

	// RadiusRequestsTotal counts Access-Requests sent per outcome.
	RadiusRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pacd",
			Name:      "radius_requests_total",
			Help:      "Total number of RADIUS Access-Requests sent",
		},
		[]string{"outcome"},
	)

	// RadiusRequestDuration observes RADIUS round-trip latency.
	RadiusRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pacd",
			Name:      "radius_request_duration_seconds",
			Help:      "RADIUS Access-Request round-trip latency",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// BusQueueDepth gauges the backlog per message bus queue.
	BusQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pacd",
			Name:      "bus_queue_depth",
			Help:      "Current number of undrained events per message bus queue",
		},
		[]string{"queue"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		// Register metrics, ignoring errors if already registered
		// This prevents panics when metrics are already in the registry
		prometheus.DefaultRegisterer.Register(ClientsAuthenticated)
		prometheus.DefaultRegisterer.Register(ClientsRejected)
		prometheus.DefaultRegisterer.Register(ClientsActive)
		prometheus.DefaultRegisterer.Register(RadiusRequestsTotal)
		prometheus.DefaultRegisterer.Register(RadiusRequestDuration)
		prometheus.DefaultRegisterer.Register(BusQueueDepth)
	})
}
