// Package metrics registers the API server's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zenjournal"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	authEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Register, login and logout attempts by outcome.",
		},
		[]string{"event", "outcome"},
	)

	entryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_operations_total",
			Help:      "Entry API operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	gatekeeperRedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gatekeeper_redirects_total",
			Help:      "Page navigations redirected by the gatekeeper.",
		},
		[]string{"target"},
	)

	eventStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entry_event_streams",
			Help:      "Open entry event WebSocket connections.",
		},
	)
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func AuthEvent(event, outcome string) {
	authEventsTotal.WithLabelValues(event, outcome).Inc()
}

func EntryOperation(operation, outcome string) {
	entryOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func GatekeeperRedirect(target string) {
	gatekeeperRedirectsTotal.WithLabelValues(target).Inc()
}

// StreamOpened increments the open stream gauge and returns its decrement.
func StreamOpened() func() {
	eventStreams.Inc()
	return eventStreams.Dec
}
