// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, route pattern and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration observes HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// LiveSessions is the number of users with an open live session.
	LiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_sessions",
			Help: "Number of connected live sessions",
		},
	)

	// EventsDispatched counts events fanned out, by event type.
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dispatched_total",
			Help: "Events handed to live sessions, per recipient",
		},
		[]string{"type"},
	)

	// EventsDropped counts events discarded by full session outboxes.
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Events discarded because a recipient queue was full",
		},
		[]string{"type"},
	)

	// RouteDeviations counts opened deviation episodes.
	RouteDeviations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "route_deviations_total",
			Help: "Route deviation episodes raised",
		},
	)

	// TripTransitions counts trip lifecycle transitions.
	TripTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_transitions_total",
			Help: "Trip lifecycle transitions applied",
		},
		[]string{"from", "to"},
	)
)
