// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firewatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firewatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Ingest metrics
	ReadingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firewatch_readings_total",
			Help: "Total number of readings received",
		},
		[]string{"source", "status"}, // status: accepted, rejected
	)

	// Engine metrics
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firewatch_verdicts_total",
			Help: "Total number of verdicts by level",
		},
		[]string{"level"},
	)

	RiskScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "firewatch_risk_score",
			Help:    "Distribution of risk scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firewatch_alerts_total",
			Help: "Alert-eligible verdicts by outcome",
		},
		[]string{"level", "outcome"}, // outcome: dispatched, suppressed
	)

	TrackedDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "firewatch_tracked_devices",
			Help: "Number of devices with gatekeeper state",
		},
	)

	// Collaborator metrics
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firewatch_sink_errors_total",
			Help: "Alert delivery failures by sink",
		},
		[]string{"sink"},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firewatch_store_errors_total",
			Help: "Persistence failures by operation",
		},
		[]string{"operation"},
	)

	MQTTSubscribeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firewatch_mqtt_subscribe_failures_total",
			Help: "MQTT subscriptions that timed out or were refused",
		},
		[]string{"reason"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "firewatch_websocket_clients",
			Help: "Currently connected websocket clients",
		},
	)
)
