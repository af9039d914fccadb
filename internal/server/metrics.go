package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenticular_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lenticular_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Alignment processing metrics
	alignRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenticular_align_requests_total",
			Help: "Total number of alignment requests",
		},
		[]string{"mode", "status"}, // mode: full, translation, rotation
	)

	alignProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lenticular_align_processing_duration_seconds",
			Help:    "Alignment processing duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"mode"},
	)

	alignPairOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenticular_align_pair_outcomes_total",
			Help: "Per-pair alignment step outcomes",
		},
		[]string{"stage", "status"},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lenticular_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024, 100 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lenticular_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lenticular_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
