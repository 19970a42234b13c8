package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "canopy_sessions_active",
		Help: "Number of live view sessions.",
	})

	togglesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canopy_toggles_total",
		Help: "Total number of expand/collapse toggles across all sessions.",
	})

	framesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canopy_frames_served_total",
		Help: "Total number of frame batches served, labelled by terminal status.",
	}, []string{"terminal"})

	snapshotOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canopy_snapshot_ops_total",
		Help: "Total number of snapshot operations, labelled by op and status.",
	}, []string{"op", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "canopy_request_duration_ms",
		Help:    "HTTP request latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"route"})
)
