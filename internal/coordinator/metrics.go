package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskdash_control_dispatch_total",
		Help: "Control updates sent to the risk server, by kind and outcome.",
	}, []string{"kind", "outcome"})

	dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riskdash_control_dispatch_duration_seconds",
		Help:    "Round trip time of control updates.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	pendingDispatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riskdash_control_dispatch_in_flight",
		Help: "Control update requests currently awaiting the risk server.",
	})

	recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "riskdash_recompute_duration_seconds",
		Help:    "Time spent in the threat status and compliance cascade.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~400ms
	})

	modelRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskdash_model_refresh_total",
		Help: "Full model fetches, by trigger and outcome.",
	}, []string{"trigger", "outcome"})
)
