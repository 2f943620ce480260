package optimizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_optimizer",
		Subsystem: "optimizer",
		Name:      "sessions_total",
		Help:      "Finished optimization sessions by termination reason.",
	}, []string{"reason"})

	passesPerSession = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "content_optimizer",
		Subsystem: "optimizer",
		Name:      "passes_per_session",
		Help:      "Correction passes executed per session.",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	})

	passRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "content_optimizer",
		Subsystem: "optimizer",
		Name:      "pass_rollbacks_total",
		Help:      "Passes rolled back after a major structure violation or a critical error.",
	})
)
