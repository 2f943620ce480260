package validation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "content_optimizer",
		Subsystem: "validation_cache",
		Name:      "requests_total",
		Help:      "Validation cache lookups by result (hit, miss) and tier (memory, redis).",
	}, []string{"result", "tier"})

	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "content_optimizer",
		Subsystem: "validation_cache",
		Name:      "evictions_total",
		Help:      "Entries evicted from the in-memory validation cache by the size bound.",
	})

	detectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "content_optimizer",
		Subsystem: "validation",
		Name:      "detect_duration_seconds",
		Help:      "Time spent running the issue detector on a cache miss.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
)
