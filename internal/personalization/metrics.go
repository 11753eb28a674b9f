package personalization

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal counts coordinator operations.
	// Labels: operation (learn_preferences, detect_patterns, ...),
	// result (success, error)
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "persona",
			Subsystem: "personalization",
			Name:      "operations_total",
			Help:      "Total coordinator operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	// operationDuration tracks operation latency.
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "persona",
			Subsystem: "personalization",
			Name:      "operation_duration_seconds",
			Help:      "Duration of coordinator operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// patternCacheLookups counts pattern cache hits and misses.
	// Labels: result (hit, miss, bypass)
	patternCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "persona",
			Subsystem: "personalization",
			Name:      "pattern_cache_lookups_total",
			Help:      "Pattern cache lookups by result",
		},
		[]string{"result"},
	)

	// trackedUsers reports how many users currently have in-memory
	// state (model, bandit, or profile).
	trackedUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "persona",
			Subsystem: "personalization",
			Name:      "tracked_users",
			Help:      "Number of users with in-memory personalization state",
		},
	)
)
