package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversation-sync metrics
var (
	// Poll rounds by observed outcome
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "conversation_sync",
			Name:      "polls_total",
			Help:      "Total task poll rounds by observed outcome",
		},
		[]string{"outcome"},
	)

	// Settlements by terminal status
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "conversation_sync",
			Name:      "settlements_total",
			Help:      "Total poller settlements by terminal status",
		},
		[]string{"status"},
	)

	// Active poller gauge
	ActivePollers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agent",
			Subsystem: "conversation_sync",
			Name:      "active_pollers",
			Help:      "Pollers currently tracking an in-flight task",
		},
	)

	// Cache counters
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "conversation_sync",
			Name:      "cache_hits_total",
			Help:      "Query cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "conversation_sync",
			Name:      "cache_misses_total",
			Help:      "Query cache misses",
		},
	)

	CacheInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "conversation_sync",
			Name:      "cache_invalidations_total",
			Help:      "Targeted query cache invalidations",
		},
	)

	// State writes by backend
	StateWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agent",
			Subsystem: "conversation_sync",
			Name:      "state_writes_total",
			Help:      "Persisted conversation state merges",
		},
		[]string{"backend"},
	)
)
