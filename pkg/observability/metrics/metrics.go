package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_turns_total",
			Help: "Processed conversation turns by response source and language.",
		},
		[]string{"source", "language"},
	)

	turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_turn_duration_seconds",
			Help:    "End-to-end turn processing latency by response source.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"source"},
	)

	intentMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_intent_matches_total",
			Help: "Intent classification outcomes by match type.",
		},
		[]string{"match_type"},
	)

	classifierLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_classifier_latency_seconds",
			Help:    "Latency of individual NLU stages.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"stage"},
	)

	generativeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_generative_requests_total",
			Help: "Generative backend calls by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_store_errors_total",
			Help: "Storage backend failures by store and operation.",
		},
		[]string{"store", "op"},
	)

	cacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_cache_operations_total",
			Help: "Service cache lookups and evictions by result.",
		},
		[]string{"result"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatbot_sessions_active",
			Help: "Sessions currently held by the session store.",
		},
	)
)

// RecordTurn counts one completed turn.
func RecordTurn(source, language string) {
	turnsTotal.WithLabelValues(source, language).Inc()
}

// RecordTurnDuration observes end-to-end turn latency in seconds.
func RecordTurnDuration(source string, seconds float64) {
	turnDuration.WithLabelValues(source).Observe(seconds)
}

// RecordIntentMatch counts an intent classification outcome
// (pattern, similarity, context, none).
func RecordIntentMatch(matchType string) {
	intentMatches.WithLabelValues(matchType).Inc()
}

// RecordClassifierLatency observes one NLU stage in seconds.
func RecordClassifierLatency(stage string, seconds float64) {
	classifierLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordGenerativeRequest counts a generative call (outcome: ok, error, timeout).
func RecordGenerativeRequest(provider, outcome string) {
	generativeRequests.WithLabelValues(provider, outcome).Inc()
}

// RecordStoreError counts a storage backend failure.
func RecordStoreError(store, op string) {
	storeErrors.WithLabelValues(store, op).Inc()
}

// RecordCacheHit counts a service cache hit.
func RecordCacheHit() {
	cacheOperations.WithLabelValues("hit").Inc()
}

// RecordCacheMiss counts a service cache miss.
func RecordCacheMiss() {
	cacheOperations.WithLabelValues("miss").Inc()
}

// RecordCacheEviction counts a service cache eviction.
func RecordCacheEviction() {
	cacheOperations.WithLabelValues("eviction").Inc()
}

// IncActiveSessions tracks a session being created.
func IncActiveSessions() {
	sessionsActive.Inc()
}

// DecActiveSessions tracks a session being deleted or expired.
func DecActiveSessions() {
	sessionsActive.Dec()
}
