// Package metrics holds the Prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendRequests counts engine invocations.
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total recommendation requests",
		},
		[]string{"kind"},
	)

	// RecommendEmpty counts requests that delivered nothing.
	RecommendEmpty = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_empty_total",
			Help: "Recommendation requests that produced an empty sequence",
		},
		[]string{"kind", "reason"},
	)

	// CandidatePoolSize observes the merged pool size before filtering.
	CandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_candidate_pool_size",
			Help:    "Distinct candidates per aggregation",
			Buckets: []float64{0, 5, 10, 20, 40, 80, 160},
		},
	)

	// TMDBRequests counts remote catalog calls by endpoint and outcome.
	TMDBRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_requests_total",
			Help: "TMDB API requests",
		},
		[]string{"endpoint", "outcome"},
	)

	// CircuitBreakerState mirrors the TMDB breaker (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
