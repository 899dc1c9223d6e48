// Package metrics holds the Prometheus collectors scraped from /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
)

var (
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halo",
			Name:      "ai_requests_total",
			Help:      "Total number of language model calls by provider, operation and outcome",
		},
		[]string{"provider", "op", "outcome"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "halo",
			Name:      "ai_request_duration_seconds",
			Help:      "Duration of language model calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		},
		[]string{"provider", "op"},
	)

	SteamFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halo",
			Name:      "steam_fetch_total",
			Help:      "Total number of Steam library rebuilds by outcome",
		},
		[]string{"outcome"},
	)

	SteamCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halo",
			Name:      "steam_cache_lookups_total",
			Help:      "Steam library cache lookups by result",
		},
		[]string{"result"},
	)

	SummaryGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "halo",
			Name:      "summary_generated_total",
			Help:      "Post summaries generated by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	SummarySyncActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "halo",
			Name:      "summary_sync_active",
			Help:      "1 while a bulk summary sync is running",
		},
	)
)

// ObserveAI records one language model call
func ObserveAI(provider, op string, started time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	AIRequestsTotal.WithLabelValues(provider, op, outcome).Inc()
	AIRequestDuration.WithLabelValues(provider, op).Observe(time.Since(started).Seconds())
}

// Outcome maps an error to a success/failure label
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
