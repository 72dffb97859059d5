package drift

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	observationsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drift",
		Name:      "observations_stored_total",
		Help:      "Observations appended to the store, by provider.",
	}, []string{"provider"})

	providerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drift",
		Name:      "provider_failures_total",
		Help:      "Failed provider queries, by provider and error kind.",
	}, []string{"provider", "kind"})

	scoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drift",
		Name:      "similarity_failures_total",
		Help:      "Similarity computations that degraded to 0.",
	}, []string{"provider"})

	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drift",
		Name:      "ticks_total",
		Help:      "Collection ticks, by outcome.",
	}, []string{"outcome"})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "drift",
		Name:      "tick_duration_seconds",
		Help:      "Wall time of one collection tick.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	lastSimilarity = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "drift",
		Name:      "last_similarity_score",
		Help:      "Most recent similarity score, by provider and question.",
	}, []string{"provider", "question_id"})
)
