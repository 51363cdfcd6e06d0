package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsServed counts ranking responses by result mode
	// ("personalized", "latest", "degraded").
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total number of ranking responses by mode",
		},
		[]string{"mode"},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_ranking_duration_seconds",
			Help:    "Time spent ranking one article pool",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SignalFailures counts scorer errors that were zeroed instead of aborting the ranking.
	SignalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_signal_failures_total",
			Help: "Total number of signal computations that failed closed",
		},
		[]string{"signal"},
	)

	RecommendationCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_results_total",
			Help: "Recommendation cache lookups by outcome",
		},
		[]string{"outcome"}, // "hit", "miss", "error"
	)

	// IngestedArticles counts articles seen by the ingestion pipeline by outcome.
	IngestedArticles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingested_articles_total",
			Help: "Articles processed by the ingestion pipeline",
		},
		[]string{"source", "outcome"}, // outcome: "stored", "duplicate", "failed"
	)

	SourceFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_errors_total",
			Help: "News source fetch failures",
		},
		[]string{"source"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
