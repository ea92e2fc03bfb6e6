// Package metrics defines Prometheus metrics for fraudlens.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fraudlens"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Poll cycle metrics.
var (
	PollListingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_listings_total",
		Help:      "Total number of listings collected from the marketplace.",
	})

	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_errors_total",
		Help:      "Total number of poll cycle errors.",
	})

	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Duration of poll cycles in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	HiddenPricesRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hidden_prices_recovered_total",
		Help:      "Total number of symbolic-price listings whose real price was recovered from text.",
	})
)

// Scoring metrics.
var (
	RiskScoreDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "risk_score_distribution",
		Help:      "Distribution of computed risk scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0, 10, 20, ..., 100
	})

	ReputationLookupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reputation_lookups_total",
		Help:      "Total number of seller reputation lookups performed.",
	})
)

// Stats table metrics.
var (
	StatsRebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_rebuilds_total",
		Help:      "Total number of reference stats table rebuilds.",
	})

	StatsTableCells = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stats_table_cells",
		Help:      "Category-condition cells in the active reference stats table.",
	})
)

// Marketplace API metrics.
var (
	MarketplaceCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "marketplace_api_calls_total",
		Help:      "Total marketplace API calls by endpoint.",
	}, []string{"endpoint"})

	MarketplaceCooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "marketplace_cooldowns_total",
		Help:      "Total number of cool-downs triggered by 429/403 responses.",
	})
)

// Health gauges, set by the metrics middleware on probe responses.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last liveness probe succeeded, 0 otherwise.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last readiness probe succeeded, 0 otherwise.",
	})
)

// State gauges, refreshed from the store after each poll cycle.
var (
	TotalListingsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "listings_total",
		Help:      "Total number of listings in the store.",
	})

	UnscoredListingsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "listings_unscored",
		Help:      "Listings not yet scored.",
	})

	HighRiskListingsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "listings_high_risk",
		Help:      "Listings at or above the alert threshold.",
	})

	PendingAlertsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "alerts_pending",
		Help:      "Alerts not yet notified.",
	})
)

// Alert metrics.
var (
	AlertsFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_fired_total",
		Help:      "Total number of high-risk alerts fired.",
	})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification send failures.",
	})
)
