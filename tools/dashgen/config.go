package main

import "errors"

// KnownMetrics is the set of metric names exported by fraudlens plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"fraudlens_http_request_duration_seconds": true,
	"fraudlens_http_requests_total":           true,

	// Health metrics.
	"fraudlens_healthz_up": true,
	"fraudlens_readyz_up":  true,

	// Poll cycle metrics.
	"fraudlens_poll_listings_total":           true,
	"fraudlens_poll_errors_total":             true,
	"fraudlens_poll_duration_seconds":         true,
	"fraudlens_hidden_prices_recovered_total": true,

	// Scoring metrics.
	"fraudlens_risk_score_distribution":  true,
	"fraudlens_reputation_lookups_total": true,

	// Stats table metrics.
	"fraudlens_stats_rebuilds_total": true,
	"fraudlens_stats_table_cells":    true,

	// Marketplace API metrics.
	"fraudlens_marketplace_api_calls_total": true,
	"fraudlens_marketplace_cooldowns_total": true,

	// State gauges.
	"fraudlens_listings_total":     true,
	"fraudlens_listings_unscored":  true,
	"fraudlens_listings_high_risk": true,
	"fraudlens_alerts_pending":     true,

	// Alert metrics.
	"fraudlens_alerts_fired_total":          true,
	"fraudlens_notification_failures_total": true,

	// Recording rules.
	"fraudlens:http_requests:rate5m":         true,
	"fraudlens:http_errors:rate5m":           true,
	"fraudlens:poll_listings:rate5m":         true,
	"fraudlens:poll_errors:rate5m":           true,
	"fraudlens:marketplace_api_calls:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
