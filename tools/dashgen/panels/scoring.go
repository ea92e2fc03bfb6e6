package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/bargauge"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ScoreDistribution returns a bar gauge panel showing the distribution of
// computed risk scores across histogram buckets.
func ScoreDistribution() *bargauge.PanelBuilder {
	return bargauge.NewPanelBuilder().
		Title("Risk Score Distribution").
		Description("Distribution of risk scores (0-100) over the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(FullWidth).
		WithTarget(PromQuery(
			`sum(increase(fraudlens_risk_score_distribution_bucket{job="fraudlens"}[1h])) by (le)`,
			"{{le}}", "A",
		)).
		Orientation(common.VizOrientationHorizontal).
		Min(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// UnscoredBacklog returns a timeseries panel showing listings waiting for a
// score.
func UnscoredBacklog() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Unscored Backlog").
		Description("Listings persisted but not yet scored").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`fraudlens_listings_unscored`, "unscored", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(100, 1000)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// HighRiskListings returns a stat panel showing listings at or above the
// alert threshold.
func HighRiskListings() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("High Risk Listings").
		Description("Listings at or above the alert threshold").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`fraudlens_listings_high_risk`, "", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// ReputationLookups returns a timeseries panel showing seller reputation
// lookups per minute. A spike means many suspicious listings at once.
func ReputationLookups() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Reputation Lookups / min").
		Description("Seller reputation lookups per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(fraudlens_reputation_lookups_total{job="fraudlens"}[5m])) * 60`,
			"lookups/min", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
