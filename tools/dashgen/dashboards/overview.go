// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/secondhand-labs/fraudlens/tools/dashgen/panels"
)

// BuildOverview constructs the FraudLens Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("FraudLens Overview").
		Uid("fraudlens-overview").
		Tags([]string{"fraudlens", "marketplace"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.StatsCellsStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Marketplace API.
	b.WithRow(dashboard.NewRowBuilder("Marketplace API").
		WithPanel(panels.APICallsRate()).
		WithPanel(panels.Cooldowns()))

	// Row 4: Poll Cycle.
	b.WithRow(dashboard.NewRowBuilder("Poll Cycle").
		WithPanel(panels.ListingsRate()).
		WithPanel(panels.PollErrors()).
		WithPanel(panels.CycleDuration()).
		WithPanel(panels.HiddenPricesRecovered()))

	// Row 5: Scoring.
	b.WithRow(dashboard.NewRowBuilder("Scoring").
		WithPanel(panels.UnscoredBacklog()).
		WithPanel(panels.HighRiskListings()).
		WithPanel(panels.ReputationLookups()).
		WithPanel(panels.ScoreDistribution()))

	// Row 6: Alerts.
	b.WithRow(dashboard.NewRowBuilder("Alerts").
		WithPanel(panels.AlertsRate()).
		WithPanel(panels.PendingAlerts()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
