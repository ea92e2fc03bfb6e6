package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/secondhand-labs/fraudlens/internal/metrics"
	"github.com/secondhand-labs/fraudlens/pkg/marketstats"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// RunStatsRebuild recomputes the market statistics table from recently
// scored listings, persists it as a snapshot, and swaps it into the live
// scorer. Unscored backlog is then re-scored against the fresh table.
func (eng *Engine) RunStatsRebuild(ctx context.Context) error {
	runID, err := eng.store.InsertJobRun(ctx, "rebuild_stats")
	if err != nil {
		eng.log.Warn("recording job run failed", "err", err)
	}

	samples, rebuildErr := eng.rebuildStats(ctx)

	if runID != "" {
		status, errText := "success", ""
		if rebuildErr != nil {
			status, errText = "failed", rebuildErr.Error()
		}
		if err := eng.store.CompleteJobRun(ctx, runID, status, errText, samples); err != nil {
			eng.log.Warn("completing job run failed", "err", err)
		}
	}

	return rebuildErr
}

func (eng *Engine) rebuildStats(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "engine.rebuild_stats")
	defer span.End()

	since := eng.nowFunc().Add(-eng.rebuildWindow)

	listings, err := eng.store.ListScoredSince(ctx, since, defaultRebuildLimit)
	if err != nil {
		return 0, fmt.Errorf("listing scored listings: %w", err)
	}

	builder := marketstats.NewBuilder()
	var samples int
	for i := range listings {
		l := &listings[i]
		if l.Enrichment == nil {
			continue
		}
		builder.Add(marketstats.Sample{
			Category:  l.Enrichment.MarketAnalysis.Category,
			Condition: l.Enrichment.MarketAnalysis.Condition,
			Segment:   l.Segment,
			Specs:     l.Enrichment.MarketAnalysis.Specs,
			Price:     l.Price.Amount,
		})
		samples++
	}

	table := builder.Build()

	tableJSON, err := json.Marshal(table)
	if err != nil {
		return samples, fmt.Errorf("marshaling stats table: %w", err)
	}

	snap := &domain.StatsSnapshot{
		Table:       tableJSON,
		SampleCount: samples,
		CellCount:   table.Cells(),
	}
	if err := eng.store.InsertStatsSnapshot(ctx, snap); err != nil {
		return samples, fmt.Errorf("persisting stats snapshot: %w", err)
	}

	if eng.statsPath != "" {
		if err := table.Save(eng.statsPath); err != nil {
			eng.log.Warn("mirroring stats table to file failed", "path", eng.statsPath, "err", err)
		}
	}

	eng.SetStatsTable(table)
	metrics.StatsRebuildsTotal.Inc()
	span.SetAttributes(
		attribute.Int("stats.samples", samples),
		attribute.Int("stats.cells", table.Cells()),
	)

	eng.log.Info("stats table rebuilt",
		"samples", samples,
		"cells", table.Cells(),
		"segments", builder.SegmentCounts(),
	)

	if n, err := eng.RescoreUnscored(ctx, defaultRebuildLimit); err != nil {
		eng.log.Error("re-scoring backlog failed", "error", err)
	} else if n > 0 {
		eng.log.Info("backlog re-scored", "listings", n)
	}

	return samples, nil
}
