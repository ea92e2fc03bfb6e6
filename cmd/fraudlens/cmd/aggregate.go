package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/secondhand-labs/fraudlens/pkg/analyze"
	"github.com/secondhand-labs/fraudlens/pkg/marketstats"
)

func aggregateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "aggregate <listings-file>",
		Short: "Build a reference stats table from a listings dump",
		Long: "Analyze a historical listings dump (JSON array or NDJSON) and build\n" +
			"the reference market statistics table used for offline scoring.\n" +
			"Listings without a real price are skipped unless one can be recovered\n" +
			"from their text.",
		Example: `  fraudlens aggregate corpus.ndjson
  fraudlens aggregate corpus.json --out stats/march.json
  cat corpus.ndjson | fraudlens aggregate -`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			listings, err := readListings(args[0])
			if err != nil {
				return err
			}

			builder := marketstats.NewBuilder()
			var used, skipped int
			for i := range listings {
				l := &listings[i]

				price := l.Price.Amount
				if price < 1 {
					price = analyze.RecoverHiddenPrice(l.Title + " " + l.Description)
				}
				if price < 1 {
					skipped++
					continue
				}

				res := analyze.Analyze(l.Title, l.Description)
				cond := analyze.ResolveCondition(l, res.FullText)
				builder.Add(marketstats.Sample{
					Category:  res.Category,
					Condition: cond,
					Segment:   analyze.Segment(l.Title, price, cond, res.Specs),
					Specs:     res.Specs,
					Price:     price,
				})
				used++
			}

			table := builder.Build()
			if err := table.Save(out); err != nil {
				return fmt.Errorf("saving stats table: %w", err)
			}

			fmt.Printf("Aggregated %d listings (%d skipped) into %d cells: %s\n",
				used, skipped, table.Cells(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "market_stats.json", "output stats table path")

	return cmd
}
