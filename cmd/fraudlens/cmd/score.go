package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/secondhand-labs/fraudlens/pkg/analyze"
	"github.com/secondhand-labs/fraudlens/pkg/marketstats"
	"github.com/secondhand-labs/fraudlens/pkg/riskscore"
)

func scoreCmd() *cobra.Command {
	var (
		statsPath string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "score <listings-file>",
		Short: "Score a listings dump offline",
		Long: "Score a listings dump (JSON array or NDJSON) against a previously\n" +
			"aggregated stats table, without a server or database. Enriched\n" +
			"listings are written as NDJSON; listings whose price cannot be\n" +
			"determined are dropped.",
		Example: `  fraudlens score corpus.ndjson
  fraudlens score corpus.ndjson --stats stats/march.json --out scored.ndjson
  cat corpus.ndjson | fraudlens score - | jq 'select(.enrichment.risk_score >= 70)'`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// A missing or unreadable table is a cold start, not a failure:
			// listings still score on their text signals alone.
			table, err := marketstats.Load(statsPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: stats table %s unusable (%v); scoring without reference data.\n",
					statsPath, err)
				table = nil
			}
			scorer := riskscore.New(table)

			listings, err := readListings(args[0])
			if err != nil {
				return err
			}

			var out io.Writer = os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath) //nolint:gosec // path from trusted CLI arg
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close() //nolint:errcheck // checked via enc.Encode
				out = f
			}
			enc := json.NewEncoder(out)

			var scored, dropped int
			for i := range listings {
				l := &listings[i]

				if l.Price.Amount < 1 {
					recovered := analyze.RecoverHiddenPrice(l.Title + " " + l.Description)
					if recovered <= 0 {
						dropped++
						continue
					}
					l.Price.Amount = recovered
					l.PriceRecovered = true
				}

				res := scorer.Score(l)
				if l.PriceRecovered {
					res.RiskFactors = append(res.RiskFactors, "price recovered from description")
				}
				l.Segment = analyze.Segment(l.Title, l.Price.Amount,
					res.MarketAnalysis.Condition, res.MarketAnalysis.Specs)
				l.Enrichment = res

				if err := enc.Encode(l); err != nil {
					return fmt.Errorf("writing scored listing: %w", err)
				}
				scored++
			}

			fmt.Fprintf(os.Stderr, "Scored %d listings (%d dropped).\n", scored, dropped)
			return nil
		},
	}
	cmd.Flags().StringVar(&statsPath, "stats", "market_stats.json", "reference stats table path")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	return cmd
}
