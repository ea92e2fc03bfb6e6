package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	var (
		title       string
		description string
		price       float64
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Score a hypothetical listing against the live stats table",
		Long: "Score a listing without persisting it. Useful for checking how a\n" +
			"listing you are looking at would be rated right now.",
		Example: `  fraudlens check --title "Macbook Pro M2 16GB" --price 300
  fraudlens check --title "Portatil gaming RTX 4060" --price 450 \
      --description "vendo por mudanza, solo whatsapp"`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			res, err := c.Score(context.Background(), title, description, price)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(res)
			}
			return printScoreResult(res)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "listing title")
	cmd.Flags().StringVar(&description, "description", "", "listing description")
	cmd.Flags().Float64Var(&price, "price", 0, "listing price in EUR")
	cobra.CheckErr(cmd.MarkFlagRequired("title"))

	return cmd
}
