package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func pollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Trigger a poll cycle on the server",
		Long: "Trigger an immediate poll cycle: search every configured keyword,\n" +
			"score the new listings, and flush any resulting alerts.",
		Example: `  fraudlens poll`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			if err := c.TriggerPoll(context.Background()); err != nil {
				return err
			}
			fmt.Println("Poll cycle completed.")
			return nil
		},
	}
}

func rebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the reference market statistics table",
		Long: "Recompute the reference statistics table from recently scored\n" +
			"listings and swap it into the live scorer.",
		Example: `  fraudlens rebuild`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			if err := c.TriggerRebuild(context.Background()); err != nil {
				return err
			}
			fmt.Println("Stats rebuild completed.")
			return nil
		},
	}
}

func rescoreCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Score listings that are missing a risk score",
		Example: `  fraudlens rescore
  fraudlens rescore --limit 200`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			n, err := c.Rescore(context.Background(), limit)
			if err != nil {
				return err
			}
			fmt.Printf("Re-scored %d listings.\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 1000, "maximum listings to score")

	return cmd
}
