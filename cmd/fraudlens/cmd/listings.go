package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/secondhand-labs/fraudlens/internal/api/client"
)

func listingsCmd() *cobra.Command {
	listingsRoot := &cobra.Command{
		Use:   "listings",
		Short: "Query listings",
		Long: "Query and inspect listings that have been collected and scored\n" +
			"by the fraudlens pipeline.",
	}

	listingsRoot.AddCommand(
		listingsListCmd(),
		listingsGetCmd(),
	)

	return listingsRoot
}

func listingsListCmd() *cobra.Command {
	var (
		minRisk        int
		maxRisk        int
		segment        string
		sellerID       string
		priceRecovered bool
		limit          int
		offset         int
		orderBy        string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings with optional filters",
		Long: "List collected listings with optional filters for risk score range,\n" +
			"market segment, seller, and sorting.",
		Example: `  # List all listings
  fraudlens listings list

  # High-risk PRIME segment listings
  fraudlens listings list --segment PRIME --min-risk 70

  # Listings whose price was recovered from the description
  fraudlens listings list --price-recovered

  # Sort by price with pagination
  fraudlens listings list --order-by price --limit 20 --offset 40`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListListings(context.Background(), &apiclient.ListListingsParams{
				MinRisk:        minRisk,
				MaxRisk:        maxRisk,
				Segment:        segment,
				SellerID:       sellerID,
				PriceRecovered: priceRecovered,
				Limit:          limit,
				Offset:         offset,
				OrderBy:        orderBy,
			})
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Listings) == 0 {
				fmt.Println("No listings found.")
				return nil
			}

			fmt.Printf("Showing %d of %d listings\n\n", len(resp.Listings), resp.Total)
			return printListingsTable(resp.Listings)
		},
	}
	cmd.Flags().IntVar(&minRisk, "min-risk", 0, "minimum risk score filter")
	cmd.Flags().IntVar(&maxRisk, "max-risk", 0, "maximum risk score filter")
	cmd.Flags().
		StringVar(&segment, "segment", "", "segment filter (PRIME, BROKEN, ACCESSORY, UNCERTAIN, JUNK)")
	cmd.Flags().StringVar(&sellerID, "seller", "", "seller ID filter")
	cmd.Flags().
		BoolVar(&priceRecovered, "price-recovered", false, "only listings with a text-recovered price")
	cmd.Flags().IntVar(&limit, "limit", 50, "number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset")
	cmd.Flags().
		StringVar(&orderBy, "order-by", "", "sort order (risk_score, price, first_seen_at)")

	return cmd
}

func listingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Short:   "Show listing details",
		Example: `  fraudlens listings get 9z0kw5v3j6mo`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			l, err := c.GetListing(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(l)
			}

			return printListingDetail(l)
		},
	}
}
