package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	apiclient "github.com/secondhand-labs/fraudlens/internal/api/client"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func riskText(l *domain.Listing) string {
	if l.Enrichment == nil {
		return "-"
	}
	return fmt.Sprintf("%d", l.Enrichment.RiskScore)
}

func printListingsTable(listings []domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tTITLE\tPRICE\tRISK\tSEGMENT\tRECOVERED\n")
	for i := range listings {
		l := &listings[i]
		tw.writef("%s\t%s\t%.2f %s\t%s\t%s\t%v\n",
			l.ID,
			truncate(l.Title, 40),
			l.Price.Amount,
			l.Price.Currency,
			riskText(l),
			l.Segment,
			l.PriceRecovered,
		)
	}
	return tw.finish()
}

func printListingDetail(l *domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", l.ID)
	tw.writef("Title:\t%s\n", l.Title)
	tw.writef("Price:\t%.2f %s\n", l.Price.Amount, l.Price.Currency)
	tw.writef("Segment:\t%s\n", l.Segment)
	tw.writef("Price Recovered:\t%v\n", l.PriceRecovered)
	if l.User != nil {
		tw.writef("Seller:\t%s\n", l.User.ID)
	}
	tw.writef("First Seen:\t%s\n", l.FirstSeenAt.Format("2006-01-02 15:04:05"))
	if r := l.Enrichment; r != nil {
		ma := &r.MarketAnalysis
		tw.writef("Risk Score:\t%d/100\n", r.RiskScore)
		tw.writef("Category:\t%s\n", ma.Category)
		tw.writef("Condition:\t%s\n", ma.Condition)
		if ma.Specs.CPU != "" {
			tw.writef("CPU:\t%s\n", ma.Specs.CPU)
		}
		if ma.Specs.GPU != "" {
			tw.writef("GPU:\t%s\n", ma.Specs.GPU)
		}
		if ma.Specs.RAM != "" {
			tw.writef("RAM:\t%s\n", ma.Specs.RAM)
		}
		if ma.EstimatedMarketValue > 0 {
			tw.writef("Market Value:\t%.2f\n", ma.EstimatedMarketValue)
			tw.writef("Z-Score:\t%.2f\n", ma.CompositeZScore)
		}
		for _, f := range r.RiskFactors {
			tw.writef("Factor:\t%s\n", f)
		}
	}
	return tw.finish()
}

func printJobRunsTable(runs []domain.JobRun) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("JOB\tSTATUS\tSTARTED\tCOMPLETED\tROWS\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format("2006-01-02 15:04:05")
		}
		tw.writef("%s\t%s\t%s\t%s\t%d\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			completed,
			r.RowsAffected,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func printAlertsTable(alerts []domain.Alert) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("LISTING\tRISK\tCREATED\tFACTORS\n")
	for i := range alerts {
		a := &alerts[i]
		factors := ""
		if len(a.RiskFactors) > 0 {
			factors = truncate(a.RiskFactors[0], 50)
			if len(a.RiskFactors) > 1 {
				factors += fmt.Sprintf(" (+%d more)", len(a.RiskFactors)-1)
			}
		}
		tw.writef("%s\t%d\t%s\t%s\n",
			a.ListingID,
			a.RiskScore,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			factors,
		)
	}
	return tw.finish()
}

func printStatus(resp *apiclient.StatusResponse) error {
	tw := newTabWriter(os.Stdout)
	if s := resp.State; s != nil {
		tw.writef("Listings:\t%d\n", s.TotalListings)
		tw.writef("Unscored:\t%d\n", s.UnscoredListings)
		tw.writef("High Risk:\t%d\n", s.HighRiskListings)
		tw.writef("Pending Alerts:\t%d\n", s.PendingAlerts)
	}
	if st := resp.Stats; st != nil {
		tw.writef("Stats Samples:\t%d\n", st.SampleCount)
		tw.writef("Stats Cells:\t%d\n", st.CellCount)
		tw.writef("Stats Built:\t%s\n", st.BuiltAt.Format("2006-01-02 15:04:05"))
	} else {
		tw.writef("Stats:\tnot built yet\n")
	}
	if err := tw.finish(); err != nil {
		return err
	}

	if len(resp.LatestJobs) > 0 {
		fmt.Println()
		return printJobRunsTable(resp.LatestJobs)
	}
	return nil
}

func printScoreResult(res *apiclient.ScoreResult) error {
	tw := newTabWriter(os.Stdout)
	r := res.Result
	ma := &r.MarketAnalysis
	tw.writef("Risk Score:\t%d/100\n", r.RiskScore)
	tw.writef("Segment:\t%s\n", res.Segment)
	tw.writef("Category:\t%s\n", ma.Category)
	tw.writef("Condition:\t%s\n", ma.Condition)
	if ma.EstimatedMarketValue > 0 {
		tw.writef("Market Value:\t%.2f\n", ma.EstimatedMarketValue)
		tw.writef("Z-Score:\t%.2f\n", ma.CompositeZScore)
	}
	for _, f := range r.RiskFactors {
		tw.writef("Factor:\t%s\n", f)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
