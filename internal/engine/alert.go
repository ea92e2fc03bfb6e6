package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/secondhand-labs/fraudlens/internal/metrics"
	"github.com/secondhand-labs/fraudlens/internal/notify"
	"github.com/secondhand-labs/fraudlens/internal/store"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

const batchThreshold = 5

// ProcessAlerts sends notifications for pending alerts, then marks them as
// notified. When a cycle produced 5+ pending alerts they go out as one batch
// message. Failed notifications stay pending for the next cycle.
// listingURLBase, when set, prefixes the listing ID to form the link
// embedded in each notification.
func ProcessAlerts(
	ctx context.Context,
	s store.Store,
	n notify.Notifier,
	listingURLBase string,
	log *slog.Logger,
) error {
	pending, err := s.ListPendingAlerts(ctx)
	if err != nil {
		return fmt.Errorf("listing pending alerts: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	if len(pending) >= batchThreshold {
		return sendBatch(ctx, s, n, listingURLBase, log, pending)
	}

	for i := range pending {
		if err := sendSingle(ctx, s, n, listingURLBase, &pending[i]); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			log.Error("sending alert failed", "alert", pending[i].ID, "error", err)
		}
	}

	return nil
}

func sendSingle(
	ctx context.Context,
	s store.Store,
	n notify.Notifier,
	listingURLBase string,
	alert *domain.Alert,
) error {
	listing, err := s.GetListing(ctx, alert.ListingID)
	if err != nil {
		return fmt.Errorf("getting listing %s: %w", alert.ListingID, err)
	}
	if listing == nil {
		// Listing disappeared; nothing to notify about.
		return s.MarkAlertNotified(ctx, alert.ID)
	}

	payload := buildAlertPayload(listing, alert, listingURLBase)

	if err := n.SendAlert(ctx, payload); err != nil {
		return fmt.Errorf("sending alert: %w", err)
	}

	metrics.AlertsFiredTotal.Inc()

	return s.MarkAlertNotified(ctx, alert.ID)
}

func sendBatch(
	ctx context.Context,
	s store.Store,
	n notify.Notifier,
	listingURLBase string,
	log *slog.Logger,
	alerts []domain.Alert,
) error {
	payloads := make([]notify.AlertPayload, 0, len(alerts))
	alertIDs := make([]string, 0, len(alerts))

	for i := range alerts {
		listing, err := s.GetListing(ctx, alerts[i].ListingID)
		if err != nil || listing == nil {
			continue // listing may have been removed
		}
		payloads = append(payloads, *buildAlertPayload(listing, &alerts[i], listingURLBase))
		alertIDs = append(alertIDs, alerts[i].ID)
	}

	if len(payloads) == 0 {
		return nil
	}

	if err := n.SendBatchAlert(ctx, payloads); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		return fmt.Errorf("sending batch alert: %w", err)
	}

	metrics.AlertsFiredTotal.Add(float64(len(alertIDs)))

	for _, id := range alertIDs {
		if err := s.MarkAlertNotified(ctx, id); err != nil {
			log.Error("marking alert notified failed", "alert", id, "error", err)
		}
	}

	return nil
}

func buildAlertPayload(listing *domain.Listing, alert *domain.Alert, urlBase string) *notify.AlertPayload {
	p := &notify.AlertPayload{
		ListingTitle: listing.Title,
		Price:        fmt.Sprintf("%.2f %s", listing.Price.Amount, listing.Price.Currency),
		RiskScore:    alert.RiskScore,
		RiskFactors:  alert.RiskFactors,
		Segment:      string(listing.Segment),
	}
	if urlBase != "" {
		p.ListingURL = strings.TrimRight(urlBase, "/") + "/" + listing.ID
	}

	if listing.User != nil {
		p.Seller = listing.User.ID
	}
	if listing.Enrichment != nil {
		ma := listing.Enrichment.MarketAnalysis
		p.Category = string(ma.Category)
		p.Condition = string(ma.Condition)
		if ma.EstimatedMarketValue > 0 {
			p.EstimatedValue = fmt.Sprintf("%.2f %s", ma.EstimatedMarketValue, listing.Price.Currency)
		}
	}

	return p
}
