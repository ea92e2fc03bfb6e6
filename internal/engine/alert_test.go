package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

func seedAlert(fs *fakeStore, n int, withListing bool) {
	id := fmt.Sprintf("l%d", n)
	if withListing {
		fs.listings[id] = &domain.Listing{
			ID:    id,
			Title: "Portatil " + id,
			Price: domain.Price{Amount: 400, Currency: "EUR"},
			Enrichment: &domain.RiskResult{
				RiskScore: 80,
				MarketAnalysis: domain.MarketAnalysis{
					Category:             domain.CategoryGeneric,
					Condition:            domain.ConditionUsed,
					EstimatedMarketValue: 900,
				},
			},
		}
	}
	fs.alerts = append(fs.alerts, &domain.Alert{
		ID:          "alert-" + id,
		ListingID:   id,
		RiskScore:   80,
		RiskFactors: []string{"price below market (z=-2.00)"},
	})
}

func TestProcessAlerts_SinglePath(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fn := &fakeNotifier{}
	seedAlert(fs, 1, true)
	seedAlert(fs, 2, true)

	require.NoError(t, ProcessAlerts(context.Background(), fs, fn, "", quietLogger()))

	assert.Len(t, fn.single, 2)
	assert.Empty(t, fn.batches)
	assert.Equal(t, "400.00 EUR", fn.single[0].Price)
	assert.Equal(t, "900.00 EUR", fn.single[0].EstimatedValue)

	pending, _ := fs.ListPendingAlerts(context.Background())
	assert.Empty(t, pending)
}

func TestProcessAlerts_BatchPath(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fn := &fakeNotifier{}
	for i := 1; i <= 5; i++ {
		seedAlert(fs, i, true)
	}

	require.NoError(t, ProcessAlerts(context.Background(), fs, fn, "", quietLogger()))

	assert.Empty(t, fn.single)
	require.Len(t, fn.batches, 1)
	assert.Len(t, fn.batches[0], 5)

	pending, _ := fs.ListPendingAlerts(context.Background())
	assert.Empty(t, pending)
}

func TestProcessAlerts_MissingListingMarkedNotified(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fn := &fakeNotifier{}
	seedAlert(fs, 1, false)

	require.NoError(t, ProcessAlerts(context.Background(), fs, fn, "", quietLogger()))

	assert.Empty(t, fn.single)
	pending, _ := fs.ListPendingAlerts(context.Background())
	assert.Empty(t, pending)
}

func TestProcessAlerts_SendFailureStaysPending(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fn := &fakeNotifier{err: errors.New("webhook down")}
	seedAlert(fs, 1, true)

	require.NoError(t, ProcessAlerts(context.Background(), fs, fn, "", quietLogger()))

	pending, _ := fs.ListPendingAlerts(context.Background())
	assert.Len(t, pending, 1, "failed notification retries next cycle")
}

func TestProcessAlerts_BatchSendFailureStaysPending(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fn := &fakeNotifier{err: errors.New("webhook down")}
	for i := 1; i <= 6; i++ {
		seedAlert(fs, i, true)
	}

	require.Error(t, ProcessAlerts(context.Background(), fs, fn, "", quietLogger()))

	pending, _ := fs.ListPendingAlerts(context.Background())
	assert.Len(t, pending, 6)
}

func TestProcessAlerts_NoPending(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fn := &fakeNotifier{}
	require.NoError(t, ProcessAlerts(context.Background(), fs, fn, "", quietLogger()))
	assert.Empty(t, fn.single)
	assert.Empty(t, fn.batches)
}

func TestBuildAlertPayload(t *testing.T) {
	t.Parallel()

	listing := &domain.Listing{
		ID:      "x1",
		Title:   "Macbook Air M1",
		Price:   domain.Price{Amount: 250, Currency: "EUR"},
		Segment: domain.SegmentPrime,
		User:    &domain.UserRef{ID: "u9"},
		Enrichment: &domain.RiskResult{
			MarketAnalysis: domain.MarketAnalysis{
				Category:             domain.CategoryApple,
				Condition:            domain.ConditionLikeNew,
				EstimatedMarketValue: 750,
			},
		},
	}
	alert := &domain.Alert{RiskScore: 95, RiskFactors: []string{"price extremely below market"}}

	p := buildAlertPayload(listing, alert, "https://es.wallapop.com/item/")
	assert.Equal(t, "Macbook Air M1", p.ListingTitle)
	assert.Equal(t, "https://es.wallapop.com/item/x1", p.ListingURL)
	assert.Equal(t, "250.00 EUR", p.Price)
	assert.Equal(t, "750.00 EUR", p.EstimatedValue)
	assert.Equal(t, 95, p.RiskScore)
	assert.Equal(t, "APPLE", p.Category)
	assert.Equal(t, "LIKE_NEW", p.Condition)
	assert.Equal(t, "PRIME", p.Segment)
	assert.Equal(t, "u9", p.Seller)
}

func TestProcessAlerts_PayloadCarriesListingURL(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fn := &fakeNotifier{}
	seedAlert(fs, 1, true)

	require.NoError(t, ProcessAlerts(context.Background(), fs, fn, "https://es.wallapop.com/item", quietLogger()))

	require.Len(t, fn.single, 1)
	assert.Equal(t, "https://es.wallapop.com/item/l1", fn.single[0].ListingURL)
}
