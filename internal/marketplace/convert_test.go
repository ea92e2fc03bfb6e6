package marketplace_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/secondhand-labs/fraudlens/internal/marketplace"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

func TestToListing(t *testing.T) {
	t.Parallel()

	crawled := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	item := marketplace.Item{
		ID:          "x1",
		Title:       "Portatil i7",
		Description: "16gb ram",
		Price:       domain.Price{Amount: 450, Currency: "EUR"},
		User:        &domain.UserRef{ID: "u7"},
	}

	l := marketplace.ToListing(&item, crawled)
	assert.Equal(t, "x1", l.ID)
	assert.Equal(t, 450.0, l.Price.Amount)
	assert.Equal(t, "u7", l.User.ID)
	assert.Equal(t, crawled, l.CrawledAt)
}

func TestApplyDetail(t *testing.T) {
	t.Parallel()

	l := domain.Listing{ID: "x1", Description: "corta"}
	marketplace.ApplyDetail(&l, &marketplace.ItemDetail{
		TypeAttributes: &domain.TypeAttributes{
			Condition: &domain.ConditionAttribute{Value: "new"},
		},
		IsRefurbished: &domain.FlagAttribute{Flag: false},
		Description:   &marketplace.DetailDescription{Original: "descripcion bastante mas larga"},
	})

	assert.Equal(t, "new", l.TypeAttributes.Condition.Value)
	assert.NotNil(t, l.IsRefurbished)
	assert.Equal(t, "descripcion bastante mas larga", l.Description)

	// Shorter detail description never replaces a longer one.
	marketplace.ApplyDetail(&l, &marketplace.ItemDetail{
		Description: &marketplace.DetailDescription{Original: "corta"},
	})
	assert.Equal(t, "descripcion bastante mas larga", l.Description)

	// Nil detail is a no-op.
	marketplace.ApplyDetail(&l, nil)
	assert.Equal(t, "x1", l.ID)
}

func TestToSellerProfile(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	registered := now.AddDate(0, 0, -400)

	profile := &marketplace.UserProfile{
		ID:           "u1",
		RegisterDate: registered.UnixMilli(),
		Badges:       []string{"TOP_PROFILE"},
	}
	reviews := []marketplace.Review{reviewWithScoring(100), reviewWithScoring(80)}

	sp := marketplace.ToSellerProfile(profile, reviews, now)
	assert.True(t, sp.TopSeller)
	assert.Equal(t, 400, sp.AccountAgeDays)
	assert.Equal(t, 2, sp.ReviewCount)
	// (100+80)/2 on a 0-100 scale is 4.5 stars.
	assert.InDelta(t, 4.5, sp.AvgStars, 0.001)
	assert.Zero(t, sp.ScamReports)
}

func TestToSellerProfileProType(t *testing.T) {
	t.Parallel()

	sp := marketplace.ToSellerProfile(&marketplace.UserProfile{Type: "pro"}, nil, time.Now())
	assert.True(t, sp.TopSeller)
	assert.Zero(t, sp.ReviewCount)
}

func TestToSellerProfileNil(t *testing.T) {
	t.Parallel()

	sp := marketplace.ToSellerProfile(nil, nil, time.Now())
	assert.Equal(t, domain.SellerProfile{}, sp)
}

func reviewWithScoring(s int) marketplace.Review {
	var r marketplace.Review
	r.Review.Scoring = s
	return r
}
