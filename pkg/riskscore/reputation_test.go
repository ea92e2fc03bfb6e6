package riskscore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/secondhand-labs/fraudlens/pkg/riskscore"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

func TestAdjustForSeller(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		start     int
		seller    domain.SellerProfile
		want      int
		wantFact  string
	}{
		{
			name:     "trusted seller discount",
			start:    70,
			seller:   domain.SellerProfile{ReviewCount: 12, AvgStars: 4.8},
			want:     40,
			wantFact: "established seller with good reviews",
		},
		{
			name:     "top seller discount",
			start:    70,
			seller:   domain.SellerProfile{TopSeller: true, AccountAgeDays: 100},
			want:     20,
			wantFact: "top seller",
		},
		{
			name:     "brand new account",
			start:    30,
			seller:   domain.SellerProfile{AccountAgeDays: 1},
			want:     60,
			wantFact: "account created days ago",
		},
		{
			name:     "dormant account with no history",
			start:    30,
			seller:   domain.SellerProfile{AccountAgeDays: 900, ReviewCount: 0},
			want:     50,
			wantFact: "old account with no sales history",
		},
		{
			name:     "scam report pins score",
			start:    0,
			seller:   domain.SellerProfile{ScamReports: 1, TopSeller: true, ReviewCount: 50, AvgStars: 5, AccountAgeDays: 2000},
			want:     100,
			wantFact: "seller has scam reports",
		},
		{
			name:   "clamped at zero",
			start:  10,
			seller: domain.SellerProfile{TopSeller: true, ReviewCount: 20, AvgStars: 4.9, AccountAgeDays: 400},
			want:   0,
		},
		{
			name:   "five reviews is not yet trusted",
			start:  50,
			seller: domain.SellerProfile{ReviewCount: 5, AvgStars: 5, AccountAgeDays: 200},
			want:   50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := &domain.RiskResult{RiskScore: tt.start}
			riskscore.AdjustForSeller(res, tt.seller)
			assert.Equal(t, tt.want, res.RiskScore)
			if tt.wantFact != "" {
				assert.Contains(t, res.RiskFactors, tt.wantFact)
			}
		})
	}
}

func TestAdjustForSellerNilResult(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		riskscore.AdjustForSeller(nil, domain.SellerProfile{TopSeller: true})
	})
}
