package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestListingQuery_ToSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		query         ListingQuery
		wantCountSQL  string
		wantArgs      []any
		wantDataHas   []string // substrings that must appear in dataSQL
		wantDataNotIn []string // substrings that must NOT appear
	}{
		{
			name:  "empty query uses defaults",
			query: ListingQuery{},
			wantDataHas: []string{
				"FROM listings",
				"ORDER BY first_seen_at DESC",
				"LIMIT 50",
				"OFFSET 0",
			},
			wantDataNotIn: []string{"WHERE"},
			wantCountSQL:  "SELECT COUNT(*) FROM listings",
			wantArgs:      nil,
		},
		{
			name: "min risk filter",
			query: ListingQuery{
				MinRisk: ptr(70),
			},
			wantDataHas:  []string{"WHERE risk_score >= $1"},
			wantCountSQL: "SELECT COUNT(*) FROM listings WHERE risk_score >= $1",
			wantArgs:     []any{70},
		},
		{
			name: "max risk filter",
			query: ListingQuery{
				MaxRisk: ptr(90),
			},
			wantDataHas:  []string{"WHERE risk_score <= $1"},
			wantCountSQL: "SELECT COUNT(*) FROM listings WHERE risk_score <= $1",
			wantArgs:     []any{90},
		},
		{
			name: "segment filter",
			query: ListingQuery{
				Segment: ptr("PRIME"),
			},
			wantDataHas:  []string{"WHERE segment = $1"},
			wantCountSQL: "SELECT COUNT(*) FROM listings WHERE segment = $1",
			wantArgs:     []any{"PRIME"},
		},
		{
			name: "seller filter",
			query: ListingQuery{
				SellerID: ptr("u123"),
			},
			wantDataHas:  []string{"WHERE seller_id = $1"},
			wantCountSQL: "SELECT COUNT(*) FROM listings WHERE seller_id = $1",
			wantArgs:     []any{"u123"},
		},
		{
			name: "recovered price filter",
			query: ListingQuery{
				PriceRecovered: ptr(true),
			},
			wantDataHas:  []string{"WHERE price_recovered = $1"},
			wantCountSQL: "SELECT COUNT(*) FROM listings WHERE price_recovered = $1",
			wantArgs:     []any{true},
		},
		{
			name: "multiple filters with correct parameter numbering",
			query: ListingQuery{
				MinRisk:  ptr(60),
				MaxRisk:  ptr(95),
				Segment:  ptr("PRIME"),
				SellerID: ptr("u9"),
			},
			wantDataHas: []string{
				"risk_score >= $1",
				"risk_score <= $2",
				"segment = $3",
				"seller_id = $4",
				" AND ",
			},
			wantCountSQL: "SELECT COUNT(*) FROM listings WHERE risk_score >= $1 AND risk_score <= $2 AND segment = $3 AND seller_id = $4",
			wantArgs:     []any{60, 95, "PRIME", "u9"},
		},
		{
			name: "order by risk score",
			query: ListingQuery{
				OrderBy: "risk_score",
			},
			wantDataHas: []string{"ORDER BY risk_score DESC NULLS LAST"},
		},
		{
			name: "order by price",
			query: ListingQuery{
				OrderBy: "price",
			},
			wantDataHas: []string{"ORDER BY price ASC"},
		},
		{
			name: "invalid order by falls back to default",
			query: ListingQuery{
				OrderBy: "DROP TABLE listings; --",
			},
			wantDataHas:   []string{"ORDER BY first_seen_at DESC"},
			wantDataNotIn: []string{"DROP TABLE"},
		},
		{
			name: "custom limit and offset",
			query: ListingQuery{
				Limit:  25,
				Offset: 100,
			},
			wantDataHas: []string{
				"LIMIT 25",
				"OFFSET 100",
			},
		},
		{
			name: "limit exceeding max is capped",
			query: ListingQuery{
				Limit: 1000,
			},
			wantDataHas: []string{"LIMIT 500"},
		},
		{
			name: "negative limit defaults to 50",
			query: ListingQuery{
				Limit: -10,
			},
			wantDataHas: []string{"LIMIT 50"},
		},
		{
			name: "negative offset defaults to 0",
			query: ListingQuery{
				Offset: -5,
			},
			wantDataHas: []string{"OFFSET 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := tt.query
			dataSQL, countSQL, args := q.ToSQL()

			for _, s := range tt.wantDataHas {
				assert.Contains(t, dataSQL, s, "dataSQL should contain %q", s)
			}

			for _, s := range tt.wantDataNotIn {
				assert.NotContains(t, dataSQL, s, "dataSQL should not contain %q", s)
			}

			if tt.wantCountSQL != "" {
				assert.Equal(t, tt.wantCountSQL, countSQL)
			}

			if tt.wantArgs != nil {
				require.Len(t, args, len(tt.wantArgs))
				assert.Equal(t, tt.wantArgs, args)
			} else {
				assert.Empty(t, args)
			}
		})
	}
}
