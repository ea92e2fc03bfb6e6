package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/secondhand-labs/fraudlens/pkg/analyze"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

func TestSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		title     string
		price     float64
		condition domain.Condition
		specs     domain.SpecSet
		want      domain.Segment
	}{
		{
			name: "symbolic price", title: "Macbook Pro", price: 1,
			condition: domain.ConditionUsed, want: domain.SegmentUncertain,
		},
		{
			name: "boundary 4.99 uncertain", title: "Portatil", price: 4.99,
			condition: domain.ConditionUsed, want: domain.SegmentUncertain,
		},
		{
			name: "boundary 5 not uncertain", title: "Portatil HP", price: 5,
			condition: domain.ConditionUsed, want: domain.SegmentPrime,
		},
		{
			name: "junk price", title: "Portatil", price: 10001,
			condition: domain.ConditionNew, want: domain.SegmentJunk,
		},
		{
			name: "broken", title: "Portatil HP", price: 120,
			condition: domain.ConditionBroken, want: domain.SegmentBroken,
		},
		{
			name: "symbolic beats broken", title: "Portatil", price: 2,
			condition: domain.ConditionBroken, want: domain.SegmentUncertain,
		},
		{
			name: "accessory leading word beats laptop mention", title: "Funda macbook pro 14", price: 150,
			condition: domain.ConditionNew, want: domain.SegmentAccessory,
		},
		{
			name: "cheap accessory", title: "Portatil con funda", price: 60,
			condition: domain.ConditionUsed, want: domain.SegmentAccessory,
		},
		{
			name: "expensive laptop with accessory mention", title: "Portatil gaming con funda regalo", price: 800,
			condition: domain.ConditionUsed, want: domain.SegmentPrime,
		},
		{
			name: "component without laptop word", title: "Pantalla 15.6 nueva", price: 45,
			condition: domain.ConditionNew, want: domain.SegmentAccessory,
		},
		{
			name: "component word inside laptop listing", title: "Portatil con bateria nueva", price: 300,
			condition: domain.ConditionUsed, want: domain.SegmentPrime,
		},
		{
			name: "prime", title: "Macbook Air M2", price: 900,
			condition: domain.ConditionLikeNew, specs: domain.SpecSet{CPU: "APPLE M2"},
			want: domain.SegmentPrime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := analyze.Segment(tt.title, tt.price, tt.condition, tt.specs)
			assert.Equal(t, tt.want, got)
		})
	}
}
