package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/secondhand-labs/fraudlens/pkg/analyze"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

func TestApplyConstraints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		specs    domain.SpecSet
		category domain.Category
		text     string
		want     domain.SpecSet
	}{
		{
			name:     "chromebook ram over ceiling reextracts",
			specs:    domain.SpecSet{RAM: "64GB"},
			category: domain.CategoryChrome,
			text:     "chromebook 64gb emmc y 8gb ram",
			want:     domain.SpecSet{RAM: "8GB"},
		},
		{
			name:     "chromebook ram nulls when nothing fits",
			specs:    domain.SpecSet{RAM: "64GB"},
			category: domain.CategoryChrome,
			text:     "chromebook con 64gb",
			want:     domain.SpecSet{RAM: ""},
		},
		{
			name:     "surface 64 over 32 ceiling",
			specs:    domain.SpecSet{RAM: "64GB"},
			category: domain.CategorySurface,
			text:     "surface pro 64gb",
			want:     domain.SpecSet{RAM: ""},
		},
		{
			name:     "generic 64 allowed",
			specs:    domain.SpecSet{RAM: "64GB"},
			category: domain.CategoryGeneric,
			text:     "torre 64gb ram",
			want:     domain.SpecSet{RAM: "64GB"},
		},
		{
			name:     "gaming default ceiling keeps 64",
			specs:    domain.SpecSet{RAM: "64GB", GPU: "NVIDIA RTX 4090"},
			category: domain.CategoryGaming,
			text:     "bestia gaming 64gb ram rtx 4090",
			want:     domain.SpecSet{RAM: "64GB", GPU: "NVIDIA RTX 4090"},
		},
		{
			name:     "chromebook i7 downgraded to celeron",
			specs:    domain.SpecSet{CPU: "INTEL I7", RAM: "4GB"},
			category: domain.CategoryChrome,
			text:     "chromebook celeron rapido como un i7 4gb ram",
			want:     domain.SpecSet{CPU: "INTEL CELERON", RAM: "4GB"},
		},
		{
			name:     "chromebook i7 without entry chip mention stays",
			specs:    domain.SpecSet{CPU: "INTEL I7"},
			category: domain.CategoryChrome,
			text:     "chromebook i7",
			want:     domain.SpecSet{CPU: "INTEL I7"},
		},
		{
			name:     "no ram passes through",
			specs:    domain.SpecSet{CPU: "APPLE M1"},
			category: domain.CategoryApple,
			text:     "macbook air m1",
			want:     domain.SpecSet{CPU: "APPLE M1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := analyze.ApplyConstraints(tt.specs, tt.category, tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}
