// Package marketstats builds and serves the reference price table the
// anomaly scorer compares listings against. PRIME listings aggregate into
// Category×Condition nodes with per-component price populations; the other
// segments only get flat summary stats.
package marketstats

import (
	"math"
	"sort"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// Minimum sample counts before a population is considered usable. Nested
// component stats are trusted earlier than the flat segment summaries
// because they are already narrowed by category and condition.
const (
	minNestedSamples = 2
	minFlatSamples   = 4
)

// Stat summarizes one price population.
type Stat struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stdev  float64 `json:"stdev"`
	Count  int     `json:"count"`
}

// Components holds one price population per seen component value.
type Components struct {
	CPU map[string]Stat `json:"cpu,omitempty"`
	RAM map[string]Stat `json:"ram,omitempty"`
	GPU map[string]Stat `json:"gpu,omitempty"`
}

// Node holds the reference stats for one Category×Condition cell: the
// cell-wide aggregate inlined at the node level, plus the nested
// per-component populations.
type Node struct {
	Stat
	Components Components `json:"components"`
}

// Component returns the population map for one component kind.
func (n *Node) Component(kind domain.ComponentKind) map[string]Stat {
	if n == nil {
		return nil
	}
	switch kind {
	case domain.ComponentCPU:
		return n.Components.CPU
	case domain.ComponentRAM:
		return n.Components.RAM
	case domain.ComponentGPU:
		return n.Components.GPU
	default:
		return nil
	}
}

// Table is an immutable reference price table. Build one with a Builder or
// load one from disk; never mutate it afterwards, it is shared across
// goroutines without locking.
type Table struct {
	prime     map[domain.Category]map[domain.Condition]*Node
	secondary map[domain.Segment]Stat
}

// Node returns the cell for a category and condition, or nil.
func (t *Table) Node(cat domain.Category, cond domain.Condition) *Node {
	if t == nil {
		return nil
	}
	return t.prime[cat][cond]
}

// Secondary returns the flat stat for a non-PRIME segment.
func (t *Table) Secondary(seg domain.Segment) (Stat, bool) {
	if t == nil {
		return Stat{}, false
	}
	s, ok := t.secondary[seg]
	return s, ok
}

// Empty reports whether the table has no usable populations at all.
func (t *Table) Empty() bool {
	return t == nil || (len(t.prime) == 0 && len(t.secondary) == 0)
}

// Cells reports how many Category×Condition nodes the table holds.
func (t *Table) Cells() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, conds := range t.prime {
		n += len(conds)
	}
	return n
}

// summarize computes a population Stat (population stdev, not sample).
func summarize(prices []float64) Stat {
	n := len(prices)
	if n == 0 {
		return Stat{}
	}
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, p := range prices {
		d := p - mean
		variance += d * d
	}
	variance /= float64(n)

	return Stat{
		Mean:   mean,
		Median: median(prices),
		Stdev:  math.Sqrt(variance),
		Count:  n,
	}
}

// median averages the two middle values on even counts.
func median(prices []float64) float64 {
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
