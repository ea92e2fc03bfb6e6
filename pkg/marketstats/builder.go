package marketstats

import (
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// Sample is one historical listing fed to the aggregator, already analyzed
// and segmented.
type Sample struct {
	Category  domain.Category
	Condition domain.Condition
	Segment   domain.Segment
	Specs     domain.SpecSet
	Price     float64
}

// Builder accumulates samples and produces an immutable Table. Not safe for
// concurrent use; build in one goroutine, share the result.
type Builder struct {
	prime     map[domain.Category]map[domain.Condition]*nodeAcc
	secondary map[domain.Segment][]float64
	counts    map[domain.Segment]int
}

type nodeAcc struct {
	cpu    map[string][]float64
	ram    map[string][]float64
	gpu    map[string][]float64
	prices []float64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		prime:     make(map[domain.Category]map[domain.Condition]*nodeAcc),
		secondary: make(map[domain.Segment][]float64),
		counts:    make(map[domain.Segment]int),
	}
}

// Add routes one sample into its population. PRIME samples feed the nested
// per-component populations; BROKEN and ACCESSORY feed flat segment
// summaries; JUNK is counted and dropped. A sample with neither a CPU nor a
// RAM value carries too little signal for the nested tables regardless of
// its segment, so it joins the UNCERTAIN price pool instead.
func (b *Builder) Add(s Sample) {
	b.counts[s.Segment]++

	switch {
	case s.Segment == domain.SegmentJunk:
	case s.Segment == domain.SegmentUncertain || (s.Specs.CPU == "" && s.Specs.RAM == ""):
		b.secondary[domain.SegmentUncertain] = append(b.secondary[domain.SegmentUncertain], s.Price)
	case s.Segment == domain.SegmentBroken, s.Segment == domain.SegmentAccessory:
		b.secondary[s.Segment] = append(b.secondary[s.Segment], s.Price)
	case s.Segment == domain.SegmentPrime:
		b.addPrime(s)
	}
}

func (b *Builder) addPrime(s Sample) {
	conds, ok := b.prime[s.Category]
	if !ok {
		conds = make(map[domain.Condition]*nodeAcc)
		b.prime[s.Category] = conds
	}
	acc, ok := conds[s.Condition]
	if !ok {
		acc = &nodeAcc{
			cpu: make(map[string][]float64),
			ram: make(map[string][]float64),
			gpu: make(map[string][]float64),
		}
		conds[s.Condition] = acc
	}

	if s.Specs.CPU != "" {
		acc.cpu[s.Specs.CPU] = append(acc.cpu[s.Specs.CPU], s.Price)
	}
	if s.Specs.RAM != "" {
		acc.ram[s.Specs.RAM] = append(acc.ram[s.Specs.RAM], s.Price)
	}
	if s.Specs.GPU != "" {
		acc.gpu[s.Specs.GPU] = append(acc.gpu[s.Specs.GPU], s.Price)
	}
	acc.prices = append(acc.prices, s.Price)
}

// SegmentCounts reports how many samples each segment received, including
// the dropped JUNK ones. Snapshot metadata, not reference data.
func (b *Builder) SegmentCounts() map[domain.Segment]int {
	out := make(map[domain.Segment]int, len(b.counts))
	for k, v := range b.counts {
		out[k] = v
	}
	return out
}

// Build summarizes the accumulated populations. Populations under the
// minimum sample counts are dropped rather than emitted with untrustworthy
// stdevs; a cell whose own price list is under the minimum disappears
// entirely, components and all.
func (b *Builder) Build() *Table {
	t := &Table{
		prime:     make(map[domain.Category]map[domain.Condition]*Node),
		secondary: make(map[domain.Segment]Stat),
	}

	for cat, conds := range b.prime {
		for cond, acc := range conds {
			if len(acc.prices) < minNestedSamples {
				continue
			}
			node := &Node{
				Stat: summarize(acc.prices),
				Components: Components{
					CPU: summarizeMap(acc.cpu),
					RAM: summarizeMap(acc.ram),
					GPU: summarizeMap(acc.gpu),
				},
			}
			if t.prime[cat] == nil {
				t.prime[cat] = make(map[domain.Condition]*Node)
			}
			t.prime[cat][cond] = node
		}
	}

	for seg, prices := range b.secondary {
		if len(prices) >= minFlatSamples {
			t.secondary[seg] = summarize(prices)
		}
	}

	return t
}

func summarizeMap(populations map[string][]float64) map[string]Stat {
	out := make(map[string]Stat)
	for value, prices := range populations {
		if len(prices) >= minNestedSamples {
			out[value] = summarize(prices)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
