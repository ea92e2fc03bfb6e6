// Package riskscore turns an analyzed listing plus the reference price
// table into a 0-100 risk score. The statistical core is a weighted
// composite Z-score over whichever component populations the table has;
// rule heuristics add on top, and an optional seller-reputation pass
// adjusts the result afterwards.
package riskscore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/secondhand-labs/fraudlens/pkg/analyze"
	"github.com/secondhand-labs/fraudlens/pkg/marketstats"
	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// Rule heuristic thresholds and penalties.
const (
	symbolicPriceCeil = 5

	zSuspicious = -1.5
	zExtreme    = -2.5

	ratioFloor        = 0.4
	shortDescLen      = 30
	shortDescMinPrice = 200

	penaltySuspiciousZ = 30
	penaltyExtremeZ    = 40
	penaltyRatio       = 20
	penaltyShortDesc   = 15
	penaltyContact     = 30
	newFallbackInflate = 1.2
	fallbackDefaultStd = 100
)

// externalContactRe spots attempts to move the deal off-platform, where
// buyer protection does not follow.
var externalContactRe = regexp.MustCompile(`(?i)(whatsapp|wasap|6\d{8})`)

// Weights controls how much each component population contributes to the
// composite Z-score. They need not sum to 1; the composite normalizes by
// the weight actually present.
type Weights struct {
	CPU      float64
	GPU      float64
	RAM      float64
	Category float64
}

// DefaultWeights returns the standard component weights: the CPU dominates
// laptop resale price, the GPU matters for gaming machines, RAM and the
// category-wide population act as weak priors.
func DefaultWeights() Weights {
	return Weights{CPU: 0.5, GPU: 0.3, RAM: 0.1, Category: 0.1}
}

// Scorer scores listings against one immutable stats table. Safe for
// concurrent use.
type Scorer struct {
	table   *marketstats.Table
	weights Weights
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithWeights overrides the component weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w }
}

// New creates a Scorer over the given table. A nil or empty table is valid:
// scoring degrades to rule heuristics only.
func New(table *marketstats.Table, opts ...Option) *Scorer {
	s := &Scorer{table: table, weights: DefaultWeights()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score runs the full evaluation for one listing: text analysis, condition
// resolution, market comparison, rule heuristics. It never fails;
// unanalyzable listings score on heuristics alone.
func (s *Scorer) Score(l *domain.Listing) *domain.RiskResult {
	a := analyze.Analyze(l.Title, l.Description)
	condition := analyze.ResolveCondition(l, a.FullText)
	price := l.Price.Amount

	res := &domain.RiskResult{
		RiskFactors: []string{},
		MarketAnalysis: domain.MarketAnalysis{
			Category:  a.Category,
			Condition: condition,
			Specs:     a.Specs,
		},
	}

	// A symbolic price is not a discount, it is "price in description" or
	// "make me an offer". Nothing to compare against.
	if price < symbolicPriceCeil {
		res.RiskFactors = append(res.RiskFactors, "symbolic price")
		return res
	}

	z, est, used := s.compare(a.Specs, a.Category, condition, price)
	res.MarketAnalysis.CompositeZScore = z
	res.MarketAnalysis.EstimatedMarketValue = est
	res.MarketAnalysis.ComponentsUsed = used

	score := 0
	if z < zSuspicious {
		score += penaltySuspiciousZ
		res.RiskFactors = append(res.RiskFactors, fmt.Sprintf("price below market (z=%.2f)", z))
	}
	if z < zExtreme {
		score += penaltyExtremeZ
		res.RiskFactors = append(res.RiskFactors, "price extremely below market")
	}
	if est > 0 && price/est < ratioFloor {
		score += penaltyRatio
		res.RiskFactors = append(res.RiskFactors, "price under 40% of estimated value")
	}
	if len(strings.TrimSpace(l.Description)) < shortDescLen && price > shortDescMinPrice {
		score += penaltyShortDesc
		res.RiskFactors = append(res.RiskFactors, "short description for the price")
	}
	if externalContactRe.MatchString(l.Description) {
		score += penaltyContact
		res.RiskFactors = append(res.RiskFactors, "external contact in description")
	}

	res.RiskScore = clamp(score)
	return res
}

// compare computes the weighted composite Z-score and estimated market
// value for the listing, walking the condition fallback chain when the
// exact Category×Condition cell is missing.
func (s *Scorer) compare(
	specs domain.SpecSet,
	category domain.Category,
	condition domain.Condition,
	price float64,
) (z, est float64, used []string) {
	node, usedCond := s.lookupNode(category, condition)
	if node == nil {
		return 0, 0, nil
	}

	var zSum, estSum, weightSum float64
	for _, sig := range []struct {
		kind   domain.ComponentKind
		weight float64
	}{
		{domain.ComponentCPU, s.weights.CPU},
		{domain.ComponentGPU, s.weights.GPU},
		{domain.ComponentRAM, s.weights.RAM},
	} {
		if sig.weight <= 0 {
			continue
		}
		value := specs.Component(sig.kind)
		if value == "" {
			continue
		}
		stat, ok := node.Component(sig.kind)[value]
		if !ok || stat.Stdev <= 0 {
			continue
		}
		zSum += sig.weight * (price - stat.Mean) / stat.Stdev
		estSum += sig.weight * stat.Mean
		weightSum += sig.weight
		used = append(used, string(sig.kind))
	}
	if s.weights.Category > 0 && node.Stdev > 0 {
		zSum += s.weights.Category * (price - node.Mean) / node.Stdev
		estSum += s.weights.Category * node.Mean
		weightSum += s.weights.Category
		used = append(used, "category")
	}

	if weightSum == 0 {
		return 0, 0, nil
	}
	z = zSum / weightSum
	est = estSum / weightSum

	// Comparing a NEW listing against used-market stats undervalues it.
	// Inflate the estimate and re-derive z from the fallback population's
	// spread.
	if condition == domain.ConditionNew && usedCond != domain.ConditionNew {
		est *= newFallbackInflate
		var std float64 = fallbackDefaultStd
		if node.Stdev > 0 {
			std = node.Stdev
		}
		z = (price - est) / std
	}

	return z, est, used
}

// lookupNode returns the stats node for the condition, falling back
// NEW→LIKE_NEW→USED and LIKE_NEW→USED when the exact cell is missing.
func (s *Scorer) lookupNode(category domain.Category, condition domain.Condition) (*marketstats.Node, domain.Condition) {
	chain := []domain.Condition{condition}
	switch condition {
	case domain.ConditionNew:
		chain = append(chain, domain.ConditionLikeNew, domain.ConditionUsed)
	case domain.ConditionLikeNew:
		chain = append(chain, domain.ConditionUsed)
	}
	for _, cond := range chain {
		if node := s.table.Node(category, cond); node != nil {
			return node, cond
		}
	}
	return nil, condition
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
