// Package domain defines the core business types for fraudlens.
package domain

import (
	"encoding/json"
	"time"
)

// Category represents the inferred device category of a listing.
type Category string

// Category constants, in no particular order. Classification priority lives
// in pkg/analyze.
const (
	CategoryApple     Category = "APPLE"
	CategoryGaming    Category = "GAMING"
	CategoryWork      Category = "WORKSTATION"
	CategoryUltrabook Category = "PREMIUM_ULTRABOOK"
	CategoryChrome    Category = "CHROMEBOOK"
	CategorySurface   Category = "SURFACE"
	CategoryGeneric   Category = "GENERICO"
)

// Condition represents the normalized product condition.
type Condition string

// Condition constants.
const (
	ConditionNew     Condition = "NEW"
	ConditionLikeNew Condition = "LIKE_NEW"
	ConditionUsed    Condition = "USED"
	ConditionBroken  Condition = "BROKEN"
)

// Segment represents the market segment a priced listing falls into.
// Only PRIME listings contribute to reference price statistics.
type Segment string

// Segment constants.
const (
	SegmentPrime     Segment = "PRIME"
	SegmentBroken    Segment = "BROKEN"
	SegmentAccessory Segment = "ACCESSORY"
	SegmentUncertain Segment = "UNCERTAIN"
	SegmentJunk      Segment = "JUNK"
)

// ComponentKind identifies one scored hardware attribute.
type ComponentKind string

// Component kinds.
const (
	ComponentCPU ComponentKind = "cpu"
	ComponentRAM ComponentKind = "ram"
	ComponentGPU ComponentKind = "gpu"
)

// SpecSet holds the canonical hardware attributes extracted from a listing.
// Empty string means "not detected" and serializes as JSON null.
type SpecSet struct {
	CPU string
	RAM string
	GPU string
}

// Empty reports whether no component was detected at all.
func (s SpecSet) Empty() bool {
	return s.CPU == "" && s.RAM == "" && s.GPU == ""
}

// Component returns the canonical value for the given kind.
func (s SpecSet) Component(kind ComponentKind) string {
	switch kind {
	case ComponentCPU:
		return s.CPU
	case ComponentRAM:
		return s.RAM
	case ComponentGPU:
		return s.GPU
	default:
		return ""
	}
}

type specSetJSON struct {
	CPU *string `json:"cpu"`
	RAM *string `json:"ram"`
	GPU *string `json:"gpu"`
}

// MarshalJSON renders undetected components as null rather than "".
func (s SpecSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(specSetJSON{
		CPU: nullable(s.CPU),
		RAM: nullable(s.RAM),
		GPU: nullable(s.GPU),
	})
}

// UnmarshalJSON accepts null or string per component.
func (s *SpecSet) UnmarshalJSON(data []byte) error {
	var raw specSetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.CPU = deref(raw.CPU)
	s.RAM = deref(raw.RAM)
	s.GPU = deref(raw.GPU)
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Price is a currency amount that accepts both wire shapes the marketplace
// uses: a bare number or an {"amount": n, "currency": "EUR"} object.
// Malformed or missing prices normalize to zero, never to an error.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

// UnmarshalJSON implements the tolerant price decoding.
func (p *Price) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		p.Amount = n
		return nil
	}

	var obj struct {
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		p.Amount = 0
		return nil
	}
	amt, err := obj.Amount.Float64()
	if err != nil {
		amt = 0
	}
	p.Amount = amt
	p.Currency = obj.Currency
	return nil
}

// ConditionAttribute is the structured condition block from the item detail
// endpoint.
type ConditionAttribute struct {
	Value string `json:"value"`
}

// TypeAttributes carries structured attributes from the item detail lookup.
type TypeAttributes struct {
	Condition *ConditionAttribute `json:"condition,omitempty"`
}

// FlagAttribute is a {"flag": bool} wrapper used by the marketplace API.
type FlagAttribute struct {
	Flag bool `json:"flag"`
}

// ListingFlags holds moderation flags attached to a listing.
type ListingFlags struct {
	Banned bool `json:"banned,omitempty"`
	OnHold bool `json:"onhold,omitempty"`
}

// UserRef references the seller of a listing.
type UserRef struct {
	ID           string `json:"id"`
	RegisterDate int64  `json:"register_date,omitempty"` // unix millis
}

// Listing represents one marketplace listing flowing through the pipeline.
// The collector creates it; the pipeline only attaches derived fields.
type Listing struct {
	ID          string `json:"id"          db:"id"`
	Title       string `json:"title"       db:"title"`
	Description string `json:"description" db:"description"`
	Price       Price  `json:"price"       db:"price"`

	// Structured hints from the detail lookup; all optional.
	TypeAttributes *TypeAttributes `json:"type_attributes,omitempty"`
	IsRefurbished  *FlagAttribute  `json:"is_refurbished,omitempty"`
	Flags          *ListingFlags   `json:"flags,omitempty"`
	User           *UserRef        `json:"user,omitempty"`

	// Derived fields attached by the pipeline.
	Enrichment     *RiskResult `json:"enrichment,omitempty" db:"enrichment"`
	Segment        Segment     `json:"segment,omitempty" db:"segment"`
	PriceRecovered bool        `json:"price_recovered,omitempty" db:"price_recovered"`

	CrawledAt   time.Time `json:"crawled_at,omitzero" db:"crawled_at"`
	FirstSeenAt time.Time `json:"first_seen_at,omitzero" db:"first_seen_at"`
	UpdatedAt   time.Time `json:"updated_at,omitzero" db:"updated_at"`
}

// MarketAnalysis details the statistical side of a risk evaluation.
type MarketAnalysis struct {
	Category             Category  `json:"detected_category"`
	Condition            Condition `json:"detected_condition"`
	Specs                SpecSet   `json:"specs_detected"`
	CompositeZScore      float64   `json:"composite_z_score"`
	EstimatedMarketValue float64   `json:"estimated_market_value"`
	ComponentsUsed       []string  `json:"components_used"`
}

// RiskResult is the outcome of scoring one listing. Created once per
// listing; only the optional reputation pass may adjust it afterwards.
type RiskResult struct {
	RiskScore      int            `json:"risk_score"`
	RiskFactors    []string       `json:"risk_factors"`
	MarketAnalysis MarketAnalysis `json:"market_analysis"`
}

// SellerProfile aggregates the seller reputation data used by the optional
// reputation adjustment pass.
type SellerProfile struct {
	ReviewCount    int     `json:"review_count"`
	AvgStars       float64 `json:"avg_stars"`
	TopSeller      bool    `json:"top_seller"`
	AccountAgeDays int     `json:"account_age_days"`
	ScamReports    int     `json:"scam_reports"`
}
