package analyze

import (
	"regexp"
	"strconv"
)

// Hidden-price recovery bounds. Marketplace sellers dodge fee tiers by
// listing at a symbolic price and burying the real one in the description.
const (
	structuredPriceFloor = 20
	loosePriceFloor      = 50
	loosePriceCeil       = 5000
)

// structuredPriceRe matches explicit price statements ("precio: 450€",
// "vendo por 600 euros").
var structuredPriceRe = regexp.MustCompile(
	`(?i)(?:precio|valor|vendo|vende|pido|oferta)\s*:?\s*(?:por\s+)?(\d{2,4})(?:[.,]\d{1,2})?\s*(?:€|eur\b|euros\b)`,
)

// loosePriceRe matches any bare "<n>€" mention.
var loosePriceRe = regexp.MustCompile(`(?i)\b(\d{2,4})\s*(?:€|euros?\b)`)

// RecoverHiddenPrice scans free text for the real asking price of a
// symbolically-priced listing. Structured statements win over loose
// mentions; among loose mentions the largest plausible one wins. Returns
// 0 when nothing credible is found.
func RecoverHiddenPrice(text string) float64 {
	if m := structuredPriceRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > structuredPriceFloor {
			return float64(v)
		}
	}

	best := 0
	for _, m := range loosePriceRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if v >= loosePriceFloor && v <= loosePriceCeil && v > best {
			best = v
		}
	}
	return float64(best)
}
