package analyze

import (
	"regexp"
	"strings"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// Segment price boundaries. Below the symbolic threshold the price is a
// "contact me" placeholder, above the junk ceiling it is a typo or a troll.
const (
	symbolicPriceCeil = 5
	junkPriceFloor    = 10000
)

// laptopKeywords mark a title as describing a whole machine rather than an
// add-on for one.
var laptopKeywords = []string{"portatil", "portátil", "laptop", "macbook", "notebook"}

// accessoryKeywords are things sold *for* laptops.
var accessoryKeywords = []string{"funda", "caja", "dock", "raton", "ratón", "soporte", "maletin", "maletín"}

// componentRe matches spare-part listings (screens, keyboards, boards).
var componentRe = regexp.MustCompile(
	`\b(pantalla|teclado|bater[ií]a|cargador|placa base|disco duro|memoria ram|bisagra|carcasa)\b`,
)

// Segment buckets a listing for the statistics aggregator. Only PRIME
// listings feed reference prices.
func Segment(title string, price float64, condition domain.Condition, specs domain.SpecSet) domain.Segment {
	if price < symbolicPriceCeil {
		return domain.SegmentUncertain
	}
	if price > junkPriceFloor {
		return domain.SegmentJunk
	}
	if condition == domain.ConditionBroken {
		return domain.SegmentBroken
	}

	lower := strings.ToLower(title)
	laptop := containsAnyKeyword(lower, laptopKeywords)

	if kw, ok := firstKeyword(lower, accessoryKeywords); ok {
		// "Funda macbook pro" is an accessory even though the title names a
		// laptop; a leading accessory word settles it.
		if strings.HasPrefix(lower, kw) || !laptop || price < 100 {
			return domain.SegmentAccessory
		}
	}
	if componentRe.MatchString(lower) && !laptop {
		return domain.SegmentAccessory
	}

	return domain.SegmentPrime
}

func containsAnyKeyword(s string, kws []string) bool {
	_, ok := firstKeyword(s, kws)
	return ok
}

func firstKeyword(s string, kws []string) (string, bool) {
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}
