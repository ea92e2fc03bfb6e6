package analyze

import (
	"strings"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// Title short-circuit keyword sets. The title is what the seller chose to
// lead with, so an unambiguous family name there settles the category before
// any hardware-based rule runs.
var appleTitleKeywords = []string{"macbook", "mac air", "mac pro", "imac"}

// ClassifyTitle applies the title short-circuits. The boolean reports
// whether a short-circuit fired; the caller falls back to Classify when it
// did not.
func ClassifyTitle(title string) (domain.Category, bool) {
	lower := strings.ToLower(title)
	if strings.Contains(lower, "chromebook") {
		return domain.CategoryChrome, true
	}
	for _, kw := range appleTitleKeywords {
		if strings.Contains(lower, kw) {
			return domain.CategoryApple, true
		}
	}
	if strings.Contains(lower, "surface") {
		return domain.CategorySurface, true
	}
	return "", false
}

// Classify determines the category from the full text and the extracted
// specs. Hardware evidence outranks keywords: Apple silicon, then a Quadro
// card, then any discrete GPU, then Apple wording (unless an AMD CPU makes
// an Apple machine impossible), then the keyword table, then a literal
// "gaming" mention, then GENERICO.
func Classify(fullText string, specs domain.SpecSet) domain.Category {
	lower := strings.ToLower(fullText)

	if strings.Contains(specs.CPU, "APPLE M") {
		return domain.CategoryApple
	}
	if specs.GPU != "" {
		if strings.Contains(specs.GPU, "QUADRO") {
			return domain.CategoryWork
		}
		return domain.CategoryGaming
	}
	if (strings.Contains(lower, "macbook") || strings.Contains(lower, "macos")) &&
		!strings.Contains(specs.CPU, "AMD") {
		return domain.CategoryApple
	}

	for _, rule := range categoryRules {
		if rule.category == domain.CategoryGaming || rule.category == domain.CategoryApple {
			continue
		}
		if rule.re.MatchString(lower) {
			return rule.category
		}
	}

	if strings.Contains(lower, "gaming") {
		return domain.CategoryGaming
	}
	return domain.CategoryGeneric
}
