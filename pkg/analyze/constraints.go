package analyze

import (
	"strconv"
	"strings"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// maxRAMDefault is the ceiling for categories without a specific limit.
const maxRAMDefault = 128

// ramLimits caps believable RAM per category. A "64GB" Chromebook listing
// is a storage size read as RAM, not a real machine.
var ramLimits = map[domain.Category]int{
	domain.CategoryChrome:    16,
	domain.CategorySurface:   32,
	domain.CategoryUltrabook: 64,
	domain.CategoryGeneric:   64,
}

// ApplyConstraints corrects spec/category combinations that cannot exist.
// fullText is the sanitized text the specs came from, used for bounded
// re-extraction.
func ApplyConstraints(specs domain.SpecSet, category domain.Category, fullText string) domain.SpecSet {
	specs.RAM = constrainRAM(specs.RAM, category, fullText)

	// Chromebooks do not ship Core i7; the "i7" is almost always a nearby
	// comparison ("rinde como un i7"). Downgrade to the entry chips.
	if category == domain.CategoryChrome && strings.Contains(specs.CPU, "I7") {
		lower := strings.ToLower(fullText)
		switch {
		case strings.Contains(lower, "celeron"):
			specs.CPU = "INTEL CELERON"
		case strings.Contains(lower, "pentium"):
			specs.CPU = "INTEL PENTIUM"
		}
	}

	return specs
}

func constrainRAM(ram string, category domain.Category, fullText string) string {
	if ram == "" {
		return ""
	}
	limit, ok := ramLimits[category]
	if !ok {
		limit = maxRAMDefault
	}
	n, err := strconv.Atoi(strings.TrimSuffix(ram, "GB"))
	if err != nil || n <= limit {
		return ram
	}
	// Over the ceiling: the match was storage. Re-scan for a smaller size;
	// null when nothing under the ceiling exists.
	return ExtractRAM(fullText, limit)
}
