// Package analyze turns raw listing text into canonical hardware specs, a
// device category and a normalized condition. Pure text processing: no
// network, no storage, no errors — unparseable input degrades to empty
// fields rather than failing.
package analyze

import (
	"strings"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// Result is the outcome of analyzing one listing's text.
type Result struct {
	Specs     domain.SpecSet
	Category  domain.Category
	Condition domain.Condition

	// FullText is the sanitized, lowercased title+description the result
	// was derived from; the scorer reuses it for rule heuristics.
	FullText string
}

// Analyze runs the whole text pipeline: sanitize, extract per field with
// title priority, classify, constrain, resolve condition from text.
func Analyze(title, description string) Result {
	title = SanitizeAmbiguities(title)
	description = CapDescription(SanitizeAmbiguities(TruncateSpam(description)))
	fullText := strings.ToLower(title + " " + description)

	specs := mergeSpecs(ExtractSpecs(title), ExtractSpecs(description))

	category, ok := ClassifyTitle(title)
	if !ok {
		category = Classify(fullText, specs)
	}
	// Chromebooks have no discrete GPU; a match there is a comparison or a
	// bundled-console mention.
	if category == domain.CategoryChrome {
		specs.GPU = ""
	}

	specs = ApplyConstraints(specs, category, fullText)

	return Result{
		Specs:     specs,
		Category:  category,
		Condition: ConditionFromText(fullText),
		FullText:  fullText,
	}
}

// mergeSpecs combines per-field with title priority: the title is curated,
// the description accretes noise.
func mergeSpecs(title, desc domain.SpecSet) domain.SpecSet {
	merged := title
	if merged.CPU == "" {
		merged.CPU = desc.CPU
	}
	if merged.RAM == "" {
		merged.RAM = desc.RAM
	}
	if merged.GPU == "" {
		merged.GPU = desc.GPU
	}
	return merged
}
