package analyze

import (
	"regexp"
	"strings"
)

// maxDescriptionLen caps how much of a description feeds extraction. Long
// tails are keyword dumps more often than hardware facts.
const maxDescriptionLen = 400

// spamLineThreshold is the per-line noise token count that truncates the
// description at that line.
const spamLineThreshold = 3

// spamIndicators are tokens whose piling up in a single line marks the start
// of an SEO keyword dump ("rtx gtx intel amd ps5 xbox iphone...").
var spamIndicators = []string{
	"rtx", "gtx", "amd", "intel", "ryzen", "i7", "i5",
	"ps5", "xbox", "iphone", "samsung", "asus", "msi",
}

// M.2 disambiguation: "ssd m.2" and friends would otherwise feed a bare
// "m2" token to the Apple CPU matcher.
var (
	driveM2Re = regexp.MustCompile(`(?i)\b(ssd|disco|disk|drive|almacenamiento)\s+m\.?2\b`)
	m2DriveRe = regexp.MustCompile(`(?i)\bm\.?2\s+(ssd|nvme|sata)\b`)
)

// SanitizeAmbiguities rewrites tokens that would mislead the extractor,
// currently the storage "M.2" forms. Idempotent: the rewritten forms match
// none of the patterns again.
func SanitizeAmbiguities(text string) string {
	text = driveM2Re.ReplaceAllString(text, "${1}_NVME")
	text = m2DriveRe.ReplaceAllString(text, "NVME_${1}")
	return text
}

// TruncateSpam cuts the description at the first line that reads like a
// keyword dump. Everything from that line on is dropped.
func TruncateSpam(description string) string {
	lines := strings.Split(description, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		hits := 0
		for _, tok := range spamIndicators {
			if strings.Contains(lower, tok) {
				hits++
			}
		}
		if hits > spamLineThreshold {
			return strings.Join(lines[:i], "\n")
		}
	}
	return description
}

// CapDescription truncates to maxDescriptionLen runes.
func CapDescription(description string) string {
	runes := []rune(description)
	if len(runes) <= maxDescriptionLen {
		return description
	}
	return string(runes[:maxDescriptionLen])
}
