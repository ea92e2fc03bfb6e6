package analyze

import (
	"fmt"
	"regexp"
	"strings"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// All matching runs over lowercased text, so the patterns below are written
// in lowercase instead of compiling with (?i).

// cpuClass tags a CPU model pattern with its normalization rule.
type cpuClass int

const (
	cpuIntelCore cpuClass = iota // i3/i5/i7/i9
	cpuRyzen                     // ryzen 3/5/7/9
	cpuAppleM                    // m1/m2/m3 with optional pro/max/ultra
	cpuIntelLow                  // celeron/pentium/atom/xeon
	cpuARM                       // snapdragon, sq1-3
)

// cpuModelPattern pairs a model regex with its class. The capture groups are
// class-specific: group 1 is the model token, group 2 (Apple only) the
// variant suffix.
type cpuModelPattern struct {
	re    *regexp.Regexp
	class cpuClass
}

var cpuBrandRe = regexp.MustCompile(`\b(intel|amd|apple|qualcomm|microsoft)\b`)

var cpuModelPatterns = []cpuModelPattern{
	{regexp.MustCompile(`\b(?:core\s*-?)?(i[3579])\b`), cpuIntelCore},
	{regexp.MustCompile(`\bryzen\s*-?([3579])\b`), cpuRyzen},
	{regexp.MustCompile(`\b(m[123])\b(?:\s*(pro|max|ultra)\b)?`), cpuAppleM},
	{regexp.MustCompile(`\b(celeron|pentium|atom|xeon)\b`), cpuIntelLow},
	{regexp.MustCompile(`\b(snapdragon|sq[123])\b`), cpuARM},
}

var gpuBrandRe = regexp.MustCompile(`\b(nvidia|amd|radeon|geforce)\b`)

// GPU model patterns. Quadro and MX are matched so workstation cards route
// to the right category instead of relying on keyword fallback alone.
var gpuModelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b((?:rtx|gtx|rx)\s*-?\d{3,4}[a-z]*)\b`),
	regexp.MustCompile(`\b(quadro\s*-?[a-z]?\d{3,4}[a-z]*)\b`),
	regexp.MustCompile(`\b(mx\s*-?\d{3})\b`),
}

// ramRe matches "<n> gb" / "<n> gigas" mentions. Storage mentions are
// filtered out afterwards by ramStorageSuffixRe since RE2 has no lookahead.
var ramRe = regexp.MustCompile(`\b(\d+)\s*(?:gb|gigas?)\b`)

// ramStorageSuffixRe rejects a RAM match when the text right after it names
// a storage medium ("8gb ssd", "64 gb de emmc", ...).
var ramStorageSuffixRe = regexp.MustCompile(
	`^\s*(?:[.,\-/]\s*)?(?:de\s+)?(?:ssd|hdd|emmc|rom|almacenamiento|storage|disco|nvme|flash|interno|interna)\b`,
)

// validRAMSizes is the whitelist of commercially plausible laptop RAM sizes.
var validRAMSizes = map[int]bool{
	4: true, 6: true, 8: true, 12: true, 16: true, 20: true,
	24: true, 32: true, 40: true, 48: true, 64: true,
}

// Condition text patterns, checked in BROKEN > NEW > LIKE_NEW order: a
// broken or refurbished listing may also claim "like new" optimistically.
var (
	conditionBrokenRe = regexp.MustCompile(
		`\b(roto|averiado|fallo|bloqueado|icloud|bios|pantalla rota|no enciende|` +
			`no funciona|para piezas|despiece|repuesto|tarada|golpe|mojado|water|` +
			`broken|parts|read|leer|reparar)\b`,
	)
	conditionNewRe = regexp.MustCompile(
		`\b(nuevo|precintado|sin abrir|estrenar|sealed|new|garantia|factura)\b`,
	)
	// "como nuevo" / "casi nuevo" contain the NEW token "nuevo"; they are
	// blanked before the NEW check so they can reach the LIKE_NEW rule.
	likeNewQualifierRe = regexp.MustCompile(`\b(?:como|casi)\s+nuevo\b`)

	conditionLikeNewRe = regexp.MustCompile(
		`\b(como nuevo|impecable|perfecto estado|reacondicionado|refurbished|` +
			`poquisimo uso|sin uso)\b`,
	)
)

// categoryRule pairs a category with its keyword pattern. Order matters:
// rules are evaluated top to bottom and the first hit wins.
type categoryRule struct {
	category domain.Category
	re       *regexp.Regexp
}

// categoryRules is the keyword fallback table for classification. GAMING and
// APPLE keywords are present for title short-circuits but skipped by the
// generic keyword pass, which only runs after the hardware-based rules
// already had their chance.
var categoryRules = []categoryRule{
	{domain.CategoryApple, keywordPattern("macbook", "mac", "apple", "macos")},
	{domain.CategorySurface, keywordPattern("surface", "microsoft surface")},
	{domain.CategoryWork, keywordPattern(
		"thinkpad", "latitude", "precision", "zbook", "quadro", "elitebook", "probook",
	)},
	{domain.CategoryUltrabook, keywordPattern(
		"xps", "spectre", "zenbook", "gram", "yoga", "matebook",
	)},
	{domain.CategoryGaming, keywordPattern(
		"gaming", "gamer", "rog", "tuf", "alienware", "msi", "omen", "predator",
		"legion", "nitro", "victus", "loq", "blade", "razer",
	)},
	{domain.CategoryChrome, keywordPattern("chromebook", "chrome")},
}

// keywordPattern builds a whole-word alternation for a keyword list.
func keywordPattern(keywords ...string) *regexp.Regexp {
	escaped := make([]string, len(keywords))
	for i, kw := range keywords {
		escaped[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(fmt.Sprintf(`\b(?:%s)\b`, strings.Join(escaped, "|")))
}
