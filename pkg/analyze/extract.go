package analyze

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	domain "github.com/secondhand-labs/fraudlens/pkg/types"
)

// Extraction runs in two phases: collectCandidates scans the text once and
// records every raw match, then resolveConflicts turns the candidate set
// into a canonical SpecSet without looking at the text again. Resolution is
// pure so conflict rules stay testable without regex fixtures.

// candidateSet is the raw output of the collection phase. Model tokens are
// normalized to upper case; sets dedup repeated mentions.
type candidateSet struct {
	ram       string
	cpuBrand  string
	cpuModels map[string]struct{}
	apple     bool
	gpuBrand  string
	gpuModels map[string]struct{}
}

var (
	appleModelRe = regexp.MustCompile(`^M[123]`)
	pcModelRe    = regexp.MustCompile(`^(?:I[3579]|RYZEN|CELERON|PENTIUM|ATOM|XEON)`)
	gpuSplitRe   = regexp.MustCompile(`^([A-Z]+)(\d.*)$`)
	spacesRe     = regexp.MustCompile(`\s+`)
)

// ExtractSpecs extracts the canonical CPU, RAM and GPU from one text blob.
// The text is lowercased internally; callers pass sanitized text.
func ExtractSpecs(text string) domain.SpecSet {
	return resolveConflicts(collectCandidates(strings.ToLower(text)))
}

// ExtractRAM finds the largest whitelisted RAM size in the text that is at
// most maxGB, skipping matches that the surrounding text marks as storage.
// Returns "" when no valid size remains.
func ExtractRAM(text string, maxGB int) string {
	text = strings.ToLower(text)
	best := 0
	for _, idx := range ramRe.FindAllStringSubmatchIndex(text, -1) {
		n, err := strconv.Atoi(text[idx[2]:idx[3]])
		if err != nil || !validRAMSizes[n] || n > maxGB {
			continue
		}
		if ramStorageSuffixRe.MatchString(text[idx[1]:]) {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best == 0 {
		return ""
	}
	return fmt.Sprintf("%dGB", best)
}

func collectCandidates(lower string) candidateSet {
	c := candidateSet{
		cpuModels: make(map[string]struct{}),
		gpuModels: make(map[string]struct{}),
	}

	c.ram = ExtractRAM(lower, maxRAMDefault)

	if m := cpuBrandRe.FindStringSubmatch(lower); m != nil {
		c.cpuBrand = strings.ToUpper(m[1])
	}
	for _, p := range cpuModelPatterns {
		for _, m := range p.re.FindAllStringSubmatch(lower, -1) {
			switch p.class {
			case cpuIntelCore, cpuIntelLow, cpuARM:
				c.cpuModels[strings.ToUpper(m[1])] = struct{}{}
			case cpuRyzen:
				c.cpuModels["RYZEN"+m[1]] = struct{}{}
			case cpuAppleM:
				model := strings.ToUpper(m[1])
				if m[2] != "" {
					model += " " + strings.ToUpper(m[2])
				}
				c.cpuModels[model] = struct{}{}
				c.apple = true
			}
		}
	}

	if m := gpuBrandRe.FindStringSubmatch(lower); m != nil {
		switch brand := strings.ToUpper(m[1]); brand {
		case "GEFORCE":
			c.gpuBrand = "NVIDIA"
		case "RADEON":
			c.gpuBrand = "AMD"
		default:
			c.gpuBrand = brand
		}
	}
	for _, re := range gpuModelPatterns {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			model := strings.ToUpper(strings.ReplaceAll(m[1], "-", " "))
			model = spacesRe.ReplaceAllString(strings.TrimSpace(model), " ")
			c.gpuModels[model] = struct{}{}
		}
	}

	return c
}

// resolveConflicts applies the cross-candidate rules and canonical
// formatting. Pure function of the candidate set.
func resolveConflicts(c candidateSet) domain.SpecSet {
	hasPC := c.cpuBrand == "INTEL" || c.cpuBrand == "AMD"
	for m := range c.cpuModels {
		if pcModelRe.MatchString(m) {
			hasPC = true
		}
	}

	// A PC CPU mention beats an ambiguous M-token ("i7 + ssd m2" listings).
	// A confirmed Apple context beats stray PC tokens the other way.
	if hasPC && c.apple {
		for m := range c.cpuModels {
			if appleModelRe.MatchString(m) {
				delete(c.cpuModels, m)
			}
		}
		c.apple = false
	} else if c.apple {
		for m := range c.cpuModels {
			if !appleModelRe.MatchString(m) {
				delete(c.cpuModels, m)
			}
		}
		c.cpuBrand = "APPLE"
	}

	return domain.SpecSet{
		CPU: canonicalCPU(c.cpuBrand, c.cpuModels, c.apple),
		RAM: c.ram,
		GPU: canonicalGPU(c.gpuBrand, c.gpuModels),
	}
}

// canonicalCPU picks the best model reverse-lexicographically and re-derives
// the brand from it. Within one family the ordering matches marketing tiers
// (I7 > I5, M2 PRO > M2), which is all the tie-break needs.
func canonicalCPU(brand string, models map[string]struct{}, apple bool) string {
	if len(models) == 0 {
		return ""
	}
	best := maxKey(models)

	switch {
	case apple || appleModelRe.MatchString(best):
		brand = "APPLE"
	case strings.Contains(best, "RYZEN"):
		brand = "AMD"
	case pcModelRe.MatchString(best):
		brand = "INTEL"
	case best == "SNAPDRAGON" || strings.HasPrefix(best, "SQ"):
		brand = "QUALCOMM"
	}

	if strings.HasPrefix(best, "RYZEN") && len(best) == len("RYZEN")+1 {
		best = "RYZEN " + best[len("RYZEN"):]
	}
	if brand == "" {
		return best
	}
	return brand + " " + best
}

// canonicalGPU picks the best model and derives the brand from the model
// family; a text-level brand mention only survives when the family is
// unknown.
func canonicalGPU(brand string, models map[string]struct{}) string {
	if len(models) == 0 {
		return ""
	}
	best := maxKey(models)

	switch {
	case containsAny(best, "RTX", "GTX", "MX", "QUADRO"):
		brand = "NVIDIA"
	case containsAny(best, "RX", "RADEON", "FIREPRO"):
		brand = "AMD"
	}

	// "RTX3060" -> "RTX 3060"
	if !strings.Contains(best, " ") {
		if m := gpuSplitRe.FindStringSubmatch(best); m != nil {
			best = m[1] + " " + m[2]
		}
	}
	if brand == "" {
		return best
	}
	return brand + " " + best
}

func maxKey(set map[string]struct{}) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[len(keys)-1]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
