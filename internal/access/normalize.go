package access

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeRegion folds a region name into its canonical key: diacritics are
// stripped, letters lower-cased, and runs of spaces, underscores, hyphens and
// dots collapsed into a single underscore.
//
//	"Balneário  Camboriú" -> "balneario_camboriu"
//	"ITAJAI"              -> "itajai"
func NormalizeRegion(raw string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), raw)
	if err != nil {
		folded = raw
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		if unicode.IsSpace(r) || r == '_' || r == '-' || r == '.' {
			pendingSep = true
		}
	}
	return b.String()
}

// SplitRegions parses a comma separated list into normalized, de-duplicated keys.
func SplitRegions(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		key := NormalizeRegion(part)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// NormalizeAll normalizes each entry of regions, dropping empties and duplicates.
func NormalizeAll(regions []string) []string {
	return SplitRegions(strings.Join(regions, ","))
}
