package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical lead classifications.
const (
	ClassificationDependent = "Dependent of a transport-company-affiliated worker"
	ClassificationWorker    = "Transport-company-affiliated worker"
	ClassificationCommunity = "Community"
)

// Classifications returns the canonical categories in precedence order.
func Classifications() []string {
	return []string{ClassificationDependent, ClassificationWorker, ClassificationCommunity}
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldClassification lowers the input into the comparison form: diacritics
// stripped, lowercased, hyphens and underscores folded to spaces. Folding
// hyphens is what keeps normalization idempotent, since the canonical
// values themselves are hyphenated.
func foldClassification(raw string) string {
	stripped, _, err := transform.String(diacriticStripper, raw)
	if err != nil {
		stripped = raw
	}
	folded := strings.ToLower(stripped)
	folded = strings.ReplaceAll(folded, "-", " ")
	folded = strings.ReplaceAll(folded, "_", " ")
	return strings.Join(strings.Fields(folded), " ")
}

func mentionsTransportSector(folded string) bool {
	return strings.Contains(folded, "transport company") || strings.Contains(folded, "transport sector")
}

// NormalizeClassification maps free text to one of the canonical categories.
// The boolean is false when the input matches none of them; callers must
// treat such leads as having no valid classification.
func NormalizeClassification(raw string) (string, bool) {
	folded := foldClassification(raw)
	if folded == "" {
		return "", false
	}

	switch {
	case strings.Contains(folded, "dependent") && strings.Contains(folded, "worker") && mentionsTransportSector(folded):
		return ClassificationDependent, true
	case strings.Contains(folded, "worker") && mentionsTransportSector(folded):
		return ClassificationWorker, true
	case strings.Contains(folded, "community"):
		return ClassificationCommunity, true
	default:
		return "", false
	}
}
