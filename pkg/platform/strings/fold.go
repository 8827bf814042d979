package strings

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips combining diacritical marks, so "Café" and
// "cafe" fold to the same string. Localized titles search the same whether or
// not the user typed accents.
func Fold(s string) string {
	// Transformers carry state, so build the chain per call rather than
	// sharing one across goroutines.
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(chain, s)
	if err != nil {
		// Malformed UTF-8; fall back to plain case folding.
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// ContainsFold reports whether needle occurs in haystack under Fold,
// i.e. case-insensitively and ignoring diacritics.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
