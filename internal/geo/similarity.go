package geo

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// EditDistance returns the Levenshtein distance between a and b, counted in
// runes, with unit costs.
func EditDistance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}

// NameSimilarity returns 1 - editDistance/maxLen over the lowercased,
// trimmed names. Two empty names are identical (1.0); an empty name never
// matches a non-empty one (0.0).
func NameSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(EditDistance(a, b))/float64(maxLen)
}
