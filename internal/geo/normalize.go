package geo

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// genericVenueWords are venue-type words that providers add or drop
// inconsistently ("Bella Notte" vs "Bella Notte Ristorante").
var genericVenueWords = map[string]bool{
	"the":         true,
	"restaurant":  true,
	"restaurante": true,
	"ristorante":  true,
	"trattoria":   true,
	"osteria":     true,
	"bistro":      true,
	"brasserie":   true,
	"cafe":        true,
	"bar":         true,
	"pub":         true,
	"grill":       true,
	"kitchen":     true,
	"eatery":      true,
	"diner":       true,
	"gmbh":        true,
	"llc":         true,
	"inc":         true,
}

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// FoldDiacritics strips combining marks so "Café" and "Cafe" compare equal.
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeVenueName standardizes a venue name for matching by:
//  1. Lowercasing and folding diacritics
//  2. Replacing "&" with "and" and stripping punctuation
//  3. Dropping generic venue-type words
//  4. Collapsing whitespace
//
// If dropping generic words would leave nothing ("The Bar"), the
// punctuation-stripped name is returned instead.
func NormalizeVenueName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = FoldDiacritics(strings.ToLower(name))
	name = strings.NewReplacer("&", " and ", "-", " ", "'", "", "’", "").Replace(name)
	name = nonWordRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(multiSpaceRe.ReplaceAllString(name, " "))

	words := strings.Fields(name)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !genericVenueWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return name
	}
	return strings.Join(kept, " ")
}
