package model

import (
	"slices"
	"strings"
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Filters holds the order-irrelevant filter sets of a search.
type Filters struct {
	Cuisines   []string `json:"cuisines,omitempty"`
	Vibes      []string `json:"vibes,omitempty"`
	PriceTiers []string `json:"price_tiers,omitempty"`
}

// SearchQuery is one logical venue search. Construct with NewSearchQuery;
// the filter slices are normalized copies and must not be mutated.
type SearchQuery struct {
	Origin  Coordinate `json:"origin"`
	RadiusM int        `json:"radius_m"`
	Filters Filters    `json:"filters"`
}

// NewSearchQuery builds an immutable query. Filter values are lowercased,
// trimmed, de-duplicated and sorted so equal sets compare equal.
func NewSearchQuery(origin Coordinate, radiusM int, f Filters) SearchQuery {
	return SearchQuery{
		Origin:  origin,
		RadiusM: radiusM,
		Filters: Filters{
			Cuisines:   NormalizeSet(f.Cuisines),
			Vibes:      NormalizeSet(f.Vibes),
			PriceTiers: NormalizeSet(f.PriceTiers),
		},
	}
}

// NormalizeSet lowercases, trims, drops empties, de-duplicates and sorts.
func NormalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
