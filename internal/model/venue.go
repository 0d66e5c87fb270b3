package model

import "time"

// Photo is a provider photo reference kept with its attribution.
type Photo struct {
	Provider string `json:"provider"`
	Ref      string `json:"ref"`
}

// ProviderVenue is one provider's view of a place. Values are produced by a
// single provider call and never mutated afterwards.
type ProviderVenue struct {
	ID          string     `json:"id" yaml:"id"`
	Provider    string     `json:"provider" yaml:"provider"`
	Name        string     `json:"name" yaml:"name"`
	Location    Coordinate `json:"location" yaml:"location"`
	Address     string     `json:"address,omitempty" yaml:"address"`
	PriceTier   int        `json:"price_tier,omitempty" yaml:"price_tier"` // 1-4, 0 = unknown
	Rating      float64    `json:"rating,omitempty" yaml:"rating"`
	ReviewCount int        `json:"review_count,omitempty" yaml:"review_count"` // 0 = unknown
	Cuisines    []string   `json:"cuisines,omitempty" yaml:"cuisines"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags"`
	Photos      []string   `json:"photos,omitempty" yaml:"photos"`
	OpenNow     *bool      `json:"open_now,omitempty" yaml:"open_now"`
}

// MergedVenue is the canonical record for one physical place.
type MergedVenue struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Location    Coordinate          `json:"location"`
	Address     string              `json:"address,omitempty"`
	PriceTier   int                 `json:"price_tier,omitempty"`
	Rating      float64             `json:"rating,omitempty"`
	ReviewCount int                 `json:"review_count,omitempty"`
	Cuisines    []string            `json:"cuisines,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Photos      []Photo             `json:"photos,omitempty"`
	OpenNow     *bool               `json:"open_now,omitempty"`
	Sources     map[string][]string `json:"sources"` // provider -> provider venue ids, debugging only
}

// Providers returns the sorted provider names that contributed to the venue.
func (v MergedVenue) Providers() []string {
	out := make([]string, 0, len(v.Sources))
	for p := range v.Sources {
		out = append(out, p)
	}
	return NormalizeSet(out)
}

// RankedVenue is a MergedVenue with its final score for one request.
type RankedVenue struct {
	MergedVenue
	AIScore         float64            `json:"ai_score"`         // 0-100
	ContextualScore float64            `json:"contextual_score"` // sum of contextual deltas
	BaseScore       float64            `json:"base_score"`
	Adjustments     map[string]float64 `json:"adjustments,omitempty"`
	DistanceM       float64            `json:"distance_m"`
	Enrichment      *EnrichmentResult  `json:"enrichment,omitempty"`
}

// EnrichmentResult is per-venue data fetched after ranking.
type EnrichmentResult struct {
	VenueID     string        `json:"venue_id"`
	DistanceM   float64       `json:"distance_m"`
	TravelTime  time.Duration `json:"travel_time"`
	Mode        string        `json:"mode"`
	Source      string        `json:"source"`
	RetrievedAt time.Time     `json:"retrieved_at"`
}

// ContextualFactors describe the situation a ranking is computed for.
type ContextualFactors struct {
	Now    time.Time   `json:"now"`
	Origin *Coordinate `json:"origin,omitempty"`
	// External holds additive deltas keyed by factor name (weather, crowd,
	// events). Magnitudes come from configuration or upstream services.
	External map[string]float64 `json:"external,omitempty"`
}
