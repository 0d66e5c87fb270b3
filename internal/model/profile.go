package model

// PreferenceProfile is a user's stated preferences. Supplied by the external
// preference store and read-only here.
type PreferenceProfile struct {
	UserID              string   `json:"user_id" yaml:"user_id"`
	Cuisines            []string `json:"cuisines,omitempty" yaml:"cuisines"`
	Vibes               []string `json:"vibes,omitempty" yaml:"vibes"`
	PriceTiers          []string `json:"price_tiers,omitempty" yaml:"price_tiers"`
	PreferredTimes      []string `json:"preferred_times,omitempty" yaml:"preferred_times"`
	Activities          []string `json:"activities,omitempty" yaml:"activities"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty" yaml:"dietary_restrictions"`
	MaxTravelDistanceKM float64  `json:"max_travel_distance_km,omitempty" yaml:"max_travel_distance_km"`
}

// EmptyCategories counts the preference categories with no values among
// cuisines, vibes, price tiers, preferred times and activities.
func (p PreferenceProfile) EmptyCategories() int {
	n := 0
	for _, set := range [][]string{p.Cuisines, p.Vibes, p.PriceTiers, p.PreferredTimes, p.Activities} {
		if len(NormalizeSet(set)) == 0 {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the profile carries no preference signal at all.
func (p PreferenceProfile) IsEmpty() bool {
	return p.EmptyCategories() == 5 && len(NormalizeSet(p.DietaryRestrictions)) == 0
}

// ConfidenceLevel grades how much signal a compatibility score rests on.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ScoreSource identifies which engine produced a compatibility score.
type ScoreSource string

const (
	ScoreSourceAI        ScoreSource = "ai"
	ScoreSourceRuleBased ScoreSource = "rule_based"
)

// CompatibilityFactors lists the literal shared preferences behind a score.
type CompatibilityFactors struct {
	SharedCuisines   []string `json:"shared_cuisines"`
	SharedVibes      []string `json:"shared_vibes"`
	SharedPriceTiers []string `json:"shared_price_tiers"`
	SharedTimes      []string `json:"shared_times,omitempty"`
	SharedActivities []string `json:"shared_activities,omitempty"`
	SharedDietary    []string `json:"shared_dietary,omitempty"`
}

// CompatibilityScore is the multi-factor compatibility of two profiles.
// All scores are in [0,1].
type CompatibilityScore struct {
	Overall         float64              `json:"overall"`
	Cuisine         float64              `json:"cuisine"`
	Vibe            float64              `json:"vibe"`
	Price           float64              `json:"price"`
	Timing          float64              `json:"timing"`
	Activity        float64              `json:"activity"`
	Dietary         float64              `json:"dietary"`
	Factors         CompatibilityFactors `json:"compatibility_factors"`
	Confidence      float64              `json:"confidence"`
	ConfidenceLevel ConfidenceLevel      `json:"confidence_level"`
	Source          ScoreSource          `json:"source"`
}
