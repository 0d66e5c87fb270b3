package scorer

import (
	"github.com/sells-group/venue-cli/internal/model"
)

// Dietary factor values.
const (
	dietaryNone     = 1.0 // neither has restrictions
	dietaryOneSided = 0.7 // only one has restrictions
	dietaryShared   = 0.9 // both have restrictions, at least one shared
	dietaryConflict = 0.3 // both have restrictions, none shared
)

// Jaccard returns |A∩B| / |A∪B| over normalized sets. If either set is
// empty the result is 0, so missing signal never inflates a score.
func Jaccard(a, b []string) float64 {
	na, nb := model.NormalizeSet(a), model.NormalizeSet(b)
	if len(na) == 0 || len(nb) == 0 {
		return 0
	}
	inter := len(Intersection(na, nb))
	union := len(na) + len(nb) - inter
	return float64(inter) / float64(union)
}

// Intersection returns the sorted normalized values present in both sets.
// Returns an empty, non-nil slice when nothing is shared.
func Intersection(a, b []string) []string {
	nb := model.NormalizeSet(b)
	in := make(map[string]bool, len(nb))
	for _, v := range nb {
		in[v] = true
	}
	out := []string{}
	for _, v := range model.NormalizeSet(a) {
		if in[v] {
			out = append(out, v)
		}
	}
	return out
}

// DietaryScore scores dietary restriction compatibility.
func DietaryScore(a, b []string) float64 {
	na, nb := model.NormalizeSet(a), model.NormalizeSet(b)
	switch {
	case len(na) == 0 && len(nb) == 0:
		return dietaryNone
	case len(na) == 0 || len(nb) == 0:
		return dietaryOneSided
	case len(Intersection(na, nb)) > 0:
		return dietaryShared
	default:
		return dietaryConflict
	}
}

// Overall combines the five factor scores with w.
func Overall(cuisine, vibe, price, timing, activity float64, w Weights) float64 {
	return clamp01(w.Cuisine*cuisine + w.Vibe*vibe + w.Price*price + w.Timing*timing + w.Activity*activity)
}

// Factors lists the literal shared preferences of two profiles.
func Factors(a, b model.PreferenceProfile) model.CompatibilityFactors {
	return model.CompatibilityFactors{
		SharedCuisines:   Intersection(a.Cuisines, b.Cuisines),
		SharedVibes:      Intersection(a.Vibes, b.Vibes),
		SharedPriceTiers: Intersection(a.PriceTiers, b.PriceTiers),
		SharedTimes:      Intersection(a.PreferredTimes, b.PreferredTimes),
		SharedActivities: Intersection(a.Activities, b.Activities),
		SharedDietary:    Intersection(a.DietaryRestrictions, b.DietaryRestrictions),
	}
}

// Confidence grades how much signal the two profiles carry. Each empty
// category lowers the numeric confidence by 0.1. The level drops one step
// for each profile with two or more empty categories.
func Confidence(a, b model.PreferenceProfile) (float64, model.ConfidenceLevel) {
	ea, eb := a.EmptyCategories(), b.EmptyCategories()
	conf := max(0.1, 1-0.1*float64(ea+eb))

	sparse := 0
	if ea >= 2 {
		sparse++
	}
	if eb >= 2 {
		sparse++
	}
	switch sparse {
	case 0:
		return conf, model.ConfidenceHigh
	case 1:
		return conf, model.ConfidenceMedium
	default:
		return conf, model.ConfidenceLow
	}
}

// RuleBased computes the deterministic compatibility score.
func RuleBased(a, b model.PreferenceProfile, w Weights) model.CompatibilityScore {
	s := model.CompatibilityScore{
		Cuisine:  Jaccard(a.Cuisines, b.Cuisines),
		Vibe:     Jaccard(a.Vibes, b.Vibes),
		Price:    Jaccard(a.PriceTiers, b.PriceTiers),
		Timing:   Jaccard(a.PreferredTimes, b.PreferredTimes),
		Activity: Jaccard(a.Activities, b.Activities),
		Dietary:  DietaryScore(a.DietaryRestrictions, b.DietaryRestrictions),
		Factors:  Factors(a, b),
		Source:   model.ScoreSourceRuleBased,
	}
	s.Overall = Overall(s.Cuisine, s.Vibe, s.Price, s.Timing, s.Activity, w)
	s.Confidence, s.ConfidenceLevel = Confidence(a, b)
	return s
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
