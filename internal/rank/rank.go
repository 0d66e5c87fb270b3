// Package rank orders merged venues for one or two users.
package rank

import (
	"cmp"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/geo"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/scorer"
)

// Base score component weights.
const (
	cuisineWeight = 0.45
	vibeWeight    = 0.35
	priceWeight   = 0.20
	neutralMatch  = 0.5 // no stated preference for a component
)

// Options configures the ranker.
type Options struct {
	MaxTotalVenues  int     // 0 = no cap
	RatingBaseline  float64 // ratings above this earn a bonus
	RatingWeight    float64 // points per star above the baseline
	OpenNowBonus    float64
	ClosedPenalty   float64
	TimeOfDayBonus  float64
	DistancePenalty float64 // applied beyond the profile's max travel distance
}

// DefaultOptions returns the standard ranking magnitudes.
func DefaultOptions() Options {
	return Options{
		MaxTotalVenues:  30,
		RatingBaseline:  3.5,
		RatingWeight:    8,
		OpenNowBonus:    5,
		ClosedPenalty:   10,
		TimeOfDayBonus:  5,
		DistancePenalty: 15,
	}
}

// Input is what an Adjuster sees about one venue.
type Input struct {
	Venue     model.MergedVenue
	User      model.PreferenceProfile
	Partner   *model.PreferenceProfile
	Context   model.ContextualFactors
	DistanceM float64 // 0 when the origin is unknown
}

// Adjuster contributes one additive contextual delta.
type Adjuster interface {
	Name() string
	Adjust(in Input) float64
}

// Ranker is the VenueRanker.
type Ranker struct {
	opts      Options
	adjusters []Adjuster
	log       *zap.Logger
}

// New creates a Ranker. Without explicit adjusters the standard set built
// from opts is used.
func New(opts Options, adjusters ...Adjuster) *Ranker {
	if len(adjusters) == 0 {
		adjusters = DefaultAdjusters(opts)
	}
	return &Ranker{
		opts:      opts,
		adjusters: adjusters,
		log:       zap.L().With(zap.String("component", "ranker")),
	}
}

// Rank scores, sorts and truncates venues. The partner profile is optional;
// when present, the preferences both users share drive the base score.
func (r *Ranker) Rank(venues []model.MergedVenue, user model.PreferenceProfile, partner *model.PreferenceProfile, fc model.ContextualFactors) []model.RankedVenue {
	prefs := targetPrefs(user, partner)

	out := make([]model.RankedVenue, 0, len(venues))
	for _, v := range venues {
		in := Input{Venue: v, User: user, Partner: partner, Context: fc}
		if fc.Origin != nil {
			in.DistanceM = geo.DistanceM(*fc.Origin, v.Location)
		}

		rv := model.RankedVenue{
			MergedVenue: v,
			BaseScore:   BaseScore(v, prefs),
			DistanceM:   in.DistanceM,
		}
		for _, a := range r.adjusters {
			d := a.Adjust(in)
			if d == 0 {
				continue
			}
			if rv.Adjustments == nil {
				rv.Adjustments = make(map[string]float64)
			}
			rv.Adjustments[a.Name()] += d
			rv.ContextualScore += d
		}
		rv.AIScore = clamp(rv.BaseScore+rv.ContextualScore, 0, 100)
		out = append(out, rv)
	}

	slices.SortStableFunc(out, compareRanked)

	if r.opts.MaxTotalVenues > 0 && len(out) > r.opts.MaxTotalVenues {
		r.log.Debug("truncating ranked venues",
			zap.Int("ranked", len(out)),
			zap.Int("max", r.opts.MaxTotalVenues),
		)
		out = out[:r.opts.MaxTotalVenues]
	}
	return out
}

// compareRanked orders by score desc, rating desc, name asc, then id.
func compareRanked(a, b model.RankedVenue) int {
	if c := cmp.Compare(b.AIScore, a.AIScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Prefs are the preference sets a venue is matched against.
type Prefs struct {
	Cuisines   []string
	Vibes      []string
	PriceTiers []string
}

// targetPrefs picks the sets to match: the user's own, or for a pair the
// shared values per category, widening to the union where nothing is shared.
func targetPrefs(user model.PreferenceProfile, partner *model.PreferenceProfile) Prefs {
	if partner == nil {
		return Prefs{
			Cuisines:   model.NormalizeSet(user.Cuisines),
			Vibes:      model.NormalizeSet(user.Vibes),
			PriceTiers: model.NormalizeSet(user.PriceTiers),
		}
	}
	f := scorer.Factors(user, *partner)
	return Prefs{
		Cuisines:   sharedOrUnion(f.SharedCuisines, user.Cuisines, partner.Cuisines),
		Vibes:      sharedOrUnion(f.SharedVibes, user.Vibes, partner.Vibes),
		PriceTiers: sharedOrUnion(f.SharedPriceTiers, user.PriceTiers, partner.PriceTiers),
	}
}

func sharedOrUnion(shared, a, b []string) []string {
	if len(shared) > 0 {
		return shared
	}
	return model.NormalizeSet(append(slices.Clone(a), b...))
}

// BaseScore is the 0-100 attribute match of v against prefs.
func BaseScore(v model.MergedVenue, p Prefs) float64 {
	c := cuisineMatch(v.Cuisines, p.Cuisines)
	vb := vibeMatch(v.Tags, p.Vibes)
	pr := priceMatch(v.PriceTier, p.PriceTiers)
	return 100 * (cuisineWeight*c + vibeWeight*vb + priceWeight*pr)
}

func cuisineMatch(have, want []string) float64 {
	if len(want) == 0 {
		return neutralMatch
	}
	if len(scorer.Intersection(have, want)) > 0 {
		return 1
	}
	return 0
}

// vibeMatch is the fraction of wanted vibes the venue carries.
func vibeMatch(have, want []string) float64 {
	if len(want) == 0 {
		return neutralMatch
	}
	return float64(len(scorer.Intersection(want, have))) / float64(len(want))
}

// priceMatch gives full credit for a wanted tier, half for one tier off.
func priceMatch(tier int, want []string) float64 {
	if len(want) == 0 || tier == 0 {
		return neutralMatch
	}
	best := 0.0
	for _, w := range want {
		t, err := strconv.Atoi(w)
		if err != nil {
			continue
		}
		switch d := abs(t - tier); {
		case d == 0:
			return 1
		case d == 1:
			best = 0.5
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
