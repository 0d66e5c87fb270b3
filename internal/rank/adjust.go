package rank

import (
	"slices"
	"time"

	"github.com/sells-group/venue-cli/internal/model"
)

// DefaultAdjusters returns the standard contextual adjusters.
func DefaultAdjusters(opts Options) []Adjuster {
	return []Adjuster{
		RatingAdjuster{Baseline: opts.RatingBaseline, Weight: opts.RatingWeight},
		OpenNowAdjuster{Bonus: opts.OpenNowBonus, Penalty: opts.ClosedPenalty},
		TimeOfDayAdjuster{Bonus: opts.TimeOfDayBonus},
		DistanceAdjuster{Penalty: opts.DistancePenalty},
		ExternalAdjuster{},
	}
}

// RatingAdjuster rewards ratings above Baseline.
type RatingAdjuster struct {
	Baseline float64
	Weight   float64
}

func (RatingAdjuster) Name() string { return "rating" }

func (a RatingAdjuster) Adjust(in Input) float64 {
	if in.Venue.Rating <= a.Baseline {
		return 0
	}
	return (in.Venue.Rating - a.Baseline) * a.Weight
}

// OpenNowAdjuster rewards open venues and penalizes closed ones. Unknown
// status is neutral.
type OpenNowAdjuster struct {
	Bonus   float64
	Penalty float64
}

func (OpenNowAdjuster) Name() string { return "open_now" }

func (a OpenNowAdjuster) Adjust(in Input) float64 {
	switch {
	case in.Venue.OpenNow == nil:
		return 0
	case *in.Venue.OpenNow:
		return a.Bonus
	default:
		return -a.Penalty
	}
}

// TimeOfDayAdjuster rewards a ranking made during a slot the users prefer.
type TimeOfDayAdjuster struct {
	Bonus float64
}

func (TimeOfDayAdjuster) Name() string { return "time_of_day" }

func (a TimeOfDayAdjuster) Adjust(in Input) float64 {
	if in.Context.Now.IsZero() {
		return 0
	}
	times := in.User.PreferredTimes
	if in.Partner != nil {
		times = append(slices.Clone(times), in.Partner.PreferredTimes...)
	}
	slot := TimeSlot(in.Context.Now)
	for _, t := range model.NormalizeSet(times) {
		if canonicalSlot(t) == slot {
			return a.Bonus
		}
	}
	return 0
}

// TimeSlot names the part of day t falls in.
func TimeSlot(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 11:
		return "morning"
	case h >= 11 && h < 17:
		return "afternoon"
	case h >= 17 && h < 22:
		return "evening"
	default:
		return "night"
	}
}

var slotAliases = map[string]string{
	"breakfast":  "morning",
	"brunch":     "morning",
	"lunch":      "afternoon",
	"dinner":     "evening",
	"late_night": "night",
	"late night": "night",
}

func canonicalSlot(s string) string {
	if c, ok := slotAliases[s]; ok {
		return c
	}
	return s
}

// DistanceAdjuster penalizes venues beyond the tighter of the users' max
// travel distances. Needs a known origin.
type DistanceAdjuster struct {
	Penalty float64
}

func (DistanceAdjuster) Name() string { return "distance" }

func (a DistanceAdjuster) Adjust(in Input) float64 {
	if in.Context.Origin == nil {
		return 0
	}
	limitKM := in.User.MaxTravelDistanceKM
	if in.Partner != nil && in.Partner.MaxTravelDistanceKM > 0 &&
		(limitKM == 0 || in.Partner.MaxTravelDistanceKM < limitKM) {
		limitKM = in.Partner.MaxTravelDistanceKM
	}
	if limitKM <= 0 || in.DistanceM <= limitKM*1000 {
		return 0
	}
	return -a.Penalty
}

// ExternalAdjuster sums the externally supplied factor deltas (weather,
// crowd, events).
type ExternalAdjuster struct{}

func (ExternalAdjuster) Name() string { return "external" }

func (ExternalAdjuster) Adjust(in Input) float64 {
	var sum float64
	for _, d := range in.Context.External {
		sum += d
	}
	return sum
}
