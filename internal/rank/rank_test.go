package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-cli/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func venue(id, name string, rating float64, cuisines ...string) model.MergedVenue {
	return model.MergedVenue{
		ID:       id,
		Name:     name,
		Location: model.Coordinate{Lat: 52.52, Lng: 13.405},
		Rating:   rating,
		Cuisines: cuisines,
	}
}

func plainRanker(max int) *Ranker {
	opts := DefaultOptions()
	opts.MaxTotalVenues = max
	return New(opts, RatingAdjuster{Baseline: 3.5, Weight: 8})
}

func TestBaseScore(t *testing.T) {
	v := model.MergedVenue{Cuisines: []string{"italian"}, Tags: []string{"cozy", "quiet"}, PriceTier: 2}

	assert.InDelta(t, 100.0, BaseScore(v, Prefs{Cuisines: []string{"italian"}, Vibes: []string{"cozy"}, PriceTiers: []string{"2"}}), 1e-9)
	assert.InDelta(t, 50.0, BaseScore(v, Prefs{}), 1e-9)
	assert.InDelta(t, 100*(0.35*0.5+0.20*0.5), BaseScore(v, Prefs{Cuisines: []string{"thai"}, Vibes: []string{"cozy", "lively"}, PriceTiers: []string{"3"}}), 1e-9)
	assert.InDelta(t, 100*(0.45+0.35*0.5), BaseScore(v, Prefs{Cuisines: []string{"italian"}, PriceTiers: []string{"4"}}), 1e-9)
}

func TestRank_OrdersDeterministically(t *testing.T) {
	venues := []model.MergedVenue{
		venue("c", "Zeta", 4.0, "italian"),
		venue("a", "Alpha", 4.0, "italian"),
		venue("b", "Beta", 4.5, "italian"),
		venue("d", "Delta", 4.0, "thai"),
	}
	user := model.PreferenceProfile{UserID: "u", Cuisines: []string{"italian"}}

	got := plainRanker(30).Rank(venues, user, nil, model.ContextualFactors{})
	require.Len(t, got, 4)
	names := []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name}
	assert.Equal(t, []string{"Beta", "Alpha", "Zeta", "Delta"}, names)

	again := plainRanker(30).Rank([]model.MergedVenue{venues[3], venues[2], venues[1], venues[0]}, user, nil, model.ContextualFactors{})
	assert.Equal(t, got, again)
}

func TestRank_TieBreaksByRatingThenName(t *testing.T) {
	r := New(DefaultOptions(), ExternalAdjuster{})
	venues := []model.MergedVenue{
		venue("1", "Bravo", 4.0),
		venue("2", "Alpha", 3.0),
		venue("3", "Charlie", 4.0),
	}
	got := r.Rank(venues, model.PreferenceProfile{}, nil, model.ContextualFactors{})
	assert.Equal(t, "Bravo", got[0].Name)
	assert.Equal(t, "Charlie", got[1].Name)
	assert.Equal(t, "Alpha", got[2].Name)
}

func TestRank_TruncatesAfterSorting(t *testing.T) {
	venues := []model.MergedVenue{
		venue("1", "Low", 3.0, "thai"),
		venue("2", "High", 4.8, "italian"),
		venue("3", "Mid", 4.0, "italian"),
	}
	got := plainRanker(2).Rank(venues, model.PreferenceProfile{Cuisines: []string{"italian"}}, nil, model.ContextualFactors{})
	require.Len(t, got, 2)
	assert.Equal(t, "High", got[0].Name)
	assert.Equal(t, "Mid", got[1].Name)
}

func TestRank_ClampsScore(t *testing.T) {
	r := New(DefaultOptions(), ExternalAdjuster{})
	v := venue("1", "Any", 4.0, "italian")

	high := r.Rank([]model.MergedVenue{v}, model.PreferenceProfile{Cuisines: []string{"italian"}}, nil,
		model.ContextualFactors{External: map[string]float64{"weather": 500}})
	assert.InDelta(t, 100.0, high[0].AIScore, 1e-9)

	low := r.Rank([]model.MergedVenue{v}, model.PreferenceProfile{}, nil,
		model.ContextualFactors{External: map[string]float64{"crowd": -500}})
	assert.InDelta(t, 0.0, low[0].AIScore, 1e-9)
	assert.InDelta(t, -500.0, low[0].ContextualScore, 1e-9)
}

func TestRank_PartnerSharedFactorsDriveBase(t *testing.T) {
	user := model.PreferenceProfile{Cuisines: []string{"italian", "japanese"}}
	partner := &model.PreferenceProfile{Cuisines: []string{"japanese", "mexican"}}
	venues := []model.MergedVenue{
		venue("1", "Trattoria", 4.0, "italian"),
		venue("2", "Sushi", 4.0, "japanese"),
	}

	got := New(DefaultOptions(), ExternalAdjuster{}).Rank(venues, user, partner, model.ContextualFactors{})
	assert.Equal(t, "Sushi", got[0].Name)
	assert.Greater(t, got[0].BaseScore, got[1].BaseScore)
}

func TestRank_AdjustmentsRecorded(t *testing.T) {
	origin := model.Coordinate{Lat: 52.52, Lng: 13.405}
	evening := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	v := venue("1", "Open", 4.5)
	v.OpenNow = boolPtr(true)

	got := New(DefaultOptions()).Rank([]model.MergedVenue{v},
		model.PreferenceProfile{PreferredTimes: []string{"Dinner"}}, nil,
		model.ContextualFactors{Now: evening, Origin: &origin, External: map[string]float64{"weather": -2}})
	require.Len(t, got, 1)
	adj := got[0].Adjustments
	assert.InDelta(t, 8.0, adj["rating"], 1e-9)
	assert.InDelta(t, 5.0, adj["open_now"], 1e-9)
	assert.InDelta(t, 5.0, adj["time_of_day"], 1e-9)
	assert.InDelta(t, -2.0, adj["external"], 1e-9)
	assert.NotContains(t, adj, "distance")
	assert.InDelta(t, 16.0, got[0].ContextualScore, 1e-9)
	assert.InDelta(t, 0.0, got[0].DistanceM, 1e-6)
}

func TestOpenNowAdjuster(t *testing.T) {
	a := OpenNowAdjuster{Bonus: 5, Penalty: 10}
	assert.Zero(t, a.Adjust(Input{}))
	assert.InDelta(t, 5.0, a.Adjust(Input{Venue: model.MergedVenue{OpenNow: boolPtr(true)}}), 1e-9)
	assert.InDelta(t, -10.0, a.Adjust(Input{Venue: model.MergedVenue{OpenNow: boolPtr(false)}}), 1e-9)
}

func TestDistanceAdjuster(t *testing.T) {
	origin := &model.Coordinate{Lat: 52.52, Lng: 13.405}
	a := DistanceAdjuster{Penalty: 15}

	assert.Zero(t, a.Adjust(Input{DistanceM: 9000, User: model.PreferenceProfile{MaxTravelDistanceKM: 5}}), "no origin")
	assert.Zero(t, a.Adjust(Input{DistanceM: 4000, User: model.PreferenceProfile{MaxTravelDistanceKM: 5}, Context: model.ContextualFactors{Origin: origin}}))
	assert.InDelta(t, -15.0, a.Adjust(Input{DistanceM: 6000, User: model.PreferenceProfile{MaxTravelDistanceKM: 5}, Context: model.ContextualFactors{Origin: origin}}), 1e-9)
	assert.InDelta(t, -15.0, a.Adjust(Input{
		DistanceM: 4000,
		User:      model.PreferenceProfile{MaxTravelDistanceKM: 10},
		Partner:   &model.PreferenceProfile{MaxTravelDistanceKM: 3},
		Context:   model.ContextualFactors{Origin: origin},
	}), 1e-9)
}

func TestTimeSlot(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2026, 1, 1, h, 0, 0, 0, time.UTC) }
	assert.Equal(t, "morning", TimeSlot(day(8)))
	assert.Equal(t, "afternoon", TimeSlot(day(13)))
	assert.Equal(t, "evening", TimeSlot(day(20)))
	assert.Equal(t, "night", TimeSlot(day(23)))
	assert.Equal(t, "night", TimeSlot(day(2)))
}
