package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-cli/internal/model"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"italian"}, []string{"italian"}, 1.0},
		{"both empty", nil, nil, 0.0},
		{"one empty", []string{"italian"}, nil, 0.0},
		{"other empty", nil, []string{"italian"}, 0.0},
		{"partial", []string{"italian", "japanese"}, []string{"italian", "mexican"}, 1.0 / 3},
		{"disjoint", []string{"thai"}, []string{"greek"}, 0.0},
		{"case insensitive", []string{"Italian "}, []string{"italian"}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Jaccard(tt.a, tt.b), 0.01)
		})
	}
}

func TestDietaryScore(t *testing.T) {
	assert.InDelta(t, 1.0, DietaryScore(nil, nil), 1e-9)
	assert.InDelta(t, 0.7, DietaryScore([]string{"vegetarian"}, nil), 1e-9)
	assert.InDelta(t, 0.7, DietaryScore(nil, []string{"vegetarian"}), 1e-9)
	assert.InDelta(t, 0.9, DietaryScore([]string{"vegetarian"}, []string{"vegetarian"}), 1e-9)
	assert.InDelta(t, 0.3, DietaryScore([]string{"vegetarian"}, []string{"keto"}), 1e-9)
}

func TestOverall(t *testing.T) {
	assert.InDelta(t, 0.755, Overall(0.8, 0.6, 1.0, 0.5, 0.9, DefaultWeights()), 0.001)
	assert.InDelta(t, 1.0, Overall(1, 1, 1, 1, 1, DefaultWeights()), 1e-9)
	assert.InDelta(t, 0.0, Overall(0, 0, 0, 0, 0, DefaultWeights()), 1e-9)
}

func TestIntersection(t *testing.T) {
	assert.Equal(t, []string{"italian"}, Intersection([]string{"Japanese", "italian"}, []string{"italian", "mexican"}))
	got := Intersection([]string{"thai"}, nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestValidateWeights(t *testing.T) {
	assert.NoError(t, ValidateWeights(DefaultWeights()))
	assert.InDelta(t, 1.0, WeightSum(DefaultWeights()), 1e-9)

	bad := DefaultWeights()
	bad.Cuisine = -0.1
	err := ValidateWeights(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cuisine weight must be >= 0")
	assert.Contains(t, err.Error(), "weights should sum to 1")
}

func TestConfidence(t *testing.T) {
	full := model.PreferenceProfile{
		Cuisines: []string{"a"}, Vibes: []string{"b"}, PriceTiers: []string{"1"},
		PreferredTimes: []string{"evening"}, Activities: []string{"dinner"},
	}
	sparse := model.PreferenceProfile{Cuisines: []string{"a"}, Vibes: []string{"b"}, PriceTiers: []string{"1"}}

	conf, level := Confidence(full, full)
	assert.InDelta(t, 1.0, conf, 1e-9)
	assert.Equal(t, model.ConfidenceHigh, level)

	conf, level = Confidence(full, sparse)
	assert.InDelta(t, 0.8, conf, 1e-9)
	assert.Equal(t, model.ConfidenceMedium, level)

	conf, level = Confidence(model.PreferenceProfile{}, model.PreferenceProfile{})
	assert.InDelta(t, 0.1, conf, 1e-9)
	assert.Equal(t, model.ConfidenceLow, level)
}

func TestRuleBased(t *testing.T) {
	a := model.PreferenceProfile{
		UserID:              "alice",
		Cuisines:            []string{"italian", "japanese"},
		Vibes:               []string{"cozy"},
		PriceTiers:          []string{"2"},
		PreferredTimes:      []string{"evening"},
		DietaryRestrictions: []string{"vegetarian"},
	}
	b := model.PreferenceProfile{
		UserID:     "bob",
		Cuisines:   []string{"italian", "mexican"},
		Vibes:      []string{"cozy", "lively"},
		PriceTiers: []string{"2"},
	}

	s := RuleBased(a, b, DefaultWeights())
	assert.InDelta(t, 1.0/3, s.Cuisine, 1e-9)
	assert.InDelta(t, 0.5, s.Vibe, 1e-9)
	assert.InDelta(t, 1.0, s.Price, 1e-9)
	assert.InDelta(t, 0.0, s.Timing, 1e-9)
	assert.InDelta(t, 0.0, s.Activity, 1e-9)
	assert.InDelta(t, 0.7, s.Dietary, 1e-9)
	assert.InDelta(t, 0.30/3+0.25*0.5+0.20, s.Overall, 1e-9)
	assert.Equal(t, []string{"italian"}, s.Factors.SharedCuisines)
	assert.Equal(t, []string{"cozy"}, s.Factors.SharedVibes)
	assert.Equal(t, []string{"2"}, s.Factors.SharedPriceTiers)
	assert.Equal(t, model.ScoreSourceRuleBased, s.Source)
	assert.Equal(t, model.ConfidenceMedium, s.ConfidenceLevel)
}
