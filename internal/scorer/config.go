// Package scorer computes multi-factor compatibility between two preference
// profiles, preferring an AI-backed scorer with a deterministic rule-based
// fallback.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Weights are the factor weights of the overall score. They sum to 1.
type Weights struct {
	Cuisine  float64 `json:"cuisine"`
	Vibe     float64 `json:"vibe"`
	Price    float64 `json:"price"`
	Timing   float64 `json:"timing"`
	Activity float64 `json:"activity"`
}

// DefaultWeights returns the standard factor weights.
func DefaultWeights() Weights {
	return Weights{
		Cuisine:  0.30,
		Vibe:     0.25,
		Price:    0.20,
		Timing:   0.15,
		Activity: 0.10,
	}
}

// WeightSum returns the sum of all factor weights.
func WeightSum(w Weights) float64 {
	return w.Cuisine + w.Vibe + w.Price + w.Timing + w.Activity
}

// ValidateWeights checks that w is non-negative and sums to 1.
func ValidateWeights(w Weights) error {
	var errs []string

	weights := []struct {
		name string
		v    float64
	}{
		{"cuisine", w.Cuisine},
		{"vibe", w.Vibe},
		{"price", w.Price},
		{"timing", w.Timing},
		{"activity", w.Activity},
	}
	for _, x := range weights {
		if x.v < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", x.name))
		}
	}

	// Allow tolerance for floating-point.
	if sum := WeightSum(w); math.Abs(sum-1) > 1e-6 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.4f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
