package cost

import "sync"

// Rates holds per-model token pricing for the AI scorer.
type Rates struct {
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes AI spend and keeps a running total. Safe for
// concurrent use.
type Calculator struct {
	rates Rates

	mu    sync.Mutex
	total float64
	calls int
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost for one Claude API call. Unknown models cost 0.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Record prices one call, adds it to the running total and returns it.
func (c *Calculator) Record(model string, input, output int64) float64 {
	usd := c.Claude(model, input, output)
	c.mu.Lock()
	c.total += usd
	c.calls++
	c.mu.Unlock()
	return usd
}

// Total returns the accumulated spend and the number of recorded calls.
func (c *Calculator) Total() (usd float64, calls int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, c.calls
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
	}
}
