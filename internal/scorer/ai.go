package scorer

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-cli/internal/cost"
	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/pkg/anthropic"
)

// ErrScoringUnavailable means the AI scorer produced no usable score. It
// only ever drives the rule-based fallback.
var ErrScoringUnavailable = eris.New("scorer: ai scoring unavailable")

// Outcome is the result of an AI scoring attempt: either Scored or
// Unavailable.
type Outcome interface {
	outcome()
}

// Scored carries a usable AI score.
type Scored struct {
	Score model.CompatibilityScore
}

// Unavailable carries the reason the AI path failed.
type Unavailable struct {
	Reason error
}

func (Scored) outcome()      {}
func (Unavailable) outcome() {}

// AIScorer is an opaque AI compatibility scorer.
type AIScorer interface {
	Score(ctx context.Context, a, b model.PreferenceProfile) Outcome
}

const systemPrompt = `You rate how compatible two people are for going out together, based on their stated preferences.
Reply with a single JSON object and nothing else, with these keys, all numbers between 0 and 1:
overall, cuisine, vibe, price, timing, activity, dietary, confidence.`

// aiResponse is the JSON shape requested from the model. Pointers detect
// missing keys.
type aiResponse struct {
	Overall    *float64 `json:"overall"`
	Cuisine    *float64 `json:"cuisine"`
	Vibe       *float64 `json:"vibe"`
	Price      *float64 `json:"price"`
	Timing     *float64 `json:"timing"`
	Activity   *float64 `json:"activity"`
	Dietary    *float64 `json:"dietary"`
	Confidence *float64 `json:"confidence"`
}

// AnthropicScorer scores profiles with an Anthropic model.
type AnthropicScorer struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	costs   *cost.Calculator
	metrics *metrics.Metrics
}

// NewAnthropicScorer creates an AIScorer backed by client. A zero timeout
// defaults to 8s.
func NewAnthropicScorer(client anthropic.Client, model string, timeout time.Duration) *AnthropicScorer {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &AnthropicScorer{client: client, model: model, timeout: timeout}
}

// WithCosts prices every call with calc and reports the spend to m.
func (s *AnthropicScorer) WithCosts(calc *cost.Calculator, m *metrics.Metrics) *AnthropicScorer {
	s.costs = calc
	s.metrics = m
	return s
}

// Score implements AIScorer. Every failure, including timeouts and
// malformed replies, is reported as Unavailable.
func (s *AnthropicScorer) Score(ctx context.Context, a, b model.PreferenceProfile) Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt, err := buildPrompt(a, b)
	if err != nil {
		return Unavailable{Reason: eris.Wrap(err, "scorer: build prompt")}
	}

	temp := 0.0
	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       s.model,
		MaxTokens:   256,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return Unavailable{Reason: eris.Wrap(err, "scorer: ai call")}
	}
	resp.Usage.LogUsage(resp.Model, "compatibility")
	if s.costs != nil {
		s.metrics.AddAICost(s.model, s.costs.Record(s.model, resp.Usage.InputTokens, resp.Usage.OutputTokens))
	}

	score, err := parseAIScore(resp.Text())
	if err != nil {
		return Unavailable{Reason: err}
	}
	return Scored{Score: score}
}

func buildPrompt(a, b model.PreferenceProfile) (string, error) {
	payload := map[string]model.PreferenceProfile{"person_a": a, "person_b": b}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return "Score the compatibility of these two preference profiles:\n" + string(data), nil
}

// parseAIScore extracts and validates the JSON object in text.
func parseAIScore(text string) (model.CompatibilityScore, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return model.CompatibilityScore{}, eris.New("scorer: ai reply has no json object")
	}

	var r aiResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return model.CompatibilityScore{}, eris.Wrap(err, "scorer: parse ai reply")
	}

	fields := []struct {
		name     string
		v        *float64
		required bool
	}{
		{"overall", r.Overall, true},
		{"cuisine", r.Cuisine, true},
		{"vibe", r.Vibe, true},
		{"price", r.Price, true},
		{"timing", r.Timing, true},
		{"activity", r.Activity, true},
		{"dietary", r.Dietary, false},
		{"confidence", r.Confidence, false},
	}
	for _, f := range fields {
		if f.v == nil {
			if f.required {
				return model.CompatibilityScore{}, eris.Errorf("scorer: ai reply missing %q", f.name)
			}
			continue
		}
		if *f.v < 0 || *f.v > 1 {
			return model.CompatibilityScore{}, eris.Errorf("scorer: ai %s out of range: %v", f.name, *f.v)
		}
	}

	s := model.CompatibilityScore{
		Overall:  *r.Overall,
		Cuisine:  *r.Cuisine,
		Vibe:     *r.Vibe,
		Price:    *r.Price,
		Timing:   *r.Timing,
		Activity: *r.Activity,
		Dietary:  -1,
		Source:   model.ScoreSourceAI,
	}
	if r.Dietary != nil {
		s.Dietary = *r.Dietary
	}
	if r.Confidence != nil {
		s.Confidence = *r.Confidence
	}
	return s, nil
}
