package scorer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
)

// ErrUnscoreable is returned only when the AI path failed and neither
// profile carries any preference signal for the rule engine to use.
var ErrUnscoreable = eris.New("scorer: profiles carry no preference signal")

// Scorer is the CompatibilityScorer: AI first, rules on any AI failure.
type Scorer struct {
	ai      AIScorer
	weights Weights
	metrics *metrics.Metrics
	log     *zap.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithAI enables the AI path.
func WithAI(ai AIScorer) Option {
	return func(s *Scorer) { s.ai = ai }
}

// WithWeights overrides the factor weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w }
}

// WithMetrics records score sources.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scorer) { s.metrics = m }
}

// New creates a Scorer. Without WithAI the rule engine is always used.
func New(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		weights: DefaultWeights(),
		log:     zap.L().With(zap.String("component", "scorer")),
	}
	for _, o := range opts {
		o(s)
	}
	if err := ValidateWeights(s.weights); err != nil {
		return nil, err
	}
	return s, nil
}

// Score computes compatibility between a and b. AI failures never surface;
// the only error is ErrUnscoreable.
func (s *Scorer) Score(ctx context.Context, a, b model.PreferenceProfile) (model.CompatibilityScore, error) {
	var outcome Outcome = Unavailable{Reason: eris.Wrap(ErrScoringUnavailable, "ai disabled")}
	if s.ai != nil {
		outcome = s.ai.Score(ctx, a, b)
	}

	if o, ok := outcome.(Scored); ok {
		score := s.finishAI(o.Score, a, b)
		s.metrics.ObserveScore(string(score.Source))
		return score, nil
	}

	if a.IsEmpty() && b.IsEmpty() {
		return model.CompatibilityScore{}, eris.Wrapf(ErrUnscoreable, "users %s and %s", a.UserID, b.UserID)
	}
	if u, ok := outcome.(Unavailable); ok && s.ai != nil {
		s.log.Warn("ai scoring unavailable, using rules",
			zap.String("user_a", a.UserID),
			zap.String("user_b", b.UserID),
			zap.Error(u.Reason),
		)
	}
	score := RuleBased(a, b, s.weights)
	s.metrics.ObserveScore(string(score.Source))
	return score, nil
}

// finishAI fills the parts of an AI score that are always computed
// locally: the literal shared factors and the confidence level.
func (s *Scorer) finishAI(score model.CompatibilityScore, a, b model.PreferenceProfile) model.CompatibilityScore {
	score.Factors = Factors(a, b)
	if score.Dietary < 0 {
		score.Dietary = DietaryScore(a.DietaryRestrictions, b.DietaryRestrictions)
	}
	conf, level := Confidence(a, b)
	if score.Confidence == 0 {
		score.Confidence = conf
	}
	score.ConfidenceLevel = level
	score.Source = model.ScoreSourceAI
	return score
}

// Weights returns the configured factor weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}
