package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resilience"
)

// DefaultTimeout bounds one guarded provider call, retries included.
const DefaultTimeout = 10 * time.Second

// GuardConfig configures a Guard.
type GuardConfig struct {
	Timeout time.Duration
	Retry   resilience.RetryConfig
	Breaker resilience.BreakerConfig
	// RateLimit is requests per second. Zero disables limiting.
	RateLimit float64
	Metrics   *metrics.Metrics
}

// Guard decorates a Provider with a call timeout, retries with backoff, a
// circuit breaker and a token-bucket rate limit. It is itself a Provider.
type Guard struct {
	inner   Provider
	timeout time.Duration
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
	limiter *rate.Limiter
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewGuard wraps p.
func NewGuard(p Provider, cfg GuardConfig) *Guard {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}
	retry := cfg.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(p.Name(), "search")
	}
	return &Guard{
		inner:   p,
		timeout: cfg.Timeout,
		retry:   retry,
		breaker: resilience.NewBreaker(p.Name(), cfg.Breaker),
		limiter: limiter,
		metrics: cfg.Metrics,
		log:     zap.L().With(zap.String("component", "provider"), zap.String("provider", p.Name())),
	}
}

// Name returns the wrapped provider's name.
func (g *Guard) Name() string {
	return g.inner.Name()
}

// BreakerState returns the circuit breaker state.
func (g *Guard) BreakerState() string {
	return g.breaker.State()
}

// Search calls the wrapped provider. A call that outlives the timeout fails
// with ErrProviderTimeout; a cancelled parent context yields its error.
func (g *Guard) Search(ctx context.Context, q model.SearchQuery, limit int) ([]model.ProviderVenue, error) {
	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var venues []model.ProviderVenue
	err := g.breaker.Execute(callCtx, func(ctx context.Context) error {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		v, retries, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) ([]model.ProviderVenue, error) {
			return g.inner.Search(ctx, q, limit)
		})
		g.metrics.AddProviderRetries(g.Name(), retries)
		venues = v
		return err
	})
	err = g.mapError(ctx, callCtx, err)
	g.metrics.ObserveProviderCall(g.Name(), time.Since(start), err)

	if err != nil {
		g.log.Warn("provider search failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}
	g.log.Debug("provider search ok", zap.Int("venues", len(venues)), zap.Duration("elapsed", time.Since(start)))
	return venues, nil
}

func (g *Guard) mapError(parent, callCtx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return eris.Wrapf(ErrProviderTimeout, "%s after %s", g.Name(), g.timeout)
	}
	return err
}
