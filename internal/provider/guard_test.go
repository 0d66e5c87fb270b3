package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resilience"
)

// funcProvider adapts a function to Provider.
type funcProvider struct {
	name string
	fn   func(ctx context.Context) ([]model.ProviderVenue, error)
}

func (f *funcProvider) Name() string { return f.name }
func (f *funcProvider) Search(ctx context.Context, _ model.SearchQuery, _ int) ([]model.ProviderVenue, error) {
	return f.fn(ctx)
}

func fastGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout: time.Second,
		Retry:   resilience.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		Breaker: resilience.BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute},
		Metrics: metrics.New(),
	}
}

func TestGuard_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	p := &funcProvider{name: "google", fn: func(_ context.Context) ([]model.ProviderVenue, error) {
		if calls.Add(1) < 3 {
			return nil, &resilience.StatusError{Service: "google", StatusCode: 503}
		}
		return []model.ProviderVenue{{ID: "a"}}, nil
	}}

	g := NewGuard(p, fastGuardConfig())
	venues, err := g.Search(context.Background(), model.SearchQuery{}, 20)
	require.NoError(t, err)
	assert.Len(t, venues, 1)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "google", g.Name())
}

func TestGuard_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	p := &funcProvider{name: "yelp", fn: func(_ context.Context) ([]model.ProviderVenue, error) {
		calls.Add(1)
		return nil, &resilience.StatusError{Service: "yelp", StatusCode: 400}
	}}

	_, err := NewGuard(p, fastGuardConfig()).Search(context.Background(), model.SearchQuery{}, 20)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGuard_Timeout(t *testing.T) {
	p := &funcProvider{name: "slow", fn: func(ctx context.Context) ([]model.ProviderVenue, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := fastGuardConfig()
	cfg.Timeout = 20 * time.Millisecond

	start := time.Now()
	_, err := NewGuard(p, cfg).Search(context.Background(), model.SearchQuery{}, 20)
	assert.ErrorIs(t, err, ErrProviderTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGuard_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &funcProvider{name: "google", fn: func(ctx context.Context) ([]model.ProviderVenue, error) {
		cancel()
		return nil, ctx.Err()
	}}

	_, err := NewGuard(p, fastGuardConfig()).Search(ctx, model.SearchQuery{}, 20)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGuard_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	p := &funcProvider{name: "google", fn: func(_ context.Context) ([]model.ProviderVenue, error) {
		calls.Add(1)
		return nil, resilience.NewTransientError(errors.New("connection reset by peer"), 0)
	}}
	cfg := fastGuardConfig()
	cfg.Retry.MaxRetries = 0

	g := NewGuard(p, cfg)
	for i := 0; i < 2; i++ {
		_, err := g.Search(context.Background(), model.SearchQuery{}, 20)
		require.Error(t, err)
	}
	assert.Equal(t, "open", g.BreakerState())

	_, err := g.Search(context.Background(), model.SearchQuery{}, 20)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGuard_RateLimit(t *testing.T) {
	p := &funcProvider{name: "yelp", fn: func(_ context.Context) ([]model.ProviderVenue, error) {
		return nil, nil
	}}
	cfg := fastGuardConfig()
	cfg.RateLimit = 20 // burst 20

	g := NewGuard(p, cfg)
	for i := 0; i < 5; i++ {
		_, err := g.Search(context.Background(), model.SearchQuery{}, 20)
		require.NoError(t, err)
	}
}
