package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/cache"
	"github.com/sells-group/venue-cli/internal/config"
	"github.com/sells-group/venue-cli/internal/cost"
	"github.com/sells-group/venue-cli/internal/enrich"
	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/provider"
	"github.com/sells-group/venue-cli/internal/rank"
	"github.com/sells-group/venue-cli/internal/resilience"
	"github.com/sells-group/venue-cli/internal/resolve"
	"github.com/sells-group/venue-cli/internal/scorer"
	"github.com/sells-group/venue-cli/internal/search"
	"github.com/sells-group/venue-cli/internal/store"
	anthropicpkg "github.com/sells-group/venue-cli/pkg/anthropic"
	"github.com/sells-group/venue-cli/pkg/google"
	"github.com/sells-group/venue-cli/pkg/yelp"
)

// appEnv holds the initialized collaborators used by the search, compat
// and serve commands. Any field may be nil when the command does not
// need it.
type appEnv struct {
	Store   store.PreferenceStore
	Search  *search.Service
	Scorer  *scorer.Scorer
	Cache   *cache.ResultCache
	Metrics *metrics.Metrics
	Guards  []*provider.Guard
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured preference store.
func initStore(ctx context.Context, c *config.Config) (store.PreferenceStore, error) {
	st, err := store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initScorer builds the compatibility scorer, with the AI path when it is
// enabled and a key is configured.
func initScorer(c *config.Config, m *metrics.Metrics) (*scorer.Scorer, error) {
	opts := []scorer.Option{scorer.WithMetrics(m)}
	if c.Scoring.AIEnabled && c.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(c.Anthropic.Key)
		timeout := time.Duration(c.Scoring.TimeoutSecs) * time.Second
		ai := scorer.NewAnthropicScorer(client, c.Anthropic.Model, timeout).
			WithCosts(cost.NewCalculator(cost.DefaultRates()), m)
		opts = append(opts, scorer.WithAI(ai))
	} else if c.Scoring.AIEnabled {
		zap.L().Warn("scoring.ai_enabled set without anthropic.key, using rule-based scoring")
	}
	return scorer.New(opts...)
}

// initProviders registers every enabled provider behind a Guard. The
// Google client is returned for route enrichment and may be nil.
func initProviders(c *config.Config, m *metrics.Metrics) (*provider.Registry, []*provider.Guard, google.Client, error) {
	retry := resilience.FromRetryConfig(c.Retry.MaxRetries, c.Retry.BaseDelayMs, c.Retry.MaxDelayMs, c.Retry.Backoff)
	breaker := resilience.FromBreakerConfig(c.Breaker.FailureThreshold, c.Breaker.ResetTimeoutSecs)
	guardCfg := func(timeoutSecs int, rateLimit float64) provider.GuardConfig {
		return provider.GuardConfig{
			Timeout:   time.Duration(timeoutSecs) * time.Second,
			Retry:     retry,
			Breaker:   breaker,
			RateLimit: rateLimit,
			Metrics:   m,
		}
	}

	reg := provider.NewRegistry()
	var guards []*provider.Guard
	register := func(p provider.Provider, gc provider.GuardConfig) {
		g := provider.NewGuard(p, gc)
		reg.Register(g)
		guards = append(guards, g)
	}

	var googleClient google.Client
	if gc := c.Providers.Google; gc.Enabled {
		var opts []google.Option
		if gc.BaseURL != "" {
			opts = append(opts, google.WithBaseURL(gc.BaseURL))
		}
		if gc.RoutesBaseURL != "" {
			opts = append(opts, google.WithRoutesBaseURL(gc.RoutesBaseURL))
		}
		googleClient = google.NewClient(gc.Key, opts...)
		register(provider.NewGoogle(googleClient), guardCfg(gc.TimeoutSecs, gc.RateLimit))
	}
	if yc := c.Providers.Yelp; yc.Enabled {
		var opts []yelp.Option
		if yc.BaseURL != "" {
			opts = append(opts, yelp.WithBaseURL(yc.BaseURL))
		}
		register(provider.NewYelp(yelp.NewClient(yc.Key, opts...)), guardCfg(yc.TimeoutSecs, yc.RateLimit))
	}
	if sc := c.Providers.Static; sc.Enabled {
		st, err := provider.LoadStatic(sc.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		register(st, guardCfg(0, 0))
	}
	return reg, guards, googleClient, nil
}

// initEnricher builds the enricher for the configured mode. Routes modes
// need the Google client and fall back to estimates without it.
func initEnricher(c *config.Config, googleClient google.Client, m *metrics.Metrics) *enrich.Enricher {
	if !c.Enrich.Enabled {
		return nil
	}
	var f enrich.Fetcher
	if c.Enrich.Mode == "" || c.Enrich.Mode == "estimate" || googleClient == nil {
		f = enrich.NewEstimateFetcher(c.Enrich.AvgSpeedKMH)
	} else {
		f = enrich.NewRoutesFetcher(googleClient, c.Enrich.Mode)
	}
	return enrich.New(f, enrich.Options{
		Concurrency: c.Enrich.Concurrency,
		Timeout:     time.Duration(c.Enrich.TimeoutSecs) * time.Second,
		Retry:       resilience.FromRetryConfig(c.Retry.MaxRetries, c.Retry.BaseDelayMs, c.Retry.MaxDelayMs, c.Retry.Backoff),
		Metrics:     m,
	})
}

// initSearch wires the orchestrator and its collaborators.
func initSearch(c *config.Config, env *appEnv) error {
	reg, guards, googleClient, err := initProviders(c, env.Metrics)
	if err != nil {
		return err
	}
	env.Guards = guards

	strategy, err := search.ParseStrategy(c.Search.Strategy)
	if err != nil {
		return err
	}

	resolver := resolve.New(resolve.Options{
		DedupThresholdM:         c.Search.DedupThresholdM,
		NameSimilarityThreshold: c.Search.NameSimilarityThreshold,
		MaxClusterDiameterM:     c.Search.MaxClusterDiameterM,
		MergeVenueData:          c.Search.MergeVenueData,
	})
	ranker := rank.New(rank.Options{
		MaxTotalVenues:  c.Search.MaxTotalVenues,
		RatingBaseline:  c.Ranking.RatingBaseline,
		RatingWeight:    c.Ranking.RatingWeight,
		OpenNowBonus:    c.Ranking.OpenNowBonus,
		ClosedPenalty:   c.Ranking.ClosedPenalty,
		TimeOfDayBonus:  c.Ranking.TimeOfDayBonus,
		DistancePenalty: c.Ranking.DistancePenalty,
	})
	env.Cache = cache.New(cache.Options{
		TTL:      c.Cache.TTL(),
		Capacity: c.Cache.Capacity,
		Headroom: c.Cache.Headroom,
	})

	extra := []search.Option{search.WithCache(env.Cache), search.WithMetrics(env.Metrics)}
	if e := initEnricher(c, googleClient, env.Metrics); e != nil {
		extra = append(extra, search.WithEnricher(e))
	}
	env.Search = search.NewService(reg, resolver, ranker, search.Options{
		Strategy:                strategy,
		Primary:                 c.Search.Primary,
		MaxVenuesPerSource:      c.Search.MaxVenuesPerSource,
		RequireAtLeastOneSource: c.Search.RequireAtLeastOneSource,
		MinVenuesForSuccess:     c.Search.MinVenuesForSuccess,
		KeyPrecision:            c.Cache.KeyPrecision,
		EnrichTopN:              c.Enrich.TopN,
	}, extra...)
	return nil
}

// initApp validates cfg for mode and builds the environment. Callers should
// defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &appEnv{Metrics: metrics.New()}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	env.Store = st

	if env.Scorer, err = initScorer(cfg, env.Metrics); err != nil {
		env.Close()
		return nil, err
	}

	if mode == "search" || mode == "serve" {
		if err := initSearch(cfg, env); err != nil {
			env.Close()
			return nil, err
		}
	}
	return env, nil
}

// loadProfile returns the stored profile for userID, or an empty profile
// when userID is empty.
func loadProfile(ctx context.Context, st store.PreferenceStore, userID string) (model.PreferenceProfile, error) {
	if userID == "" {
		return model.PreferenceProfile{}, nil
	}
	p, err := st.GetProfile(ctx, userID)
	if err != nil {
		return model.PreferenceProfile{}, err
	}
	return *p, nil
}

// searchInput is the shared CLI and HTTP search request.
type searchInput struct {
	Lat        float64            `json:"lat"`
	Lng        float64            `json:"lng"`
	RadiusM    int                `json:"radius_m"`
	Cuisines   []string           `json:"cuisines"`
	Vibes      []string           `json:"vibes"`
	PriceTiers []string           `json:"price_tiers"`
	Providers  []string           `json:"providers"`
	UserID     string             `json:"user_id"`
	PartnerID  string             `json:"partner_id"`
	External   map[string]float64 `json:"external"`
}

// runSearch resolves the profiles named by in and runs the search.
func runSearch(ctx context.Context, env *appEnv, in searchInput) (*search.Result, error) {
	user, err := loadProfile(ctx, env.Store, in.UserID)
	if err != nil {
		return nil, err
	}
	req := search.Request{
		Query: model.NewSearchQuery(model.Coordinate{Lat: in.Lat, Lng: in.Lng}, in.RadiusM, model.Filters{
			Cuisines:   in.Cuisines,
			Vibes:      in.Vibes,
			PriceTiers: in.PriceTiers,
		}),
		Providers: in.Providers,
		User:      user,
		External:  in.External,
	}
	if in.PartnerID != "" {
		partner, err := loadProfile(ctx, env.Store, in.PartnerID)
		if err != nil {
			return nil, err
		}
		req.Partner = &partner
	}
	return env.Search.Search(ctx, req)
}
