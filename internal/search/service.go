// Package search orchestrates venue searches across providers: cache
// lookup, provider fan-out, entity resolution, ranking and enrichment.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/venue-cli/internal/cache"
	"github.com/sells-group/venue-cli/internal/enrich"
	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/provider"
	"github.com/sells-group/venue-cli/internal/rank"
	"github.com/sells-group/venue-cli/internal/resolve"
)

// Strategy selects how providers are queried.
type Strategy string

const (
	// StrategyParallel queries every provider concurrently.
	StrategyParallel Strategy = "parallel"
	// StrategyPrimaryFirst queries the primary provider and falls back to
	// the others only when it errors or returns too few venues.
	StrategyPrimaryFirst Strategy = "primary-first"
)

// ParseStrategy accepts "parallel", "primary-first" and "primary_first".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", string(StrategyParallel):
		return StrategyParallel, nil
	case string(StrategyPrimaryFirst), "primary_first":
		return StrategyPrimaryFirst, nil
	default:
		return "", eris.Errorf("search: unknown strategy %q", s)
	}
}

// Options configures a Service.
type Options struct {
	Strategy                Strategy
	Primary                 string
	MaxVenuesPerSource      int
	RequireAtLeastOneSource bool
	MinVenuesForSuccess     int
	KeyPrecision            int
	// EnrichTopN limits enrichment to the best N ranked venues. Zero
	// enriches none.
	EnrichTopN int
}

// DefaultOptions returns the standard orchestration settings.
func DefaultOptions() Options {
	return Options{
		Strategy:                StrategyParallel,
		Primary:                 "google",
		MaxVenuesPerSource:      20,
		RequireAtLeastOneSource: true,
		MinVenuesForSuccess:     3,
		KeyPrecision:            3,
		EnrichTopN:              10,
	}
}

// Request is one search call.
type Request struct {
	Query model.SearchQuery
	// Providers restricts the search to the named providers. Empty means
	// every registered provider.
	Providers []string
	User      model.PreferenceProfile
	Partner   *model.PreferenceProfile
	// External carries contextual deltas such as weather or crowd levels.
	External map[string]float64
}

// Result is a ranked venue list with degradation metadata.
type Result struct {
	Venues       []model.RankedVenue                `json:"venues"`
	Contributing []string                           `json:"contributing"`
	Failed       map[string]*provider.ProviderError `json:"-"`
	Degraded     bool                               `json:"degraded"`
	Insufficient bool                               `json:"insufficient"`
	Warnings     []string                           `json:"warnings,omitempty"`
	FromCache    bool                               `json:"from_cache"`
	CacheKey     string                             `json:"cache_key"`
	Duration     time.Duration                      `json:"duration"`
}

// FailedProviders returns the sorted names of providers that failed.
func (r *Result) FailedProviders() []string {
	out := make([]string, 0, len(r.Failed))
	for name := range r.Failed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithCache enables result caching.
func WithCache(c *cache.ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithEnricher enables route enrichment of the top ranked venues.
func WithEnricher(e *enrich.Enricher) Option {
	return func(s *Service) { s.enricher = e }
}

// WithMetrics records search, cache and provider metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service is the ProviderSearchOrchestrator.
type Service struct {
	registry *provider.Registry
	resolver *resolve.Resolver
	ranker   *rank.Ranker
	cache    *cache.ResultCache
	enricher *enrich.Enricher
	metrics  *metrics.Metrics
	opts     Options
	nowFunc  func() time.Time
	log      *zap.Logger
}

// NewService creates a search Service.
func NewService(registry *provider.Registry, resolver *resolve.Resolver, ranker *rank.Ranker, opts Options, extra ...Option) *Service {
	if opts.Strategy == "" {
		opts.Strategy = StrategyParallel
	}
	s := &Service{
		registry: registry,
		resolver: resolver,
		ranker:   ranker,
		opts:     opts,
		nowFunc:  time.Now,
		log:      zap.L().With(zap.String("component", "search")),
	}
	for _, o := range extra {
		o(s)
	}
	return s
}

// Search runs one search. It returns a Result, possibly degraded, or an
// error matching ErrAllProvidersUnavailable or ErrCancelled. Invalid
// requests return a *resilience.ValidationError or, for unknown
// providers, an error matching provider.ErrUnknownProvider. Cache entries
// are scoped by strategy and selected providers.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	q := req.Query
	if err := ValidateQuery(q); err != nil {
		s.metrics.ObserveSearch("error", time.Since(start))
		return nil, err
	}
	providers, err := s.registry.Select(req.Providers)
	if err != nil {
		s.metrics.ObserveSearch("error", time.Since(start))
		return nil, err
	}
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	key := cache.ScopedKey(cache.Key(q, s.opts.KeyPrecision), string(s.opts.Strategy), names)
	log := s.log.With(zap.String("cache_key", key))

	if s.cache != nil {
		e, ok := s.cache.GetEntry(key)
		s.metrics.ObserveCacheLookup(ok)
		if ok {
			log.Debug("search cache hit", zap.Int("venues", len(e.Venues)))
			res := &Result{FromCache: true, CacheKey: key, Contributing: e.Contributing}
			failed := make(map[string]*provider.ProviderError, len(e.Failed))
			for _, name := range e.Failed {
				failed[name] = &provider.ProviderError{Provider: name, Err: errFailedWhenCached}
			}
			recordFailures(res, failed)
			res.Venues = s.ranker.Rank(e.Venues, req.User, req.Partner, s.contextFor(req))
			s.checkSufficient(res, len(e.Venues))
			return s.finish(ctx, req, res, "cache_hit", start)
		}
		log.Debug("search cache miss")
	}

	var results map[string][]model.ProviderVenue
	var failed map[string]*provider.ProviderError
	switch s.opts.Strategy {
	case StrategyPrimaryFirst:
		results, failed = s.primaryFirst(ctx, providers, q)
	default:
		results, failed = s.fanOut(ctx, providers, q)
	}

	if ctx.Err() != nil {
		s.metrics.ObserveSearch("cancelled", time.Since(start))
		return nil, eris.Wrap(ErrCancelled, ctx.Err().Error())
	}

	res := &Result{CacheKey: key}
	for name := range results {
		res.Contributing = append(res.Contributing, name)
	}
	sort.Strings(res.Contributing)
	recordFailures(res, failed)

	if len(results) == 0 && s.opts.RequireAtLeastOneSource {
		s.metrics.ObserveSearch("unavailable", time.Since(start))
		log.Warn("all providers unavailable", zap.Strings("failed", res.FailedProviders()))
		return nil, eris.Wrapf(ErrAllProvidersUnavailable, "%d providers failed", len(failed))
	}

	merged := s.resolver.Resolve(results)
	res.Venues = s.ranker.Rank(merged, req.User, req.Partner, s.contextFor(req))
	s.checkSufficient(res, len(merged))

	if s.cache != nil {
		cached := make([]model.MergedVenue, len(res.Venues))
		for i, v := range res.Venues {
			cached[i] = v.MergedVenue
		}
		entry := cache.Entry{Venues: cached, Contributing: res.Contributing, Failed: res.FailedProviders()}
		if err := s.cache.PutEntry(key, entry); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}

	outcome := "ok"
	if res.Degraded {
		outcome = "degraded"
	}
	return s.finish(ctx, req, res, outcome, start)
}

// finish enriches the top venues and records the outcome.
func (s *Service) finish(ctx context.Context, req Request, res *Result, outcome string, start time.Time) (*Result, error) {
	if err := s.enrichTop(ctx, req.Query.Origin, res.Venues); err != nil {
		s.metrics.ObserveSearch("cancelled", time.Since(start))
		return nil, eris.Wrap(ErrCancelled, err.Error())
	}
	res.Duration = time.Since(start)
	s.metrics.ObserveSearch(outcome, res.Duration)
	s.log.Info("search complete",
		zap.String("outcome", outcome),
		zap.Int("venues", len(res.Venues)),
		zap.Strings("contributing", res.Contributing),
		zap.Strings("failed", res.FailedProviders()),
		zap.Duration("elapsed", res.Duration),
	)
	return res, nil
}

// errFailedWhenCached stands in for a provider error restored from a cache
// entry; the original error is not stored.
var errFailedWhenCached = eris.New("failed when the cached result was built")

func recordFailures(res *Result, failed map[string]*provider.ProviderError) {
	res.Failed = failed
	for _, name := range res.FailedProviders() {
		res.Warnings = append(res.Warnings, failed[name].Error())
	}
	res.Degraded = len(failed) > 0
}

func (s *Service) checkSufficient(res *Result, found int) {
	if found >= s.opts.MinVenuesForSuccess {
		return
	}
	res.Insufficient = true
	res.Degraded = true
	res.Warnings = append(res.Warnings, fmt.Sprintf("%v: found %d, want %d", ErrInsufficientResults, found, s.opts.MinVenuesForSuccess))
}

func (s *Service) contextFor(req Request) model.ContextualFactors {
	origin := req.Query.Origin
	return model.ContextualFactors{
		Now:      s.nowFunc(),
		Origin:   &origin,
		External: req.External,
	}
}

// fanOut queries every provider concurrently. Provider failures are
// recorded, never propagated.
func (s *Service) fanOut(ctx context.Context, providers []provider.Provider, q model.SearchQuery) (map[string][]model.ProviderVenue, map[string]*provider.ProviderError) {
	results := make(map[string][]model.ProviderVenue, len(providers))
	failed := make(map[string]*provider.ProviderError)
	var mu sync.Mutex

	var g errgroup.Group
	for _, p := range providers {
		g.Go(func() error {
			venues, err := s.searchOne(ctx, p, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[p.Name()] = err
				return nil
			}
			results[p.Name()] = venues
			return nil
		})
	}
	_ = g.Wait()
	return results, failed
}

// primaryFirst queries the primary provider, then the rest concurrently
// only if the primary errored or returned fewer than MinVenuesForSuccess.
func (s *Service) primaryFirst(ctx context.Context, providers []provider.Provider, q model.SearchQuery) (map[string][]model.ProviderVenue, map[string]*provider.ProviderError) {
	if len(providers) == 0 {
		return map[string][]model.ProviderVenue{}, map[string]*provider.ProviderError{}
	}
	idx := -1
	for i, p := range providers {
		if p.Name() == s.opts.Primary {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
		s.log.Warn("primary provider not selected, using first",
			zap.String("primary", s.opts.Primary),
			zap.String("using", providers[0].Name()),
		)
	}
	primary := providers[idx]
	rest := make([]provider.Provider, 0, len(providers)-1)
	rest = append(rest, providers[:idx]...)
	rest = append(rest, providers[idx+1:]...)

	results := map[string][]model.ProviderVenue{}
	failed := map[string]*provider.ProviderError{}

	venues, err := s.searchOne(ctx, primary, q)
	if err != nil {
		failed[primary.Name()] = err
	} else {
		results[primary.Name()] = venues
		if len(venues) >= s.opts.MinVenuesForSuccess {
			return results, failed
		}
	}
	if ctx.Err() != nil || len(rest) == 0 {
		return results, failed
	}

	s.log.Debug("primary insufficient, querying secondaries",
		zap.String("primary", primary.Name()),
		zap.Int("venues", len(venues)),
	)
	more, moreFailed := s.fanOut(ctx, rest, q)
	for k, v := range more {
		results[k] = v
	}
	for k, v := range moreFailed {
		failed[k] = v
	}
	return results, failed
}

func (s *Service) searchOne(ctx context.Context, p provider.Provider, q model.SearchQuery) ([]model.ProviderVenue, *provider.ProviderError) {
	venues, err := p.Search(ctx, q, s.opts.MaxVenuesPerSource)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warn("provider failed", zap.String("provider", p.Name()), zap.Error(err))
		}
		return nil, &provider.ProviderError{Provider: p.Name(), Err: err}
	}
	if s.opts.MaxVenuesPerSource > 0 && len(venues) > s.opts.MaxVenuesPerSource {
		venues = venues[:s.opts.MaxVenuesPerSource]
	}
	return venues, nil
}

// enrichTop attaches enrichment to the best EnrichTopN venues in place.
// Only cancellation is reported; per-venue failures leave Enrichment nil.
func (s *Service) enrichTop(ctx context.Context, origin model.Coordinate, ranked []model.RankedVenue) error {
	n := min(s.opts.EnrichTopN, len(ranked))
	if s.enricher == nil || n <= 0 {
		return nil
	}
	top := make([]model.MergedVenue, n)
	for i := range n {
		top[i] = ranked[i].MergedVenue
	}
	enriched, err := s.enricher.EnrichBatch(ctx, top, origin, 0)
	for i := range n {
		ranked[i].Enrichment = enriched[ranked[i].ID]
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
