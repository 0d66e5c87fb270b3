// Package enrich fetches per-venue route data in bounded-concurrency waves.
package enrich

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resilience"
)

// Defaults.
const (
	DefaultConcurrency = 5
	DefaultTimeout     = 10 * time.Second
)

// Fetcher produces the enrichment for one venue.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, origin model.Coordinate, v model.MergedVenue) (*model.EnrichmentResult, error)
}

// ProgressFunc is called after each venue completes.
type ProgressFunc func(done, total int)

// Options configures an Enricher.
type Options struct {
	Concurrency int
	Timeout     time.Duration // per venue, retries included
	Retry       resilience.RetryConfig
	Progress    ProgressFunc
	Metrics     *metrics.Metrics
}

// Enricher is the BatchEnricher.
type Enricher struct {
	fetcher Fetcher
	opts    Options
	log     *zap.Logger
}

// New creates an Enricher around f.
func New(f Fetcher, opts Options) *Enricher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger(f.Name(), "enrich")
	}
	return &Enricher{
		fetcher: f,
		opts:    opts,
		log:     zap.L().With(zap.String("component", "enrich"), zap.String("fetcher", f.Name())),
	}
}

// EnrichBatch enriches venues in waves of at most limit concurrent fetches
// (limit <= 0 uses the configured concurrency), reporting to the
// configured Progress callback. A failed venue maps to nil. When ctx is
// cancelled no further wave starts; members already in flight finish and
// the partial map is returned with the context error.
func (e *Enricher) EnrichBatch(ctx context.Context, venues []model.MergedVenue, origin model.Coordinate, limit int) (map[string]*model.EnrichmentResult, error) {
	return e.EnrichBatchProgress(ctx, venues, origin, limit, e.opts.Progress)
}

// EnrichBatchProgress is EnrichBatch with a per-call progress callback.
// Counts are local to the call, so concurrent batches on one Enricher
// report independently.
func (e *Enricher) EnrichBatchProgress(ctx context.Context, venues []model.MergedVenue, origin model.Coordinate, limit int, progress ProgressFunc) (map[string]*model.EnrichmentResult, error) {
	if limit <= 0 {
		limit = e.opts.Concurrency
	}
	var done atomic.Int64
	total := len(venues)

	results := make(map[string]*model.EnrichmentResult, len(venues))
	var mu sync.Mutex

	for start := 0; start < len(venues); start += limit {
		if err := ctx.Err(); err != nil {
			e.log.Info("enrichment cancelled", zap.Int64("done", done.Load()), zap.Int("total", total))
			return results, eris.Wrap(err, "enrich: cancelled")
		}

		wave := venues[start:min(start+limit, len(venues))]
		// A fresh group per wave; members run detached from cancellation
		// so a started wave always completes.
		var g errgroup.Group
		for _, v := range wave {
			g.Go(func() error {
				res := e.fetchOne(context.WithoutCancel(ctx), origin, v)
				mu.Lock()
				results[v.ID] = res
				mu.Unlock()

				n := done.Add(1)
				if progress != nil {
					progress(int(n), total)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	return results, nil
}

func (e *Enricher) fetchOne(ctx context.Context, origin model.Coordinate, v model.MergedVenue) *model.EnrichmentResult {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	res, _, err := resilience.DoVal(ctx, e.opts.Retry, func(ctx context.Context) (*model.EnrichmentResult, error) {
		return e.fetcher.Fetch(ctx, origin, v)
	})
	if err == nil && res == nil {
		err = eris.Errorf("enrich: %s returned no result", e.fetcher.Name())
	}
	e.opts.Metrics.ObserveEnrichment(err == nil)
	if err != nil {
		e.log.Warn("venue enrichment failed", zap.String("venue_id", v.ID), zap.Error(err))
		return nil
	}
	res.VenueID = v.ID
	return res
}
