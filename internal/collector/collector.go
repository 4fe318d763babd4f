// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package collector

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
	"github.com/tomtom215/herald/internal/models"
)

// Fallbacks for zero-valued configuration.
const (
	defaultConcurrency = 10
	defaultMaxPerFeed  = 20
)

// Store is the persistence surface the collector reads sources from
// and writes articles through.
type Store interface {
	SourcesDue(ctx context.Context, now time.Time) ([]models.Source, error)
	GetSourceByID(ctx context.Context, id int64) (*models.Source, error)
	ListSources(ctx context.Context) ([]models.Source, error)
	UpdateSource(ctx context.Context, src *models.Source) error
	FingerprintsIn(ctx context.Context, fingerprints []string) (map[string]struct{}, error)
	InsertArticleBatch(ctx context.Context, articles []*models.Article) ([]models.InsertOutcome, error)
}

// Primer is the cache surface fed after polls. Every method is
// failure-opaque, so collection behaves identically with a cold cache,
// a dead cache, or a nil Primer.
type Primer interface {
	CacheArticle(ctx context.Context, a *models.Article) bool
	CacheSourcePerformance(ctx context.Context, src *models.Source) bool
	InvalidateForArticles(ctx context.Context, articles []*models.Article) cache.Invalidation
	CacheRunStats(ctx context.Context, stats interface{}) bool
}

// Collector runs collection cycles over the source table.
//
// CollectAll never fails on per-source trouble; its error return is
// reserved for the one genuinely unrecoverable case, the source query
// itself failing. Everything below that is captured per source in the
// returned stats.
type Collector struct {
	store    Store
	cache    Primer
	fetcher  *Fetcher
	breakers *breakers
	parser   *gofeed.Parser
	cfg      config.CollectorConfig
	log      zerolog.Logger

	now func() time.Time
}

// pollOutcome is what one successful source poll produces: the stats
// row plus the inserted articles for cache priming, and the candidate
// counts behind the run metrics.
type pollOutcome struct {
	result     *models.SourceResult
	inserted   []*models.Article
	discovered int
	duplicates int
}

// pollResult pairs a source's outcome with its breaker-filtered error.
type pollResult struct {
	outcome *pollOutcome
	err     error
}

// New builds a collector. primer may be nil (cacheless operation).
func New(store Store, primer Primer, cfg config.CollectorConfig) *Collector {
	return &Collector{
		store:    store,
		cache:    primer,
		fetcher:  NewFetcher(cfg),
		breakers: newBreakers(breakerFailureLimit, breakerCooldown),
		parser:   gofeed.NewParser(),
		cfg:      cfg,
		log:      logging.WithComponent("collector"),
		now:      time.Now,
	}
}

// CollectAll polls every source that is due, skipping the ones whose
// circuit breaker is open.
func (c *Collector) CollectAll(ctx context.Context) (*models.CollectionStats, error) {
	now := c.now().UTC()

	due, err := c.store.SourcesDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due sources: %w", err)
	}
	if len(due) == 0 {
		c.log.Debug().Msg("No sources due for polling")
		return &models.CollectionStats{
			StartedAt: now,
			Message:   "No sources due for polling",
		}, nil
	}

	active := make([]models.Source, 0, len(due))
	for _, src := range due {
		if c.breakers.tripped(src.ID, src.Name) {
			metrics.RecordFeedFetch(src.Name, "rejected", 0)
			continue
		}
		active = append(active, src)
	}
	skipped := len(due) - len(active)
	if skipped > 0 {
		c.log.Info().Int("skipped", skipped).Msg("Circuit breaker excluded sources from this run")
	}
	c.log.Info().Int("due", len(due)).Int("polling", len(active)).Msg("Starting collection run")

	return c.collectSources(ctx, active, skipped), nil
}

// CollectSingle polls one source on demand, due or not.
func (c *Collector) CollectSingle(ctx context.Context, sourceID int64) (*models.CollectionStats, error) {
	src, err := c.store.GetSourceByID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %d: %w", sourceID, err)
	}
	return c.collectSources(ctx, []models.Source{*src}, 0), nil
}

// CollectByNames polls the named sources on demand. Name matching is
// case-insensitive; unknown names are simply absent from the result.
func (c *Collector) CollectByNames(ctx context.Context, names []string) (*models.CollectionStats, error) {
	all, err := c.store.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}

	matched := make([]models.Source, 0, len(names))
	for _, src := range all {
		if _, ok := want[strings.ToLower(src.Name)]; ok {
			matched = append(matched, src)
		}
	}
	if len(matched) == 0 {
		return &models.CollectionStats{
			StartedAt: c.now().UTC(),
			Message:   "No matching sources",
		}, nil
	}
	return c.collectSources(ctx, matched, 0), nil
}

// collectSources fans the given sources out across the worker pool
// and aggregates their outcomes into run stats.
func (c *Collector) collectSources(ctx context.Context, sources []models.Source, skipped int) *models.CollectionStats {
	started := c.now().UTC()
	startWall := time.Now()
	stats := &models.CollectionStats{
		StartedAt:      started,
		BreakerSkipped: skipped,
	}

	results := c.pollAll(ctx, sources)

	var insertedAll []*models.Article
	var discovered, duplicates int
	for i, r := range results {
		src := sources[i]
		switch {
		case r.err != nil && rejected(r.err):
			// The breaker opened between the filter pass and this
			// worker getting scheduled.
			stats.BreakerSkipped++
		case r.err != nil:
			stats.SourcesFailed++
			stats.FailedSources = append(stats.FailedSources, src.Name)
			stats.Results = append(stats.Results, models.SourceResult{
				SourceID:   src.ID,
				SourceName: src.Name,
				Error:      r.err.Error(),
			})
		default:
			out := r.outcome
			stats.SourcesProcessed++
			stats.ArticlesCollected += out.result.ArticlesCollected
			stats.SuccessfulSources = append(stats.SuccessfulSources, src.Name)
			stats.Results = append(stats.Results, *out.result)
			insertedAll = append(insertedAll, out.inserted...)
			discovered += out.discovered
			duplicates += out.duplicates
		}
	}

	stats.ProcessingTimeSeconds = time.Since(startWall).Seconds()
	metrics.RecordCollectionRun(time.Since(startWall), discovered, len(insertedAll), duplicates)

	if c.cache != nil {
		if len(insertedAll) > 0 {
			c.cache.InvalidateForArticles(ctx, insertedAll)
		}
		c.cache.CacheRunStats(ctx, stats)
	}

	c.log.Info().
		Int("sources_processed", stats.SourcesProcessed).
		Int("sources_failed", stats.SourcesFailed).
		Int("articles_collected", stats.ArticlesCollected).
		Int("breaker_skipped", stats.BreakerSkipped).
		Float64("seconds", stats.ProcessingTimeSeconds).
		Msg("Collection run completed")

	return stats
}

// pollAll runs the per-source polls with bounded parallelism. Workers
// never return errors through the group; each source's fate lands in
// its own slot so one death cannot cancel a peer.
func (c *Collector) pollAll(ctx context.Context, sources []models.Source) []pollResult {
	maxConcurrent := c.cfg.ConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = defaultConcurrency
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	results := make([]pollResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i := range sources {
		i := i
		src := sources[i]
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results[i] = pollResult{err: err}
				return nil
			}
			defer sem.Release(1)

			out, err := c.breakers.execute(src.ID, src.Name, func() (*pollOutcome, error) {
				return c.pollSource(gctx, &src)
			})
			results[i] = pollResult{outcome: out, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never error; Wait is just the join

	return results
}

// pollSource walks one source through fetch, parse, extract, duplicate
// pre-check and insert, then records the outcome on the source row.
// The returned error feeds the source's circuit breaker.
func (c *Collector) pollSource(ctx context.Context, src *models.Source) (*pollOutcome, error) {
	start := time.Now()
	log := c.log.With().Str("source", src.Name).Logger()
	log.Info().Str("url", src.URL).Msg("Collecting from source")

	fres, err := c.fetcher.Fetch(ctx, src)
	if err != nil {
		c.recordFailure(ctx, src, err)
		metrics.RecordFeedFetch(src.Name, "error", time.Since(start))
		return nil, err
	}

	if fres.NotModified {
		elapsedMS := float64(time.Since(start)) / float64(time.Millisecond)
		c.recordSuccess(ctx, src, elapsedMS, 0, fres)
		metrics.RecordFeedFetch(src.Name, "not_modified", time.Since(start))
		log.Debug().Msg("Feed not modified")
		return &pollOutcome{result: &models.SourceResult{
			SourceID:       src.ID,
			SourceName:     src.Name,
			NotModified:    true,
			ResponseTimeMS: elapsedMS,
		}}, nil
	}

	feed, err := c.parser.Parse(bytes.NewReader(fres.Body))
	if err != nil {
		perr := &ParseError{SourceName: src.Name, Err: err}
		c.recordFailure(ctx, src, perr)
		metrics.RecordFeedFetch(src.Name, "error", time.Since(start))
		return nil, perr
	}
	if len(feed.Items) == 0 {
		perr := &ParseError{SourceName: src.Name, Reason: "no entries"}
		c.recordFailure(ctx, src, perr)
		metrics.RecordFeedFetch(src.Name, "error", time.Since(start))
		return nil, perr
	}

	limit := src.MaxArticlesPerPoll
	if limit <= 0 {
		limit = c.cfg.MaxArticlesPerFeed
	}
	if limit <= 0 {
		limit = defaultMaxPerFeed
	}
	items := feed.Items
	if len(items) > limit {
		items = items[:limit]
	}

	now := c.now()
	candidates := make([]*models.Article, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		a := buildArticle(item, src, now)
		if a == nil {
			log.Debug().Msg("Skipping entry without title or link")
			continue
		}
		if _, dup := seen[a.Fingerprint]; dup {
			continue
		}
		seen[a.Fingerprint] = struct{}{}
		candidates = append(candidates, a)
	}

	fresh := candidates
	if len(candidates) > 0 {
		fps := make([]string, len(candidates))
		for i, a := range candidates {
			fps[i] = a.Fingerprint
		}
		existing, err := c.store.FingerprintsIn(ctx, fps)
		if err != nil {
			// Worst case the insert path rediscovers the duplicates.
			log.Warn().Err(err).Msg("Fingerprint pre-check failed, inserting blind")
			existing = map[string]struct{}{}
		}
		fresh = make([]*models.Article, 0, len(candidates))
		for _, a := range candidates {
			if _, ok := existing[a.Fingerprint]; !ok {
				fresh = append(fresh, a)
			}
		}
	}

	var inserted []*models.Article
	dupCount := len(candidates) - len(fresh)
	if len(fresh) > 0 {
		outcomes, err := c.store.InsertArticleBatch(ctx, fresh)
		if err != nil {
			c.recordFailure(ctx, src, err)
			metrics.RecordFeedFetch(src.Name, "error", time.Since(start))
			return nil, err
		}
		for i, o := range outcomes {
			switch {
			case o.Inserted:
				inserted = append(inserted, fresh[i])
			case o.Duplicate:
				dupCount++
			}
		}
	}

	elapsedMS := float64(time.Since(start)) / float64(time.Millisecond)
	c.recordSuccess(ctx, src, elapsedMS, len(inserted), fres)

	if c.cache != nil {
		for _, a := range inserted {
			c.cache.CacheArticle(ctx, a)
		}
	}

	metrics.RecordFeedFetch(src.Name, "success", time.Since(start))
	log.Info().
		Int("entries", len(feed.Items)).
		Int("new", len(fresh)).
		Int("inserted", len(inserted)).
		Msg("Source collection completed")

	return &pollOutcome{
		result: &models.SourceResult{
			SourceID:          src.ID,
			SourceName:        src.Name,
			ArticlesCollected: len(inserted),
			TotalEntries:      len(feed.Items),
			ResponseTimeMS:    elapsedMS,
		},
		inserted:   inserted,
		discovered: len(candidates),
		duplicates: dupCount,
	}, nil
}

// recordSuccess applies the success counters to the source row and
// refreshes its cached performance snapshot. A failed row update is
// logged and absorbed; the poll itself already succeeded.
func (c *Collector) recordSuccess(ctx context.Context, src *models.Source, responseMS float64, articleCount int, fres *FetchResult) {
	src.RecordSuccess(c.now(), responseMS, articleCount)
	if fres != nil {
		src.UpdateValidators(fres.ETag, fres.LastModified)
	}

	if err := c.store.UpdateSource(ctx, src); err != nil {
		c.log.Error().Err(err).Str("source", src.Name).Msg("Failed to record successful poll")
	}
	metrics.SetSourceReliability(src.Name, src.Reliability)

	if c.cache != nil {
		c.cache.CacheSourcePerformance(ctx, src)
	}
}

// recordFailure applies the failure counters and backoff to the
// source row.
func (c *Collector) recordFailure(ctx context.Context, src *models.Source, cause error) {
	src.RecordFailure(c.now(), cause.Error())

	if err := c.store.UpdateSource(ctx, src); err != nil {
		c.log.Error().Err(err).Str("source", src.Name).Msg("Failed to record failed poll")
	}
	metrics.SetSourceReliability(src.Name, src.Reliability)

	if !src.Enabled {
		c.log.Warn().
			Str("source", src.Name).
			Int("consecutive_failures", src.ConsecutiveFailures).
			Msg("Source auto-disabled after repeated failures")
	}
}
