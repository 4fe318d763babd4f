// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package pipeline enriches collected articles: topic classification,
// geographic and business entity extraction, importance grading,
// quality scoring, and summary repair. The processor drains the
// unprocessed backlog in batches and hands the recent window to the
// deduplicator when it finishes.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/database"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
	"github.com/tomtom215/herald/internal/models"
)

const (
	defaultBatchSize = 100

	// dedupeWindowDays is the window handed to the post-run
	// deduplication scan.
	dedupeWindowDays = 3
)

// Store is the persistence surface the processor needs.
type Store interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]models.Article, error)
	UpdateArticleEnhancements(ctx context.Context, a *models.Article) error
	DeleteArticles(ctx context.Context, ids []int64) (int64, error)
}

// Deduper runs the post-run duplicate scan. *dedupe.Engine satisfies
// it.
type Deduper interface {
	RecentScan(ctx context.Context, windowDays int) (models.DedupeStats, error)
}

// Warmer refreshes source performance caches after a run. *cache.Manager
// satisfies it.
type Warmer interface {
	WarmSourcePerformance(ctx context.Context) int
}

// Processor drains and enhances the unprocessed article backlog.
type Processor struct {
	store   Store
	deduper Deduper
	cache   Warmer
	cfg     config.ProcessingConfig
	log     zerolog.Logger
	now     func() time.Time
}

// New builds a Processor. deduper and cache may be nil; the post-run
// scan and cache refresh are skipped without them.
func New(store Store, deduper Deduper, cache Warmer, cfg config.ProcessingConfig) *Processor {
	return &Processor{
		store:   store,
		deduper: deduper,
		cache:   cache,
		cfg:     cfg,
		log:     logging.WithComponent("processor"),
		now:     time.Now,
	}
}

// batchResult tallies one batch.
type batchResult struct {
	marked     int
	enhanced   int
	failed     int
	duplicates int
}

// ProcessUnprocessed drains the backlog of articles awaiting content
// enhancement. Batches are pulled newest-first until the table drains
// or a batch makes no progress; each article is written back with its
// derived fields and the processed flag in a single statement, and a
// failed write leaves the row unprocessed for the next run. After the
// backlog, a recent-window deduplication scan runs and source
// performance caches are refreshed.
func (p *Processor) ProcessUnprocessed(ctx context.Context, batchSize int) (*models.ProcessingStats, error) {
	if batchSize <= 0 {
		batchSize = p.cfg.BatchSize
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	start := p.now()
	stats := &models.ProcessingStats{}
	collisionRemoved := 0

	for {
		batch, err := p.store.FetchUnprocessed(ctx, batchSize)
		if err != nil {
			stats.ProcessingTimeSeconds = p.now().Sub(start).Seconds()
			return stats, err
		}
		if len(batch) == 0 {
			break
		}

		res := p.processBatch(ctx, batch)
		stats.ArticlesProcessed += res.marked
		stats.ArticlesEnhanced += res.enhanced
		stats.ArticlesSkipped += res.failed
		collisionRemoved += res.duplicates

		if res.marked+res.duplicates == 0 {
			// Nothing in the batch left the backlog; the next
			// scheduled run retries these rows.
			break
		}
		if len(batch) < batchSize {
			break
		}
	}

	p.runDedupe(ctx, stats, collisionRemoved)
	p.refreshSourcePerformance(ctx)

	stats.ProcessingTimeSeconds = p.now().Sub(start).Seconds()
	p.log.Info().
		Int("processed", stats.ArticlesProcessed).
		Int("enhanced", stats.ArticlesEnhanced).
		Int("skipped", stats.ArticlesSkipped).
		Int("duplicates_removed", stats.Dedupe.DuplicatesRemoved).
		Float64("seconds", stats.ProcessingTimeSeconds).
		Msg("Content processing completed")
	return stats, nil
}

// processBatch enhances and persists one batch. Rows whose recomputed
// fingerprint collides with another row are duplicates and are removed
// instead of marked.
func (p *Processor) processBatch(ctx context.Context, batch []models.Article) batchResult {
	batchStart := p.now()
	var res batchResult
	var collisions []int64

	for i := range batch {
		article := &batch[i]
		refreshIdentity(article)
		enhanced := enhanceArticle(article, p.now().UTC())

		processedAt := p.now().UTC()
		article.ContentProcessed = true
		article.Classified = true
		article.ProcessedAt = &processedAt

		if err := p.store.UpdateArticleEnhancements(ctx, article); err != nil {
			if database.IsUniqueViolation(err) {
				collisions = append(collisions, article.ID)
				continue
			}
			res.failed++
			p.log.Error().Err(err).Int64("article_id", article.ID).
				Msg("Failed to persist article enhancements")
			continue
		}

		res.marked++
		if enhanced {
			res.enhanced++
		}
		metrics.RecordQualityScore(article.QualityScore)
	}

	if len(collisions) > 0 {
		removed, err := p.store.DeleteArticles(ctx, collisions)
		if err != nil {
			res.failed += len(collisions)
			p.log.Error().Err(err).Msg("Failed to remove duplicate-identity articles")
		} else {
			res.duplicates = int(removed)
			p.log.Warn().Int("count", res.duplicates).
				Msg("Removed articles whose recomputed identity another row owns")
		}
	}

	metrics.RecordProcessingBatch(p.now().Sub(batchStart), res.enhanced, res.marked-res.enhanced, res.failed)
	p.log.Info().
		Int("batch", len(batch)).
		Int("marked", res.marked).
		Int("enhanced", res.enhanced).
		Msg("Processed article batch")
	return res
}

// runDedupe executes the post-run scan and folds in any duplicates the
// batch loop itself removed through fingerprint collisions.
func (p *Processor) runDedupe(ctx context.Context, stats *models.ProcessingStats, collisionRemoved int) {
	if p.deduper != nil {
		scan, err := p.deduper.RecentScan(ctx, dedupeWindowDays)
		if err != nil {
			p.log.Error().Err(err).Msg("Deduplication scan failed")
		}
		stats.Dedupe = scan
	}
	if collisionRemoved > 0 {
		stats.Dedupe.DuplicatesRemoved += collisionRemoved
		stats.Dedupe.HashRemoved += collisionRemoved
	}
}

func (p *Processor) refreshSourcePerformance(ctx context.Context) {
	if p.cache == nil {
		return
	}
	refreshed := p.cache.WarmSourcePerformance(ctx)
	p.log.Debug().Int("sources", refreshed).Msg("Source performance cache refreshed")
}
