// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/models"
)

// Collector is the feed collection surface the task handlers drive.
type Collector interface {
	CollectAll(ctx context.Context) (*models.CollectionStats, error)
	CollectSingle(ctx context.Context, sourceID int64) (*models.CollectionStats, error)
	CollectByNames(ctx context.Context, names []string) (*models.CollectionStats, error)
}

// Processor drains the enhancement backlog.
type Processor interface {
	ProcessUnprocessed(ctx context.Context, batchSize int) (*models.ProcessingStats, error)
}

// Deduper runs the full nightly duplicate sweep.
type Deduper interface {
	FullScan(ctx context.Context, windowDays int) (models.DedupeStats, error)
}

// CacheOps is the cache manager surface used by maintenance tasks.
type CacheOps interface {
	WarmAll(ctx context.Context) cache.WarmReport
	WarmLayers(ctx context.Context, layers []string) cache.WarmReport
	InvalidateTopic(ctx context.Context, topic string) bool
	CacheRunStats(ctx context.Context, stats interface{}) bool
}

// SourceStore reads and disables sources for the health sweep.
type SourceStore interface {
	EnabledSources(ctx context.Context) ([]models.Source, error)
	DisableSource(ctx context.Context, id int64, reason string) error
}

// scheduler is the enqueuer surface handlers use for follow-up work.
type scheduler interface {
	EnqueueAfter(delay time.Duration, kind string, args Args)
}

// Health sweep thresholds. A source past the disable line has proven
// it mostly fails and is still failing; one past the warn line gets
// logged so an operator can look before it degrades further.
const (
	healthDisableRate        = 0.7
	healthDisableConsecutive = 5
	healthWarnRate           = 0.5
)

// processFollowUpDelay is how long after a productive collection run
// the follow-up processing task fires, giving slower feeds in the same
// window a chance to land first.
const processFollowUpDelay = 5 * time.Minute

// Deps carries the pipeline components the task system drives.
type Deps struct {
	Collector Collector
	Processor Processor

	// Deduper may be nil when deduplication is disabled; the nightly
	// sweep then reports a no-op instead of failing.
	Deduper Deduper

	Cache   CacheOps
	Sources SourceStore

	// Redis backs task status and the cross-replica kind lock.
	Redis *cache.Adapter
}

// Handlers executes task requests against the pipeline components.
type Handlers struct {
	collector        Collector
	processor        Processor
	deduper          Deduper
	cache            CacheOps
	sources          SourceStore
	enqueuer         scheduler
	dedupeWindowDays int
	followUpDelay    time.Duration
	log              zerolog.Logger
}

// NewHandlers wires the handler set. dedupeWindowDays is the default
// window for the nightly sweep when a request does not carry its own.
func NewHandlers(deps Deps, enq *Enqueuer, dedupeWindowDays int) *Handlers {
	h := &Handlers{
		collector:        deps.Collector,
		processor:        deps.Processor,
		deduper:          deps.Deduper,
		cache:            deps.Cache,
		sources:          deps.Sources,
		dedupeWindowDays: dedupeWindowDays,
		followUpDelay:    processFollowUpDelay,
		log:              logging.WithComponent("tasks"),
	}
	if enq != nil {
		h.enqueuer = enq
	}
	return h
}

// Run executes one task and returns its result payload.
func (h *Handlers) Run(ctx context.Context, req *Request) (interface{}, error) {
	switch req.Kind {
	case KindCollectAll:
		return h.collectAll(ctx)
	case KindCollectSingle:
		return h.collectSingle(ctx, req.Args)
	case KindTriggerSources:
		return h.triggerSources(ctx, req.Args)
	case KindProcessContent:
		return h.processContent(ctx, req.Args)
	case KindDedupe:
		return h.dedupe(ctx, req.Args)
	case KindHealthCheck:
		return h.healthCheck(ctx)
	case KindWarmCache:
		return h.warmCache(ctx, req.Args)
	case KindInvalidateTopic:
		return h.invalidateTopic(ctx, req.Args)
	default:
		return nil, fmt.Errorf("unknown task kind %q", req.Kind)
	}
}

// collectAll polls every due source, caches the run summary, and
// schedules a follow-up processing pass when anything new arrived.
func (h *Handlers) collectAll(ctx context.Context) (interface{}, error) {
	stats, err := h.collector.CollectAll(ctx)
	if err != nil {
		return nil, err
	}

	h.cache.CacheRunStats(ctx, stats)

	if stats.ArticlesCollected > 0 && h.enqueuer != nil {
		h.enqueuer.EnqueueAfter(h.followUpDelay, KindProcessContent, Args{})
		h.log.Info().Int("articles", stats.ArticlesCollected).Dur("delay", h.followUpDelay).
			Msg("Scheduled follow-up content processing")
	}
	return stats, nil
}

func (h *Handlers) collectSingle(ctx context.Context, args Args) (interface{}, error) {
	if args.SourceID <= 0 {
		return nil, fmt.Errorf("collect_single requires a source id")
	}
	stats, err := h.collector.CollectSingle(ctx, args.SourceID)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (h *Handlers) triggerSources(ctx context.Context, args Args) (interface{}, error) {
	if len(args.Names) == 0 {
		return nil, fmt.Errorf("trigger_sources requires source names")
	}
	stats, err := h.collector.CollectByNames(ctx, args.Names)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (h *Handlers) processContent(ctx context.Context, args Args) (interface{}, error) {
	stats, err := h.processor.ProcessUnprocessed(ctx, args.BatchSize)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// dedupe runs the full sweep: fingerprint regeneration plus the hash,
// title, and domain strategies over the configured window.
func (h *Handlers) dedupe(ctx context.Context, args Args) (interface{}, error) {
	if h.deduper == nil {
		h.log.Info().Msg("Deduplication disabled, sweep skipped")
		return models.DedupeStats{Message: "deduplication disabled"}, nil
	}

	window := args.WindowDays
	if window <= 0 {
		window = h.dedupeWindowDays
	}
	stats, err := h.deduper.FullScan(ctx, window)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// healthCheck sweeps enabled sources, disables the ones that have
// crossed the failure thresholds, and caches the report.
func (h *Handlers) healthCheck(ctx context.Context) (interface{}, error) {
	sources, err := h.sources.EnabledSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources for health sweep: %w", err)
	}

	report := models.HealthReport{TotalSources: len(sources)}
	for i := range sources {
		src := &sources[i]
		rate := failureRate(src)
		switch {
		case rate > healthDisableRate && src.ConsecutiveFailures >= healthDisableConsecutive:
			reason := fmt.Sprintf("health sweep: failure rate %.2f over %d polls, %d consecutive failures",
				rate, src.TotalPolls, src.ConsecutiveFailures)
			if err := h.sources.DisableSource(ctx, src.ID, reason); err != nil {
				h.log.Error().Err(err).Str("source", src.Name).Msg("Failed to disable unhealthy source")
				report.ProblematicSources++
				continue
			}
			report.DisabledSources++
			report.DisabledNames = append(report.DisabledNames, src.Name)
			h.log.Warn().Str("source", src.Name).Float64("failure_rate", rate).
				Int("consecutive_failures", src.ConsecutiveFailures).
				Msg("Source disabled by health sweep")
		case rate > healthWarnRate:
			report.ProblematicSources++
			h.log.Warn().Str("source", src.Name).Float64("failure_rate", rate).
				Int("total_polls", src.TotalPolls).
				Msg("Source failure rate elevated")
		default:
			report.HealthySources++
		}
	}

	h.cache.CacheRunStats(ctx, report)
	return report, nil
}

func (h *Handlers) warmCache(ctx context.Context, args Args) (interface{}, error) {
	if len(args.Layers) == 0 {
		report := h.cache.WarmAll(ctx)
		return report, nil
	}
	report := h.cache.WarmLayers(ctx, args.Layers)
	return report, nil
}

func (h *Handlers) invalidateTopic(ctx context.Context, args Args) (interface{}, error) {
	topic := strings.TrimSpace(args.Topic)
	if topic == "" {
		return nil, fmt.Errorf("invalidate_topic requires a topic")
	}
	invalidated := h.cache.InvalidateTopic(ctx, topic)
	return map[string]interface{}{
		"topic":       topic,
		"invalidated": invalidated,
	}, nil
}

// failureRate is failed polls over lifetime polls, with the divisor
// floored at one so fresh sources read as healthy.
func failureRate(src *models.Source) float64 {
	total := src.TotalPolls
	if total < 1 {
		total = 1
	}
	return float64(src.FailedPolls) / float64(total)
}
