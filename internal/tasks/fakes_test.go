// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/models"
)

// fakeCollector records calls and serves canned stats. blockCtx makes
// CollectAll wait for context cancellation before returning, modeling a
// handler that winds down at the soft limit; blockForever parks it on
// the release channel, modeling one that ignores its context.
type fakeCollector struct {
	mu        sync.Mutex
	stats     *models.CollectionStats
	err       error
	allCalls  int
	singleIDs []int64
	nameCalls [][]string

	blockCtx     bool
	blockForever bool
	release      chan struct{}
}

func (f *fakeCollector) CollectAll(ctx context.Context) (*models.CollectionStats, error) {
	f.mu.Lock()
	f.allCalls++
	f.mu.Unlock()

	if f.blockForever {
		<-f.release
		return f.stats, f.err
	}
	if f.blockCtx {
		<-ctx.Done()
		return f.stats, nil
	}
	return f.stats, f.err
}

func (f *fakeCollector) CollectSingle(_ context.Context, sourceID int64) (*models.CollectionStats, error) {
	f.mu.Lock()
	f.singleIDs = append(f.singleIDs, sourceID)
	f.mu.Unlock()
	return f.stats, f.err
}

func (f *fakeCollector) CollectByNames(_ context.Context, names []string) (*models.CollectionStats, error) {
	f.mu.Lock()
	f.nameCalls = append(f.nameCalls, names)
	f.mu.Unlock()
	return f.stats, f.err
}

func (f *fakeCollector) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allCalls
}

type fakeProcessor struct {
	mu      sync.Mutex
	stats   *models.ProcessingStats
	err     error
	batches []int
}

func (f *fakeProcessor) ProcessUnprocessed(_ context.Context, batchSize int) (*models.ProcessingStats, error) {
	f.mu.Lock()
	f.batches = append(f.batches, batchSize)
	f.mu.Unlock()
	return f.stats, f.err
}

func (f *fakeProcessor) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.batches...)
}

type fakeDeduper struct {
	mu      sync.Mutex
	stats   models.DedupeStats
	err     error
	windows []int
}

func (f *fakeDeduper) FullScan(_ context.Context, windowDays int) (models.DedupeStats, error) {
	f.mu.Lock()
	f.windows = append(f.windows, windowDays)
	f.mu.Unlock()
	return f.stats, f.err
}

type fakeCache struct {
	mu          sync.Mutex
	report      cache.WarmReport
	warmAll     int
	warmLayers  [][]string
	invalidated []string
	runStats    []interface{}
}

func (f *fakeCache) WarmAll(context.Context) cache.WarmReport {
	f.mu.Lock()
	f.warmAll++
	f.mu.Unlock()
	return f.report
}

func (f *fakeCache) WarmLayers(_ context.Context, layers []string) cache.WarmReport {
	f.mu.Lock()
	f.warmLayers = append(f.warmLayers, layers)
	f.mu.Unlock()
	return f.report
}

func (f *fakeCache) InvalidateTopic(_ context.Context, topic string) bool {
	f.mu.Lock()
	f.invalidated = append(f.invalidated, topic)
	f.mu.Unlock()
	return true
}

func (f *fakeCache) CacheRunStats(_ context.Context, stats interface{}) bool {
	f.mu.Lock()
	f.runStats = append(f.runStats, stats)
	f.mu.Unlock()
	return true
}

func (f *fakeCache) runStatsCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runStats)
}

type fakeSources struct {
	mu         sync.Mutex
	sources    []models.Source
	listErr    error
	disabled   []int64
	reasons    []string
	disableErr map[int64]error
}

func (f *fakeSources) EnabledSources(context.Context) ([]models.Source, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Source, len(f.sources))
	copy(out, f.sources)
	return out, nil
}

func (f *fakeSources) DisableSource(_ context.Context, id int64, reason string) error {
	if err := f.disableErr[id]; err != nil {
		return err
	}
	f.mu.Lock()
	f.disabled = append(f.disabled, id)
	f.reasons = append(f.reasons, reason)
	f.mu.Unlock()
	return nil
}

type publishedTask struct {
	topic string
	msg   *message.Message
}

// fakePublisher captures published messages in memory.
type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published []publishedTask
}

func (f *fakePublisher) Publish(topic string, msgs ...*message.Message) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range msgs {
		f.published = append(f.published, publishedTask{topic: topic, msg: msg})
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) all() []publishedTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedTask(nil), f.published...)
}

type scheduledTask struct {
	delay time.Duration
	kind  string
	args  Args
}

// fakeScheduler records follow-up scheduling synchronously.
type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduledTask
}

func (f *fakeScheduler) EnqueueAfter(delay time.Duration, kind string, args Args) {
	f.mu.Lock()
	f.calls = append(f.calls, scheduledTask{delay: delay, kind: kind, args: args})
	f.mu.Unlock()
}

func (f *fakeScheduler) scheduled() []scheduledTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scheduledTask(nil), f.calls...)
}

// newTestStatus builds a status store over an in-memory Redis.
func newTestStatus(t *testing.T) (*StatusStore, *cache.Adapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	adapter := cache.NewAdapterWithClient(client)
	return NewStatusStore(adapter), adapter, mr
}
