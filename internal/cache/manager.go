// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package cache

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
	"github.com/tomtom215/herald/internal/models"
)

const (
	// topicWindow bounds how far back topic warming looks.
	topicWindow = 6 * time.Hour
	// activeTopicWindow and activeTopicLimit select which topics get warmed
	// when no explicit list is given.
	activeTopicWindow = 24 * time.Hour
	activeTopicLimit  = 15

	// defaultSmartLimit is the page size when a reader passes no limit.
	defaultSmartLimit = 50
	// defaultMaxIDsPerKey caps id lists when the config leaves it unset.
	defaultMaxIDsPerKey = 200
	// defaultTopSources is the list size for top-performing source reads.
	defaultTopSources = 10

	// runStatsHistory caps how many hourly run summaries a read returns.
	runStatsHistory = 24

	digestCacheVersion = "1.0"
)

// fallbackTopics is warmed when the active-topic query fails.
var fallbackTopics = []string{"technology", "business", "politics", "general"}

// Store is the slice of the persistence layer the cache manager reads from
// when warming or falling through on a miss.
type Store interface {
	ActiveTopics(ctx context.Context, since time.Time, limit int) ([]string, error)
	ArticleIDsByTopic(ctx context.Context, topic string, since time.Time, limit int) ([]int64, error)
	RecentArticleIDs(ctx context.Context, since time.Time, limit int) ([]int64, error)
	EnabledSources(ctx context.Context) ([]models.Source, error)
	TopSourceIDs(ctx context.Context, limit int) ([]int64, error)
}

// Manager coordinates the five cache layers over the adapter.
//
// All reads and writes go through the failure-opaque adapter, so Manager
// methods never return errors either: a dead cache makes every read a miss
// and every warm a no-op. Warming of a given layer is serialized by a named
// mutex; different layers warm in parallel under WarmAll.
type Manager struct {
	redis *Adapter
	store Store
	cfg   config.CacheConfig
	log   zerolog.Logger

	// now stamps hour-keyed entries and window cutoffs. Tests pin it.
	now func() time.Time

	startedAt     time.Time
	hits          atomic.Int64
	misses        atomic.Int64
	writes        atomic.Int64
	invalidations atomic.Int64
	warmings      atomic.Int64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewManager wires a cache manager over the given store and adapter.
func NewManager(store Store, redis *Adapter, cfg config.CacheConfig) *Manager {
	return &Manager{
		redis:     redis,
		store:     store,
		cfg:       cfg,
		log:       logging.WithComponent("cache"),
		now:       time.Now,
		startedAt: time.Now(),
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor returns the named warming mutex, creating it on first use.
func (m *Manager) lockFor(name string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	return l
}

func (m *Manager) maxIDs() int {
	if m.cfg.MaxIDsPerKey > 0 {
		return m.cfg.MaxIDsPerKey
	}
	return defaultMaxIDsPerKey
}

func (m *Manager) recordHit(layer string) {
	m.hits.Add(1)
	metrics.RecordCacheHit(layer)
}

func (m *Manager) recordMiss(layer string) {
	m.misses.Add(1)
	metrics.RecordCacheMiss(layer)
}

// CachedArticle is the layer-1 projection stored per fingerprint.
type CachedArticle struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	SourceName   string    `json:"source_name"`
	PrimaryTopic string    `json:"primary_topic"`
	DiscoveredAt time.Time `json:"discovered_at"`
	CachedAt     time.Time `json:"cached_at"`
}

// CacheArticle writes the layer-1 projection for a freshly inserted
// article. Articles without a fingerprint cannot be cached.
func (m *Manager) CacheArticle(ctx context.Context, a *models.Article) bool {
	if a == nil || a.Fingerprint == "" {
		return false
	}

	entry := CachedArticle{
		ID:           a.ID,
		Title:        a.Title,
		URL:          a.URL,
		SourceName:   a.SourceName,
		PrimaryTopic: a.PrimaryTopic,
		DiscoveredAt: a.DiscoveredAt,
		CachedAt:     m.now().UTC(),
	}

	ok := m.redis.SetJSON(ctx, ArticleKey(a.Fingerprint), entry, m.cfg.ArticleTTL())
	if ok {
		m.writes.Add(1)
	}
	return ok
}

// Article returns the layer-1 projection for a fingerprint, if cached.
func (m *Manager) Article(ctx context.Context, fingerprint string) (*CachedArticle, bool) {
	var entry CachedArticle
	if !m.redis.GetJSON(ctx, ArticleKey(fingerprint), &entry) {
		m.recordMiss(LayerArticle)
		return nil, false
	}
	m.recordHit(LayerArticle)
	return &entry, true
}

// HasArticle reports whether a fingerprint is present in layer 1 without
// deserializing it. Collection uses this as a cross-run duplicate hint.
func (m *Manager) HasArticle(ctx context.Context, fingerprint string) bool {
	return m.redis.Exists(ctx, ArticleKey(fingerprint))
}

// WarmTopics rebuilds the topic id lists. With a nil or empty topic slice
// it warms the currently most active topics. Returns ids cached per topic.
func (m *Manager) WarmTopics(ctx context.Context, topics []string) map[string]int {
	lock := m.lockFor("topic_warming")
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	m.warmings.Add(1)

	if len(topics) == 0 {
		topics = m.activeTopics(ctx)
	}

	results := make(map[string]int, len(topics))
	cutoff := m.now().UTC().Add(-topicWindow)
	total := 0

	for _, topic := range topics {
		ids, err := m.store.ArticleIDsByTopic(ctx, topic, cutoff, m.maxIDs())
		if err != nil {
			m.log.Warn().Err(err).Str("topic", topic).Msg("Topic warming query failed")
			results[topic] = 0
			continue
		}
		if len(ids) == 0 {
			results[topic] = 0
			continue
		}
		if m.redis.CacheIDList(ctx, TopicKey(topic), ids, m.cfg.TopicTTL()) {
			results[topic] = len(ids)
			total += len(ids)
			m.writes.Add(1)
		} else {
			results[topic] = 0
		}
	}

	metrics.RecordCacheWarm(time.Since(start), map[string]int{LayerTopic: total})
	m.log.Info().Int("topics", len(results)).Int("ids", total).Msg("Warmed topic caches")
	return results
}

// activeTopics picks the warming set. A configured warm_topics list pins
// the set without querying; otherwise recent article volume decides, with
// the staple topics covering a failed query.
func (m *Manager) activeTopics(ctx context.Context) []string {
	if len(m.cfg.WarmTopics) > 0 {
		return append([]string(nil), m.cfg.WarmTopics...)
	}
	topics, err := m.store.ActiveTopics(ctx, m.now().UTC().Add(-activeTopicWindow), activeTopicLimit)
	if err != nil {
		m.log.Warn().Err(err).Msg("Active topic query failed, warming fallback topics")
		return append([]string(nil), fallbackTopics...)
	}
	return topics
}

// ArticlesByTopic returns up to limit article ids for a topic, newest
// first. On a miss it falls through to the store and writes the result
// back so the next reader hits.
func (m *Manager) ArticlesByTopic(ctx context.Context, topic string, limit int) []int64 {
	if limit <= 0 {
		limit = defaultSmartLimit
	}

	ids := m.redis.IDList(ctx, TopicKey(topic))
	if len(ids) > 0 {
		m.recordHit(LayerTopic)
		if len(ids) > limit {
			ids = ids[:limit]
		}
		return ids
	}

	m.recordMiss(LayerTopic)
	return m.fetchAndCacheTopic(ctx, topic, limit)
}

// fetchAndCacheTopic is the read-through path: unwindowed by design so a
// quiet topic still serves its back catalog.
func (m *Manager) fetchAndCacheTopic(ctx context.Context, topic string, limit int) []int64 {
	ids, err := m.store.ArticleIDsByTopic(ctx, topic, time.Time{}, limit)
	if err != nil {
		m.log.Warn().Err(err).Str("topic", topic).Msg("Topic fall-through query failed")
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	if m.redis.CacheIDList(ctx, TopicKey(topic), ids, m.cfg.TopicTTL()) {
		m.writes.Add(1)
	}
	return ids
}

// WarmRecency rebuilds all three recency buckets. Returns ids cached per
// bucket.
func (m *Manager) WarmRecency(ctx context.Context) map[string]int {
	lock := m.lockFor("recency_warming")
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	m.warmings.Add(1)

	results := make(map[string]int, len(TimeBuckets))
	total := 0

	for _, bucket := range TimeBuckets {
		window, _ := BucketWindow(bucket)
		ids, err := m.store.RecentArticleIDs(ctx, m.now().UTC().Add(-window), m.maxIDs())
		if err != nil {
			m.log.Warn().Err(err).Str("bucket", bucket).Msg("Recency warming query failed")
			results[bucket] = 0
			continue
		}
		if m.redis.CacheIDList(ctx, RecencyKey(bucket), ids, m.cfg.RecencyTTL()) {
			results[bucket] = len(ids)
			total += len(ids)
			m.writes.Add(1)
		} else {
			results[bucket] = 0
		}
	}

	metrics.RecordCacheWarm(time.Since(start), map[string]int{LayerRecency: total})
	m.log.Info().Int("ids", total).Msg("Warmed recency caches")
	return results
}

// ArticlesByRecency returns up to limit ids from a time bucket, newest
// first. There is deliberately no store fallback: a cold bucket means an
// empty answer until the next warm.
func (m *Manager) ArticlesByRecency(ctx context.Context, bucket string, limit int) []int64 {
	if limit <= 0 {
		limit = defaultSmartLimit
	}

	ids := m.redis.IDList(ctx, RecencyKey(bucket))
	if len(ids) == 0 {
		m.recordMiss(LayerRecency)
		return nil
	}

	m.recordHit(LayerRecency)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// WarmSourcePerformance snapshots metrics for every enabled source into
// layer 4. Returns the number of sources cached.
func (m *Manager) WarmSourcePerformance(ctx context.Context) int {
	lock := m.lockFor("source_perf_warming")
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	m.warmings.Add(1)

	sources, err := m.store.EnabledSources(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("Source performance warming query failed")
		return 0
	}

	now := m.now()
	cached := 0
	for i := range sources {
		snap := sources[i].Performance(now)
		if m.redis.SetJSON(ctx, SourcePerfKey(sources[i].ID), snap, m.cfg.SourcePerfTTL()) {
			cached++
			m.writes.Add(1)
		}
	}

	metrics.RecordCacheWarm(time.Since(start), map[string]int{LayerSourcePerf: cached})
	m.log.Info().Int("sources", cached).Msg("Cached source performance metrics")
	return cached
}

// CacheSourcePerformance refreshes one source's snapshot, called after
// every successful poll so the layer tracks live collection results.
func (m *Manager) CacheSourcePerformance(ctx context.Context, src *models.Source) bool {
	if src == nil || src.ID == 0 {
		return false
	}
	ok := m.redis.SetJSON(ctx, SourcePerfKey(src.ID), src.Performance(m.now()), m.cfg.SourcePerfTTL())
	if ok {
		m.writes.Add(1)
	}
	return ok
}

// TopPerformingSources returns cached snapshots for the highest-reliability
// sources. It probes twice the requested count to ride over snapshots that
// have expired, then reorders by reliability.
func (m *Manager) TopPerformingSources(ctx context.Context, limit int) []models.PerformanceSnapshot {
	if limit <= 0 {
		limit = defaultTopSources
	}

	ids, err := m.store.TopSourceIDs(ctx, limit*2)
	if err != nil {
		m.log.Warn().Err(err).Msg("Top source query failed")
		return nil
	}

	top := make([]models.PerformanceSnapshot, 0, limit)
	for _, id := range ids {
		var snap models.PerformanceSnapshot
		if !m.redis.GetJSON(ctx, SourcePerfKey(id), &snap) {
			m.recordMiss(LayerSourcePerf)
			continue
		}
		snap.SourceID = id
		top = append(top, snap)
		m.recordHit(LayerSourcePerf)
		if len(top) >= limit {
			break
		}
	}

	sort.Slice(top, func(i, j int) bool { return top[i].Reliability > top[j].Reliability })
	return top
}

// CacheDigest stores a pre-computed digest under the current hour,
// stamping it with generation metadata.
func (m *Manager) CacheDigest(ctx context.Context, digestType string, content map[string]interface{}) bool {
	digest := make(map[string]interface{}, len(content)+4)
	for k, v := range content {
		digest[k] = v
	}
	digest["generated_at"] = m.now().UTC().Format(time.RFC3339)
	digest["digest_type"] = digestType
	digest["article_count"] = digestArticleCount(content["articles"])
	digest["cache_version"] = digestCacheVersion

	ok := m.redis.SetJSON(ctx, DigestKey(digestType, m.now()), digest, m.cfg.DigestTTL())
	if ok {
		m.writes.Add(1)
	}
	return ok
}

func digestArticleCount(v interface{}) int {
	switch articles := v.(type) {
	case []interface{}:
		return len(articles)
	case []map[string]interface{}:
		return len(articles)
	case []models.ArticleView:
		return len(articles)
	}
	return 0
}

// Digest returns a cached digest, probing the current hour and then the
// previous one so readers straddling an hour boundary still get the last
// generated digest.
func (m *Manager) Digest(ctx context.Context, digestType string) (map[string]interface{}, bool) {
	for _, offset := range []time.Duration{0, time.Hour} {
		var digest map[string]interface{}
		if m.redis.GetJSON(ctx, DigestKey(digestType, m.now().Add(-offset)), &digest) {
			m.recordHit(LayerDigest)
			return digest, true
		}
	}
	m.recordMiss(LayerDigest)
	return nil, false
}

// Invalidation counts the keys dropped by one smart-invalidation pass.
type Invalidation struct {
	Topics  int `json:"topics"`
	Recency int `json:"recency"`
	Digests int `json:"digests"`
}

// InvalidateForArticles drops every list the given freshly ingested
// articles have made stale: their topics, all recency buckets, and the
// current-hour digests. Counts only keys that actually existed.
func (m *Manager) InvalidateForArticles(ctx context.Context, articles []*models.Article) Invalidation {
	var inv Invalidation
	if len(articles) == 0 {
		return inv
	}

	topics := make(map[string]struct{})
	for _, a := range articles {
		if a != nil && a.PrimaryTopic != "" {
			topics[a.PrimaryTopic] = struct{}{}
		}
	}

	for topic := range topics {
		if m.redis.Delete(ctx, TopicKey(topic)) > 0 {
			inv.Topics++
			m.invalidations.Add(1)
		}
	}

	for _, bucket := range TimeBuckets {
		if m.redis.Delete(ctx, RecencyKey(bucket)) > 0 {
			inv.Recency++
			m.invalidations.Add(1)
		}
	}

	now := m.now()
	for _, digestType := range []string{DigestMorning, DigestEvening} {
		if m.redis.Delete(ctx, DigestKey(digestType, now)) > 0 {
			inv.Digests++
			m.invalidations.Add(1)
		}
	}

	if inv.Topics > 0 {
		metrics.RecordCacheInvalidation(LayerTopic, inv.Topics)
	}
	if inv.Recency > 0 {
		metrics.RecordCacheInvalidation(LayerRecency, inv.Recency)
	}
	if inv.Digests > 0 {
		metrics.RecordCacheInvalidation(LayerDigest, inv.Digests)
	}

	m.log.Info().
		Int("topics", inv.Topics).
		Int("recency", inv.Recency).
		Int("digests", inv.Digests).
		Msg("Smart invalidation completed")
	return inv
}

// InvalidateTopic drops one topic list. Returns whether the key existed.
func (m *Manager) InvalidateTopic(ctx context.Context, topic string) bool {
	if m.redis.Delete(ctx, TopicKey(topic)) == 0 {
		return false
	}
	m.invalidations.Add(1)
	metrics.RecordCacheInvalidation(LayerTopic, 1)
	m.log.Info().Str("topic", topic).Msg("Invalidated topic cache")
	return true
}

// SourceWarmReport counts sources snapshotted during a warm.
type SourceWarmReport struct {
	SourcesCached int `json:"sources_cached"`
}

// WarmReport summarizes one warming pass across layers.
type WarmReport struct {
	Status            string            `json:"status"`
	TopicWarming      map[string]int    `json:"topic_warming,omitempty"`
	RecencyWarming    map[string]int    `json:"recency_warming,omitempty"`
	SourcePerformance *SourceWarmReport `json:"source_performance,omitempty"`
	WarmingSeconds    float64           `json:"warming_time_seconds"`
	Timestamp         time.Time         `json:"timestamp"`
}

// WarmAll warms the topic, recency, and source-performance layers in
// parallel and reports per-layer results with total wall time.
func (m *Manager) WarmAll(ctx context.Context) WarmReport {
	start := time.Now()
	report := WarmReport{Status: "completed", SourcePerformance: &SourceWarmReport{}}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		report.TopicWarming = m.WarmTopics(ctx, nil)
	}()
	go func() {
		defer wg.Done()
		report.RecencyWarming = m.WarmRecency(ctx)
	}()
	go func() {
		defer wg.Done()
		report.SourcePerformance.SourcesCached = m.WarmSourcePerformance(ctx)
	}()
	wg.Wait()

	report.WarmingSeconds = time.Since(start).Seconds()
	report.Timestamp = m.now().UTC()
	m.log.Info().Float64("seconds", report.WarmingSeconds).Msg("Cache warming completed")
	return report
}

// WarmLayers warms only the named layers ("topic", "recency",
// "source_perf"); an empty list means everything.
func (m *Manager) WarmLayers(ctx context.Context, layers []string) WarmReport {
	if len(layers) == 0 {
		return m.WarmAll(ctx)
	}

	start := time.Now()
	report := WarmReport{Status: "completed"}

	for _, layer := range layers {
		switch layer {
		case LayerTopic:
			report.TopicWarming = m.WarmTopics(ctx, nil)
		case LayerRecency:
			report.RecencyWarming = m.WarmRecency(ctx)
		case LayerSourcePerf:
			report.SourcePerformance = &SourceWarmReport{SourcesCached: m.WarmSourcePerformance(ctx)}
		default:
			m.log.Warn().Str("layer", layer).Msg("Unknown cache layer requested for warming")
		}
	}

	report.WarmingSeconds = time.Since(start).Seconds()
	report.Timestamp = m.now().UTC()
	return report
}

// ArticlesSmart is the layered read: recency bucket first when given, then
// topic. A nil result with an empty layer name means a full miss; the
// caller decides whether to hit persistence.
func (m *Manager) ArticlesSmart(ctx context.Context, topic, bucket string, limit int) ([]int64, string) {
	if bucket != "" {
		if ids := m.ArticlesByRecency(ctx, bucket, limit); len(ids) > 0 {
			return ids, LayerRecency
		}
	}
	if topic != "" {
		if ids := m.ArticlesByTopic(ctx, topic, limit); len(ids) > 0 {
			return ids, LayerTopic
		}
	}
	return nil, ""
}

// CacheRunStats stores one collection run summary under the current hour.
func (m *Manager) CacheRunStats(ctx context.Context, stats interface{}) bool {
	ok := m.redis.SetJSON(ctx, RunStatsKey(m.now()), stats, m.cfg.StatsTTL())
	if ok {
		m.writes.Add(1)
	}
	return ok
}

// RecentRunStats returns up to a day of hourly collection summaries,
// oldest first.
func (m *Manager) RecentRunStats(ctx context.Context) []map[string]interface{} {
	keys := m.redis.Keys(ctx, "rss:stats:*")
	sort.Strings(keys)
	if len(keys) > runStatsHistory {
		keys = keys[len(keys)-runStatsHistory:]
	}

	out := make([]map[string]interface{}, 0, len(keys))
	for _, key := range keys {
		var stats map[string]interface{}
		if m.redis.GetJSON(ctx, key, &stats) {
			out = append(out, stats)
		}
	}
	return out
}

// ManagerStats is the manager-side counter snapshot.
type ManagerStats struct {
	HitRatioPercent    float64 `json:"hit_ratio_percent"`
	TotalHits          int64   `json:"total_hits"`
	TotalMisses        int64   `json:"total_misses"`
	TotalWrites        int64   `json:"total_writes"`
	TotalInvalidations int64   `json:"total_invalidations"`
	WarmingOperations  int64   `json:"warming_operations"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	OpsPerSecond       float64 `json:"operations_per_second"`
}

// Stats snapshots the manager counters.
func (m *Manager) Stats() ManagerStats {
	hits := m.hits.Load()
	misses := m.misses.Load()
	writes := m.writes.Load()
	uptime := time.Since(m.startedAt).Seconds()

	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total) * 100
	}

	return ManagerStats{
		HitRatioPercent:    math.Round(ratio*100) / 100,
		TotalHits:          hits,
		TotalMisses:        misses,
		TotalWrites:        writes,
		TotalInvalidations: m.invalidations.Load(),
		WarmingOperations:  m.warmings.Load(),
		UptimeSeconds:      uptime,
		OpsPerSecond:       float64(hits+misses+writes) / math.Max(uptime, 1),
	}
}

// ConfigView echoes the active cache tuning in analytics payloads.
type ConfigView struct {
	ArticleTTLSeconds    int `json:"article_ttl_seconds"`
	TopicTTLSeconds      int `json:"topic_ttl_seconds"`
	RecencyTTLSeconds    int `json:"recency_ttl_seconds"`
	SourcePerfTTLSeconds int `json:"source_perf_ttl_seconds"`
	DigestTTLSeconds     int `json:"digest_ttl_seconds"`
	StatsTTLSeconds      int `json:"stats_ttl_seconds"`
	MaxIDsPerKey         int `json:"max_ids_per_key"`
}

// AnalyticsReport fuses manager counters with the engine's own view.
type AnalyticsReport struct {
	Manager   ManagerStats `json:"manager_stats"`
	Engine    EngineStats  `json:"redis_stats"`
	Config    ConfigView   `json:"cache_config"`
	Timestamp time.Time    `json:"timestamp"`
}

// Analytics builds the full cache analytics payload.
func (m *Manager) Analytics(ctx context.Context) AnalyticsReport {
	return AnalyticsReport{
		Manager: m.Stats(),
		Engine:  m.redis.EngineStats(ctx),
		Config: ConfigView{
			ArticleTTLSeconds:    m.cfg.ArticleTTLSeconds,
			TopicTTLSeconds:      m.cfg.TopicTTLSeconds,
			RecencyTTLSeconds:    m.cfg.RecencyTTLSeconds,
			SourcePerfTTLSeconds: m.cfg.SourcePerfTTLSeconds,
			DigestTTLSeconds:     m.cfg.DigestTTLSeconds,
			StatsTTLSeconds:      m.cfg.StatsTTLSeconds,
			MaxIDsPerKey:         m.maxIDs(),
		},
		Timestamp: m.now().UTC(),
	}
}

// Health reports engine reachability and latency.
func (m *Manager) Health(ctx context.Context) HealthReport {
	return m.redis.Health(ctx)
}

// Ping exposes the adapter's reachability probe for startup checks.
func (m *Manager) Ping(ctx context.Context) error {
	return m.redis.Ping(ctx)
}
