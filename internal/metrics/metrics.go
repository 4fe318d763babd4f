// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed Collection Metrics
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Duration of feed fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_total",
			Help: "Total number of feed fetch attempts by outcome",
		},
		[]string{"source", "result"}, // "success", "not_modified", "error", "rejected"
	)

	CollectionRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collection_runs_total",
			Help: "Total number of completed collection cycles",
		},
	)

	CollectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collection_duration_seconds",
			Help:    "Duration of full collection cycles in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ArticlesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_discovered_total",
			Help: "Total number of feed entries seen during collection",
		},
	)

	ArticlesInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_inserted_total",
			Help: "Total number of new articles persisted",
		},
	)

	ArticlesDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_duplicate_total",
			Help: "Total number of feed entries skipped as duplicates",
		},
	)

	SourceReliability = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "source_reliability",
			Help: "Current reliability score per source (20-95)",
		},
		[]string{"source"},
	)

	SourcesDisabled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sources_disabled_total",
			Help: "Total number of sources auto-disabled after repeated failures",
		},
	)

	// Processing Metrics
	ArticlesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_processed_total",
			Help: "Total number of articles run through enhancement by outcome",
		},
		[]string{"result"}, // "enhanced", "skipped", "failed"
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "processing_duration_seconds",
			Help:    "Duration of enhancement batches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	BreakingNewsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "breaking_news_detected_total",
			Help: "Total number of articles flagged as breaking news",
		},
	)

	ArticleQualityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "article_quality_score",
			Help:    "Distribution of computed article quality scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// Deduplication Metrics
	DedupeScans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedupe_scans_total",
			Help: "Total number of completed deduplication scans",
		},
	)

	DedupeDuplicatesRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedupe_duplicates_removed_total",
			Help: "Total number of duplicate articles removed by strategy",
		},
		[]string{"strategy"}, // "fingerprint", "title_source", "url", "similarity"
	)

	DedupeScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dedupe_scan_duration_seconds",
			Help:    "Duration of deduplication scans in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"layer"}, // "article", "topic", "recency", "source_perf", "digest", "stats"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"layer"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache backend failures absorbed by the adapter",
		},
		[]string{"operation"}, // "get", "set", "delete", "scan"
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of cache keys dropped by invalidation",
		},
		[]string{"layer"},
	)

	CacheWarmDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cache_warm_duration_seconds",
			Help:    "Duration of cache warming passes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheWarmKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_warm_keys_total",
			Help: "Total number of keys written by cache warming",
		},
		[]string{"layer"},
	)

	// Task Metrics
	TasksPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_published_total",
			Help: "Total number of task envelopes enqueued",
		},
		[]string{"kind"},
	)

	TasksExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_executed_total",
			Help: "Total number of task executions by outcome",
		},
		[]string{"kind", "status"}, // "success", "failure", "timeout", "skipped"
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_duration_seconds",
			Help:    "Duration of task executions in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	TasksInflight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tasks_inflight",
			Help: "Current number of running tasks",
		},
		[]string{"kind"},
	)

	BeatTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beat_ticks_total",
			Help: "Total number of scheduler firings per job",
		},
		[]string{"job"},
	)

	// Database Metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postgres_query_duration_seconds",
			Help:    "Duration of Postgres queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postgres_query_errors_total",
			Help: "Total number of Postgres query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	StoreConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "postgres_connections_active",
			Help: "Current number of database connections in use",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordFeedFetch records one fetch attempt against a source.
// Result must be one of "success", "not_modified", "error", "rejected".
func RecordFeedFetch(source, result string, duration time.Duration) {
	FeedFetchTotal.WithLabelValues(source, result).Inc()
	FeedFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordCollectionRun records a completed collection cycle.
func RecordCollectionRun(duration time.Duration, discovered, inserted, duplicates int) {
	CollectionRuns.Inc()
	CollectionDuration.Observe(duration.Seconds())
	ArticlesDiscovered.Add(float64(discovered))
	ArticlesInserted.Add(float64(inserted))
	ArticlesDuplicate.Add(float64(duplicates))
}

// SetSourceReliability updates the reliability gauge for a source.
func SetSourceReliability(source string, score int) {
	SourceReliability.WithLabelValues(source).Set(float64(score))
}

// RecordProcessingBatch records an enhancement batch.
func RecordProcessingBatch(duration time.Duration, enhanced, skipped, failed int) {
	ProcessingDuration.Observe(duration.Seconds())
	ArticlesProcessed.WithLabelValues("enhanced").Add(float64(enhanced))
	ArticlesProcessed.WithLabelValues("skipped").Add(float64(skipped))
	ArticlesProcessed.WithLabelValues("failed").Add(float64(failed))
}

// RecordQualityScore records one computed quality score.
func RecordQualityScore(score float64) {
	ArticleQualityScore.Observe(score)
}

// RecordDedupeScan records a completed deduplication scan.
// removedByStrategy maps strategy name to the number of rows it removed.
func RecordDedupeScan(duration time.Duration, removedByStrategy map[string]int) {
	DedupeScans.Inc()
	DedupeScanDuration.Observe(duration.Seconds())
	for strategy, count := range removedByStrategy {
		DedupeDuplicatesRemoved.WithLabelValues(strategy).Add(float64(count))
	}
}

// RecordCacheHit records a cache hit for a layer.
func RecordCacheHit(layer string) {
	CacheHits.WithLabelValues(layer).Inc()
}

// RecordCacheMiss records a cache miss for a layer.
func RecordCacheMiss(layer string) {
	CacheMisses.WithLabelValues(layer).Inc()
}

// RecordCacheError records a cache backend failure absorbed by the adapter.
func RecordCacheError(operation string) {
	CacheErrors.WithLabelValues(operation).Inc()
}

// RecordCacheInvalidation records keys dropped from a layer.
func RecordCacheInvalidation(layer string, keys int) {
	CacheInvalidations.WithLabelValues(layer).Add(float64(keys))
}

// RecordCacheWarm records a cache warming pass.
// keysByLayer maps layer name to the number of keys written.
func RecordCacheWarm(duration time.Duration, keysByLayer map[string]int) {
	CacheWarmDuration.Observe(duration.Seconds())
	for layer, count := range keysByLayer {
		CacheWarmKeys.WithLabelValues(layer).Add(float64(count))
	}
}

// RecordTaskPublished records an envelope enqueued to the broker.
func RecordTaskPublished(kind string) {
	TasksPublished.WithLabelValues(kind).Inc()
}

// RecordTaskExecution records a finished task execution.
// Status must be one of "success", "failure", "timeout", "skipped".
func RecordTaskExecution(kind, status string, duration time.Duration) {
	TasksExecuted.WithLabelValues(kind, status).Inc()
	TaskDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// TrackTaskInflight adjusts the in-flight gauge for a task kind.
func TrackTaskInflight(kind string, inc bool) {
	if inc {
		TasksInflight.WithLabelValues(kind).Inc()
	} else {
		TasksInflight.WithLabelValues(kind).Dec()
	}
}

// RecordBeatTick records a scheduler firing.
func RecordBeatTick(job string) {
	BeatTicks.WithLabelValues(job).Inc()
}

// RecordStoreQuery records a database query metric.
func RecordStoreQuery(operation, table string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		StoreQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
