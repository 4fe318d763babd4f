// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package metrics provides Prometheus metrics collection and export for observability.

All metrics are registered on the default registry via promauto and exposed
at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8420/metrics

# Available Metrics

Feed Collection Metrics:
  - feed_fetch_duration_seconds: Feed fetch latency (histogram)
    Labels: source
  - feed_fetch_total: Fetch outcomes (counter)
    Labels: source, result (success, not_modified, error, rejected)
  - collection_runs_total: Completed collection cycles (counter)
  - collection_duration_seconds: Full cycle duration (histogram)
  - articles_discovered_total: Entries seen in feeds (counter)
  - articles_inserted_total: New rows persisted (counter)
  - articles_duplicate_total: Entries skipped as duplicates (counter)
  - source_reliability: Current reliability score per source (gauge)
  - sources_disabled_total: Sources auto-disabled after repeated failures (counter)

Processing Metrics:
  - articles_processed_total: Enhancement outcomes (counter)
    Labels: result (enhanced, skipped, failed)
  - processing_duration_seconds: Batch enhancement duration (histogram)
  - breaking_news_detected_total: Articles flagged breaking (counter)
  - article_quality_score: Distribution of computed quality scores (histogram)

Deduplication Metrics:
  - dedupe_scans_total: Completed dedupe scans (counter)
  - dedupe_duplicates_removed_total: Articles removed (counter)
    Labels: strategy (fingerprint, title_source, url, similarity)
  - dedupe_scan_duration_seconds: Scan duration (histogram)

Cache Metrics:
  - cache_hits_total / cache_misses_total: Per-layer lookups (counter)
    Labels: layer (article, topic, recency, source_perf, digest, stats)
  - cache_errors_total: Backend failures absorbed by the adapter (counter)
    Labels: operation (get, set, delete, scan)
  - cache_invalidations_total: Keys dropped by invalidation (counter)
    Labels: layer
  - cache_warm_duration_seconds: Warming pass duration (histogram)
  - cache_warm_keys_total: Keys written by warming (counter)
    Labels: layer

Task Metrics:
  - tasks_published_total: Envelopes enqueued (counter)
    Labels: kind
  - tasks_executed_total: Executions by outcome (counter)
    Labels: kind, status (success, failure, timeout, skipped)
  - task_duration_seconds: Execution duration (histogram)
    Labels: kind
  - tasks_inflight: Currently running tasks (gauge)
    Labels: kind
  - beat_ticks_total: Scheduler firings (counter)
    Labels: job

Database Metrics:
  - postgres_query_duration_seconds: Query latency (histogram)
    Labels: operation, table
  - postgres_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type

HTTP API Metrics:
  - api_requests_total: Total requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests through breakers (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_state_transitions_total: Transitions (counter)
    Labels: name, from_state, to_state

# Usage

Record helpers keep call sites terse:

	start := time.Now()
	rows, err := store.ArticlesBySource(ctx, id)
	metrics.RecordStoreQuery("select", "articles", time.Since(start), err)
*/
package metrics
