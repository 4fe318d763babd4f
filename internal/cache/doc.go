// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package cache provides the Redis-backed multi-layer cache for the pipeline.

It is split into two pieces: a failure-opaque Adapter over go-redis, and a
Manager that coordinates five cache layers on top of it. The split keeps the
rest of the pipeline insulated from cache-engine outages: a Redis failure
degrades every read to a miss and every write to a no-op, and nothing above
the adapter ever sees an error.

# Layers

The Manager maintains five layers, each with its own key shape and TTL:

  - Layer 1: article projections keyed by content fingerprint
    (article:<fingerprint>, 24h) - written on every insert, used for
    cross-run deduplication hints and hot single-article reads.
  - Layer 2: per-topic article id lists (topic:<topic>:articles, 3h) -
    warmed from the most active topics, read-through with write-back.
  - Layer 3: time-bucketed article id lists (recency:<bucket>:articles
    for 1h/6h/24h, 1h) - no database fallback on miss.
  - Layer 4: per-source performance snapshots (source_perf:<id>, 30m) -
    refreshed on a schedule and after every successful poll.
  - Layer 5: pre-computed digests (digest:<type>:<YYYYMMDD_HH>, 2h) -
    readers probe the previous hour before reporting a miss.

Collection run summaries are stored alongside under rss:stats:<YYYYMMDD_HH>.

# Failure Opacity

Every Adapter operation returns a neutral value (empty string, zero, false,
nil) when the engine call fails, logs the failure, and records it in the
cache_errors_total metric. Ping is the only method that surfaces an error,
and only health checks call it. Callers therefore never need an error path
for cache access; a broken cache behaves exactly like a cold one.

# Invalidation

Ingesting new articles invalidates the affected topic lists, all three
recency buckets, and the current-hour digests in one pass, so stale lists
never outlive the data they index by more than a single poll cycle.

# Warming

Topic, recency, and source-performance warming can run individually or in
parallel via WarmAll. A named mutex per layer prevents two concurrent warms
of the same layer from interleaving their delete/rebuild sequences.
*/
package cache
