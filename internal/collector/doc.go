// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package collector polls feed sources and turns their entries into
article rows.

A collection run queries the sources due for polling (ordered by
reliability, best first), drops any source whose circuit breaker is
open, and fans the rest out across a bounded pool of workers. Each
worker walks one source through fetch, parse, extract, duplicate
pre-check and batch insert, then records the outcome on the source's
counters. One source failing never disturbs its peers; CollectAll
reports partial success as the normal case.

# Fetching

The Fetcher speaks plain HTTPS GET with a browser identity, asks for
gzip, deflate and brotli, and decompresses responses itself. Stored
ETag and Last-Modified validators ride along as conditional headers;
a 304 counts as a successful, empty poll. Requests against the same
publisher host share a token-bucket rate limiter so one publisher's
many section feeds do not hammer a single server. Transient failures
retry up to three times, timeouts with exponential backoff.

# Circuit breaking

Every source has its own circuit breaker. Five consecutive failed
polls open it for an hour; the next run after the cooldown gets one
trial poll, and a success closes the breaker again. Breaker state is
process-local and deliberately not persisted: the durable escalation
path is the source's own consecutive-failure counter, which disables
the source row at ten.

# Cache priming

After a successful poll the collector pushes freshly inserted
articles into the article cache layer, refreshes the source's
performance snapshot, and invalidates the topic, recency and digest
list keys the new articles made stale. All cache writes are
failure-opaque; collection runs identically with no cache at all.
*/
package collector
