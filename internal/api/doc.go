// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package api exposes the read surface of the pipeline over HTTP.

Every endpoint responds with the models.APIResponse envelope: a status
string, a data payload, metadata carrying the response timestamp and
query duration, and a structured error when the request failed. Handlers
are split by concern:

  - handlers.go: Handler struct, dependency interfaces, guards
  - handlers_articles.go: article listing and cache-first reads
  - handlers_stats.go: dashboard aggregates and the source roster
  - handlers_cache.go: cache introspection, warming, invalidation
  - handlers_tasks.go: manual collection triggers and task state
  - handlers_health.go: health, liveness, readiness

Routing is Chi (chi_router.go) with middleware from the Chi ecosystem:
go-chi/cors for CORS, go-chi/httprate for per-IP rate limits, and the
internal middleware package for request IDs, Prometheus instrumentation,
and response compression. Prometheus metrics are served at /metrics.

The package depends on its consumers through three narrow interfaces
(ArticleStore, CacheManager, TaskBus) so the HTTP layer can be exercised
against fakes; database.Store, cache.Manager, and tasks.Service satisfy
them in production.
*/
package api
