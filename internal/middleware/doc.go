// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package middleware provides HTTP middleware components for the API.

The components use the http.HandlerFunc signature and are adapted to
Chi's func(http.Handler) http.Handler form at the router:

  - PrometheusMetrics: request counters, duration histograms, and an
    active-request gauge, labeled by the matched route pattern
  - Compression: response compression negotiated from Accept-Encoding,
    preferring brotli over gzip
  - SlowRequests: warn-level log lines for requests exceeding a latency
    threshold

All components are safe for concurrent use. Compression pools its
writers; the metrics middleware uses the prometheus client's atomic
collectors.
*/
package middleware
