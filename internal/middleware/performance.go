// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/herald/internal/logging"
)

// DefaultSlowThreshold is the latency above which a request is logged
// as slow.
const DefaultSlowThreshold = time.Second

// SlowRequests creates middleware that logs a warning for any request
// whose handler takes longer than threshold. Latency percentiles live
// in the Prometheus histograms; this exists so an operator tailing
// logs sees the offending path and status without a metrics query.
func SlowRequests(threshold time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	if threshold <= 0 {
		threshold = DefaultSlowThreshold
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapper := &statusResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next(wrapper, r)

			duration := time.Since(start)
			if duration > threshold {
				logging.Warn().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", wrapper.statusCode).
					Dur("duration", duration).
					Dur("threshold", threshold).
					Msg("Slow request detected")
			}
		}
	}
}

// statusResponseWriter wraps http.ResponseWriter to capture the status
// code.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code.
func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
