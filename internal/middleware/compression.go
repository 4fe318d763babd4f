// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// compressResponseWriter wraps http.ResponseWriter, routing body bytes
// through a compressing writer.
type compressResponseWriter struct {
	io.Writer
	http.ResponseWriter
	wroteHeader bool
}

func (w *compressResponseWriter) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *compressResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.Writer.Write(b)
}

// Writer pools to reduce per-request allocations. Brotli level 4 keeps
// encode latency near gzip while still out-compressing it on JSON.
var (
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	brotliWriterPool = sync.Pool{
		New: func() interface{} {
			return brotli.NewWriterLevel(io.Discard, 4)
		},
	}
)

// Compression middleware compresses responses according to the
// client's Accept-Encoding, preferring brotli, then gzip. Clients that
// accept neither get the body unchanged.
func Compression(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accept := r.Header.Get("Accept-Encoding")

		switch {
		case acceptsEncoding(accept, "br"):
			bw := brotliWriterPool.Get().(*brotli.Writer)
			defer brotliWriterPool.Put(bw)
			bw.Reset(w)
			defer func() {
				_ = bw.Close() // best-effort flush, response already sent
			}()

			w.Header().Set("Content-Encoding", "br")
			w.Header().Del("Content-Length")
			next(&compressResponseWriter{Writer: bw, ResponseWriter: w}, r)

		case acceptsEncoding(accept, "gzip"):
			gz := gzipWriterPool.Get().(*gzip.Writer)
			defer gzipWriterPool.Put(gz)
			gz.Reset(w)
			defer func() {
				_ = gz.Close()
			}()

			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Del("Content-Length")
			next(&compressResponseWriter{Writer: gz, ResponseWriter: w}, r)

		default:
			next(w, r)
		}
	}
}

// acceptsEncoding reports whether the Accept-Encoding header lists the
// given coding. Matching is by token so "br" does not match inside
// "sbrk" and a quality value of zero opts the coding out.
func acceptsEncoding(header, coding string) bool {
	for _, part := range strings.Split(header, ",") {
		token := part
		if idx := strings.IndexByte(part, ';'); idx >= 0 {
			token = part[:idx]
			if strings.Contains(part[idx:], "q=0") && !strings.Contains(part[idx:], "q=0.") {
				continue
			}
		}
		if strings.TrimSpace(token) == coding {
			return true
		}
	}
	return false
}
