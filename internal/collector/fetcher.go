// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package collector

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/models"
)

// fetchAttempts bounds retries within one poll.
const fetchAttempts = 3

// maxFeedBody caps both the compressed download and the decompressed
// result. Feeds beyond this are truncated rather than refused; the
// parser deals with whatever arrives.
const maxFeedBody = 10 << 20 // 10MB

// feedAccept matches what feed endpoints actually serve, including the
// publishers that ship their RSS as text/html.
const feedAccept = "application/rss+xml, application/xml, text/xml, text/html, */*"

// FetchResult is one successful feed download. NotModified means the
// conditional request short-circuited; Body is empty and the stored
// validators remain valid.
type FetchResult struct {
	Body         []byte
	NotModified  bool
	ETag         string
	LastModified string
}

// Fetcher downloads feed documents. It owns the HTTP client, the
// retry policy and the per-host rate limiters; it knows nothing about
// parsing or persistence.
type Fetcher struct {
	client *http.Client
	cfg    config.CollectorConfig
	log    zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher builds a fetcher around a client with an explicit connect
// budget. The overall per-attempt budget is applied per request via
// context, not on the client, so a stalled body read cannot outlive it.
func NewFetcher(cfg config.CollectorConfig) *Fetcher {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 20 * time.Second
	}
	dialer := &net.Dialer{Timeout: connectTimeout}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		// Accept-Encoding is set explicitly on each request;
		// transparent gzip would strip the Content-Encoding header
		// decodeBody keys on.
		DisableCompression: true,
	}

	return &Fetcher{
		client:   &http.Client{Transport: transport},
		cfg:      cfg,
		log:      logging.WithComponent("fetcher"),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch downloads one source's feed, retrying transient failures.
// Timeouts back off exponentially (1s, 2s), other failures wait one
// second; a 403 or 404 aborts immediately because retrying those
// within the same run never helps.
func (f *Fetcher) Fetch(ctx context.Context, src *models.Source) (*FetchResult, error) {
	var lastErr error

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if err := f.waitHost(ctx, src.URL); err != nil {
			return nil, err
		}

		result, err := f.attempt(ctx, src)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var fe *FetchError
		if errors.As(err, &fe) && fe.Terminal() {
			f.log.Warn().
				Str("source", src.Name).
				Int("status", fe.Status).
				Msg("Feed refused, not retrying this run")
			return nil, err
		}
		if attempt == fetchAttempts-1 {
			break
		}

		delay := retryDelay(err, attempt)
		f.log.Debug().
			Err(err).
			Str("source", src.Name).
			Dur("retry_in", delay).
			Int("attempt", attempt+1).
			Msg("Feed fetch failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// attempt performs a single conditional GET within the request budget.
func (f *Fetcher) attempt(ctx context.Context, src *models.Source) (*FetchResult, error) {
	actx, cancel := context.WithTimeout(ctx, f.requestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, src.URL, http.NoBody)
	if err != nil {
		return nil, &FetchError{Kind: KindHTTP4xx, URL: src.URL, Err: err}
	}
	f.applyHeaders(req, src)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransport(err), URL: src.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return &FetchResult{NotModified: true}, nil
	case resp.StatusCode == http.StatusOK:
		// Body handling below.
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &FetchError{Kind: KindHTTP4xx, URL: src.URL, Status: resp.StatusCode}
	default:
		return nil, &FetchError{Kind: KindHTTP5xx, URL: src.URL, Status: resp.StatusCode}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, &FetchError{Kind: KindDecode, URL: src.URL, Err: err}
	}

	return &FetchResult{
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

// applyHeaders sends the browser identity, the conditional validators
// when the source has them, and finally the source's own overrides.
func (f *Fetcher) applyHeaders(req *http.Request, src *models.Source) {
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", feedAccept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	if src.ETag != "" {
		req.Header.Set("If-None-Match", src.ETag)
	}
	if src.LastModified != "" {
		req.Header.Set("If-Modified-Since", src.LastModified)
	}

	for k, v := range src.CustomHeaders {
		req.Header.Set(k, v)
	}
}

// retryDelay picks the wait before the next attempt: 2^attempt seconds
// after a timeout, a flat second for everything else.
func retryDelay(err error, attempt int) time.Duration {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == KindTimeout {
		return time.Duration(1<<uint(attempt)) * time.Second
	}
	return time.Second
}

func (f *Fetcher) requestTimeout() time.Duration {
	if f.cfg.RequestTimeout > 0 {
		return f.cfg.RequestTimeout
	}
	return 60 * time.Second
}

// waitHost blocks until the publisher host's rate limiter admits one
// more request. Unparsable URLs pass through; the HTTP client will
// produce the real error.
func (f *Fetcher) waitHost(ctx context.Context, feedURL string) error {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return f.limiter(u.Host).Wait(ctx)
}

// limiter returns the token bucket for one host, creating it on first
// contact. All feeds under the same host share a bucket.
func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	lim, ok := f.limiters[host]
	if !ok {
		rps := f.cfg.PerHostRPS
		if rps <= 0 {
			rps = 1
		}
		burst := f.cfg.PerHostBurst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(rps), burst)
		f.limiters[host] = lim
	}
	return lim
}

// decodeBody downloads and decompresses the response body according
// to its Content-Encoding. The compressed download and the inflated
// result are both capped at maxFeedBody.
func decodeBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	var reader io.Reader
	switch encoding {
	case "", "identity":
		return raw, nil
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case "deflate":
		reader = deflateReader(raw)
	case "br":
		reader = brotli.NewReader(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s body: %w", encoding, err)
	}
	return body, nil
}

// deflateReader handles both RFC 1950 zlib-wrapped streams and the
// raw RFC 1951 streams some servers send under the same label.
func deflateReader(raw []byte) io.Reader {
	if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
		return zr
	}
	return flate.NewReader(bytes.NewReader(raw))
}
