// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package collector

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// FetchKind classifies why a feed fetch failed. The kind drives the
// retry policy (timeouts back off exponentially, the rest retry after
// one second) and shows up in the source's last_error message.
type FetchKind string

const (
	KindTimeout FetchKind = "timeout"
	KindHTTP4xx FetchKind = "http_4xx"

	// KindHTTP5xx covers 5xx statuses and transport faults where the
	// remote end broke the exchange (refused, reset, garbled response).
	KindHTTP5xx FetchKind = "http_5xx"

	KindDNS FetchKind = "dns"
	KindTLS FetchKind = "tls"

	// KindDecode covers body download and decompression failures.
	KindDecode FetchKind = "decode"
)

// FetchError is a failed attempt to download a feed. Status is zero
// for transport-level failures.
type FetchError struct {
	Kind   FetchKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: HTTP %d (%s)", e.URL, e.Status, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Terminal reports whether further attempts within this run are
// pointless. A 403 usually means the publisher blocks this client, a
// 404 that the feed URL has moved; neither heals on retry. The source
// itself stays enabled and is re-attempted next run.
func (e *FetchError) Terminal() bool {
	return e.Status == http.StatusForbidden || e.Status == http.StatusNotFound
}

// ParseError is a feed body the parser could not turn into entries,
// or a feed that parsed but carried none.
type ParseError struct {
	SourceName string
	Reason     string
	Err        error
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("parse feed from %s: %s", e.SourceName, e.Reason)
	}
	return fmt.Sprintf("parse feed from %s: %v", e.SourceName, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// classifyTransport maps a client.Do error onto a fetch kind. DNS and
// certificate problems are worth naming because they point at feed
// configuration rather than publisher load; everything else that is
// not a timeout lands in the upstream-fault bucket.
func classifyTransport(err error) FetchKind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	var certErr *tls.CertificateVerificationError
	var recErr tls.RecordHeaderError
	var hostErr x509.HostnameError
	var authErr x509.UnknownAuthorityError
	var invErr x509.CertificateInvalidError
	if errors.As(err, &certErr) || errors.As(err, &recErr) ||
		errors.As(err, &hostErr) || errors.As(err, &authErr) || errors.As(err, &invErr) {
		return KindTLS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindHTTP5xx
}
