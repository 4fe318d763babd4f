// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package textutil provides the text-processing primitives shared by the
// ingestion pipeline: content fingerprinting, HTML cleaning, summary
// extraction and feed timestamp parsing.
//
// # Fingerprinting
//
// Fingerprint derives a stable deduplication identity from a normalized
// title and a canonicalized URL. Body text is deliberately excluded so the
// identity survives minor edits and republications of the same story.
// SimilarityHash is a short diagnostic hash over the leading body text and
// is never used for equality.
//
// # Cleaning
//
// CleanHTML converts feed markup to readable plain text: unwanted subtrees
// (scripts, styles, forms) are dropped, block tags become separators,
// entities are decoded, unicode is NFKC-normalized and known feed
// boilerplate is stripped.
//
// # Dates
//
// ParseDate accepts the timestamp formats that real feeds emit: RFC 822
// and RFC 1123 variants, ISO 8601, bare dates, and named zones from a
// fixed abbreviation table. Results are always UTC.
//
// All functions are pure and safe for concurrent use.
package textutil
