// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package database provides the PostgreSQL persistence layer for articles
// and feed sources.
//
// # Overview
//
// Store wraps an sqlx connection pool and exposes typed data access
// methods. A weighted semaphore bounds how many write operations may hit
// the database simultaneously during a collection fan-out, so a burst of
// productive feeds cannot exhaust the pool.
//
// The package provides:
//   - Schema bootstrap (articles and sources tables with indexes)
//   - Batch article insertion with per-row duplicate recovery
//   - Source scheduling queries (due sources by reliability)
//   - Dashboard and cache-warming aggregate queries
//   - Deduplication support queries (duplicate groups, window scans)
//   - Seed catalog insertion for first boot
//
// # Insert Policy
//
// Article batches are written five rows at a time inside READ COMMITTED
// transactions. When a batch trips a unique violation on the content
// fingerprint, the whole batch rolls back and each row is retried
// individually; violating rows are reported as duplicates, not errors.
// This two-phase policy keeps the common case fast while making replayed
// feed content a no-op.
//
// # Error Handling
//
// Row-absence is reported as ErrNotFound. Unique-constraint violations
// can be identified with IsUniqueViolation. All other errors are wrapped
// with operation context and propagate unchanged.
package database
