// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package models defines data structures used throughout Herald.
// These models represent articles, feed sources, collection statistics,
// task envelopes, and API responses.
//
// Article and Source carry both db and json struct tags: the same structs
// are scanned from Postgres via sqlx and serialized to API clients and the
// Redis cache. Mutation rules (reliability math, poll backoff) live as
// methods on Source so every caller applies identical arithmetic.
package models
