// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
schema.go - Database Schema Management

All columns are defined in the initial CREATE TABLE statements so the
complete schema has a single source of truth and a fresh boot needs no
migration machinery. Statements are idempotent; running them against an
existing database is a no-op.

Tables:
  - sources: polled feed endpoints with reliability and health counters
  - articles: collected items with ingest fields and processor-derived
    enrichment columns

Index Strategy:
  - content_fingerprint uniqueness backs cross-run deduplication
  - (enabled, next_poll_at) serves the due-source scheduling query
  - discovered_at ordering serves list endpoints and recency warming
  - a partial index on unprocessed rows keeps the processor's batch
    query cheap as the table grows
*/
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core tables.
func (s *Store) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			source_type TEXT NOT NULL DEFAULT 'rss',
			primary_region TEXT NOT NULL DEFAULT '',
			country_code TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT 'en',
			topics TEXT[] NOT NULL DEFAULT '{}',
			custom_headers JSONB NOT NULL DEFAULT '{}',
			reliability INTEGER NOT NULL DEFAULT 80,
			poll_interval_minutes INTEGER NOT NULL DEFAULT 15,
			max_articles_per_poll INTEGER NOT NULL DEFAULT 20,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			last_poll_at TIMESTAMPTZ,
			last_success_at TIMESTAMPTZ,
			next_poll_at TIMESTAMPTZ,
			etag TEXT NOT NULL DEFAULT '',
			last_modified TEXT NOT NULL DEFAULT '',
			total_polls INTEGER NOT NULL DEFAULT 0,
			successful_polls INTEGER NOT NULL DEFAULT 0,
			failed_polls INTEGER NOT NULL DEFAULT 0,
			total_articles INTEGER NOT NULL DEFAULT 0,
			avg_response_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_response_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
			consecutive_failures INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			last_error_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS articles (
			id BIGSERIAL PRIMARY KEY,
			content_fingerprint TEXT,
			similarity_hash TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			source_id BIGINT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
			source_name TEXT NOT NULL DEFAULT '',
			source_reliability INTEGER NOT NULL DEFAULT 80,
			language TEXT NOT NULL DEFAULT 'en',
			published_at TIMESTAMPTZ,
			discovered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			processed_at TIMESTAMPTZ,
			summary TEXT NOT NULL DEFAULT '',
			primary_topic TEXT NOT NULL DEFAULT 'general',
			secondary_topics TEXT[] NOT NULL DEFAULT '{}',
			importance_level TEXT NOT NULL DEFAULT 'regular',
			primary_region TEXT NOT NULL DEFAULT '',
			countries_mentioned TEXT[] NOT NULL DEFAULT '{}',
			word_count INTEGER NOT NULL DEFAULT 0,
			reading_time_minutes INTEGER NOT NULL DEFAULT 1,
			quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			market_tickers TEXT[] NOT NULL DEFAULT '{}',
			market_sector TEXT NOT NULL DEFAULT '',
			content_processed BOOLEAN NOT NULL DEFAULT FALSE,
			summary_generated BOOLEAN NOT NULL DEFAULT FALSE,
			classified BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}
}

// createIndexes creates the query-serving indexes.
func (s *Store) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_fingerprint
			ON articles (content_fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_discovered_at
			ON articles (discovered_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_primary_topic
			ON articles (primary_topic)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source_id
			ON articles (source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_unprocessed
			ON articles (discovered_at DESC) WHERE NOT content_processed`,
		`CREATE INDEX IF NOT EXISTS idx_sources_due
			ON sources (enabled, next_poll_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_reliability
			ON sources (reliability DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}
