// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package models

import (
	"time"
)

// SourceResult is the per-source outcome within one collection run.
type SourceResult struct {
	SourceID          int64   `json:"source_id"`
	SourceName        string  `json:"source_name"`
	ArticlesCollected int     `json:"articles_collected"`
	TotalEntries      int     `json:"total_entries"`
	ResponseTimeMS    float64 `json:"response_time_ms"`
	NotModified       bool    `json:"not_modified,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// CollectionStats summarizes one collect_all run. It is ephemeral:
// returned to the caller, logged, and written to the hourly run-summary
// cache key, never persisted to the database.
type CollectionStats struct {
	SourcesProcessed      int            `json:"sources_processed"`
	SourcesFailed         int            `json:"sources_failed"`
	ArticlesCollected     int            `json:"articles_collected"`
	BreakerSkipped        int            `json:"breaker_skipped"`
	ProcessingTimeSeconds float64        `json:"processing_time_seconds"`
	SuccessfulSources     []string       `json:"successful_sources,omitempty"`
	FailedSources         []string       `json:"failed_sources,omitempty"`
	Results               []SourceResult `json:"results,omitempty"`
	Message               string         `json:"message,omitempty"`
	StartedAt             time.Time      `json:"started_at"`
}

// ProcessingStats summarizes one content processing run.
type ProcessingStats struct {
	ArticlesProcessed     int         `json:"articles_processed"`
	ArticlesEnhanced      int         `json:"articles_enhanced"`
	ArticlesSkipped       int         `json:"articles_skipped"`
	ProcessingTimeSeconds float64     `json:"processing_time_seconds"`
	Dedupe                DedupeStats `json:"deduplication_stats"`
}

// DedupeStats summarizes one deduplication pass (a single strategy or a
// combined run).
type DedupeStats struct {
	DuplicatesRemoved     int     `json:"duplicates_removed"`
	ArticlesProcessed     int     `json:"articles_processed"`
	HashRemoved           int     `json:"hash_removed,omitempty"`
	TitleRemoved          int     `json:"title_removed,omitempty"`
	DomainRemoved         int     `json:"domain_removed,omitempty"`
	HashesRegenerated     int     `json:"hashes_regenerated,omitempty"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	Message               string  `json:"message,omitempty"`
}

// HealthReport summarizes one source health-check sweep.
type HealthReport struct {
	TotalSources       int      `json:"total_sources"`
	HealthySources     int      `json:"healthy_sources"`
	ProblematicSources int      `json:"problematic_sources"`
	DisabledSources    int      `json:"disabled_sources"`
	DisabledNames      []string `json:"disabled_names,omitempty"`
}

// DashboardStats is the aggregate payload behind GET /api/v1/stats.
type DashboardStats struct {
	TotalArticles  int64            `json:"total_articles"`
	Topics         map[string]int64 `json:"topics"`
	TopSources     map[string]int64 `json:"top_sources"`
	RecentArticles int64            `json:"recent_articles_24h"`
}
