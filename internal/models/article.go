// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package models

import (
	"time"

	"github.com/lib/pq"
)

// Importance levels assigned during content processing.
const (
	ImportanceBreaking  = "breaking"
	ImportanceImportant = "important"
	ImportanceRegular   = "regular"
)

// Article represents a single collected news item.
//
// Identity is the 32-hex content fingerprint derived from the normalized
// title and canonical URL; the numeric ID exists for row addressing and
// cache key lists. The Collector writes the raw fields at ingest, the
// Processor fills in the derived ones, and nothing mutates Fingerprint,
// SimilarityHash, or ReadingTimeMinutes once ContentProcessed is set.
//
// Time fields are stored in UTC and satisfy
// PublishedAt <= DiscoveredAt <= ProcessedAt when all are present.
type Article struct {
	ID int64 `db:"id" json:"id"`

	// Identity
	Fingerprint    string `db:"content_fingerprint" json:"content_fingerprint"`
	SimilarityHash string `db:"similarity_hash" json:"similarity_hash,omitempty"`

	// Raw fields written at ingest. SourceReliability is the owning
	// source's score captured at collection time, not a live join;
	// importance and quality scoring read the value the article was
	// judged against.
	Title             string `db:"title" json:"title"`
	URL               string `db:"url" json:"url"`
	Content           string `db:"content" json:"content,omitempty"`
	SourceID          int64  `db:"source_id" json:"source_id"`
	SourceName        string `db:"source_name" json:"source_name"`
	SourceReliability int    `db:"source_reliability" json:"source_reliability"`
	Language          string `db:"language" json:"language,omitempty"`

	PublishedAt  *time.Time `db:"published_at" json:"published_at,omitempty"`
	DiscoveredAt time.Time  `db:"discovered_at" json:"discovered_at"`
	ProcessedAt  *time.Time `db:"processed_at" json:"processed_at,omitempty"`

	// Derived fields written by the Processor
	Summary            string         `db:"summary" json:"summary,omitempty"`
	PrimaryTopic       string         `db:"primary_topic" json:"primary_topic,omitempty"`
	SecondaryTopics    pq.StringArray `db:"secondary_topics" json:"secondary_topics,omitempty"`
	ImportanceLevel    string         `db:"importance_level" json:"importance_level"`
	PrimaryRegion      string         `db:"primary_region" json:"primary_region,omitempty"`
	CountriesMentioned pq.StringArray `db:"countries_mentioned" json:"countries_mentioned,omitempty"`
	WordCount          int            `db:"word_count" json:"word_count"`
	ReadingTimeMinutes int            `db:"reading_time_minutes" json:"reading_time_minutes"`
	QualityScore       float64        `db:"quality_score" json:"quality_score"`
	MarketTickers      pq.StringArray `db:"market_tickers" json:"market_tickers,omitempty"`
	MarketSector       string         `db:"market_sector" json:"market_sector,omitempty"`

	// Processing flags
	ContentProcessed bool `db:"content_processed" json:"content_processed"`
	SummaryGenerated bool `db:"summary_generated" json:"summary_generated"`
	Classified       bool `db:"classified" json:"classified"`
}

// contentPreviewLen caps article body text in list projections.
const contentPreviewLen = 500

// ArticleView is the list projection returned by /articles endpoints.
// Content is truncated to the preview length.
type ArticleView struct {
	ID                 int64          `db:"id" json:"id"`
	Title              string         `db:"title" json:"title"`
	Content            string         `db:"content" json:"content,omitempty"`
	Summary            string         `db:"summary" json:"summary,omitempty"`
	URL                string         `db:"url" json:"url"`
	SourceName         string         `db:"source_name" json:"source_name"`
	SourceReliability  int            `db:"source_reliability" json:"source_reliability"`
	PrimaryTopic       string         `db:"primary_topic" json:"primary_topic,omitempty"`
	SecondaryTopics    pq.StringArray `db:"secondary_topics" json:"secondary_topics,omitempty"`
	ImportanceLevel    string         `db:"importance_level" json:"importance_level"`
	PrimaryRegion      string         `db:"primary_region" json:"primary_region,omitempty"`
	CountriesMentioned pq.StringArray `db:"countries_mentioned" json:"countries_mentioned,omitempty"`
	QualityScore       float64        `db:"quality_score" json:"quality_score"`
	WordCount          int            `db:"word_count" json:"word_count"`
	ReadingTimeMinutes int            `db:"reading_time_minutes" json:"reading_time_minutes"`
	PublishedAt        *time.Time     `db:"published_at" json:"published_at,omitempty"`
	DiscoveredAt       time.Time      `db:"discovered_at" json:"discovered_at"`
}

// View converts an Article into its list projection. Long bodies are
// cut at the preview length with a trailing ellipsis.
func (a *Article) View() ArticleView {
	content := a.Content
	if runes := []rune(content); len(runes) > contentPreviewLen {
		content = string(runes[:contentPreviewLen]) + "..."
	}

	return ArticleView{
		ID:                 a.ID,
		Title:              a.Title,
		Content:            content,
		Summary:            a.Summary,
		URL:                a.URL,
		SourceName:         a.SourceName,
		SourceReliability:  a.SourceReliability,
		PrimaryTopic:       a.PrimaryTopic,
		SecondaryTopics:    a.SecondaryTopics,
		ImportanceLevel:    a.ImportanceLevel,
		PrimaryRegion:      a.PrimaryRegion,
		CountriesMentioned: a.CountriesMentioned,
		QualityScore:       a.QualityScore,
		WordCount:          a.WordCount,
		ReadingTimeMinutes: a.ReadingTimeMinutes,
		PublishedAt:        a.PublishedAt,
		DiscoveredAt:       a.DiscoveredAt,
	}
}

// InsertOutcome reports the fate of one row in a batch insert.
type InsertOutcome struct {
	Fingerprint string
	Inserted    bool
	Duplicate   bool
	Err         error
}
