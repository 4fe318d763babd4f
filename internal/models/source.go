// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package models

import (
	"time"

	"github.com/lib/pq"
)

// Reliability score bounds. Success nudges a source toward the cap,
// failures push it toward the floor; the score never leaves this range.
const (
	ReliabilityCap   = 95
	ReliabilityFloor = 20
)

// DisableThreshold is the consecutive-failure count at which a source
// is automatically disabled.
const DisableThreshold = 10

// maxBackoffMinutes caps the failure backoff applied to next_poll_at.
const maxBackoffMinutes = 60

// maxErrorLen caps stored error messages.
const maxErrorLen = 500

// Source is a polled feed endpoint and its accumulated health state.
//
// A source row has a single writer: the collector goroutine currently
// polling it (or the health-check job). All counter mutation goes through
// RecordSuccess and RecordFailure so every caller applies identical
// arithmetic; nothing else touches the counters.
type Source struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// URL is the feed endpoint and the uniqueness key. One publisher may
	// legitimately appear under several URLs (per-section feeds).
	URL string `db:"url" json:"url"`

	SourceType    string         `db:"source_type" json:"source_type"`
	PrimaryRegion string         `db:"primary_region" json:"primary_region,omitempty"`
	CountryCode   string         `db:"country_code" json:"country_code,omitempty"`
	Language      string         `db:"language" json:"language,omitempty"`
	Topics        pq.StringArray `db:"topics" json:"topics,omitempty"`

	// CustomHeaders are merged over the default request headers when
	// polling this source.
	CustomHeaders Headers `db:"custom_headers" json:"custom_headers,omitempty"`

	Reliability         int  `db:"reliability" json:"reliability"`
	PollIntervalMinutes int  `db:"poll_interval_minutes" json:"poll_interval_minutes"`
	MaxArticlesPerPoll  int  `db:"max_articles_per_poll" json:"max_articles_per_poll"`
	Enabled             bool `db:"enabled" json:"enabled"`

	LastPollAt    *time.Time `db:"last_poll_at" json:"last_poll_at,omitempty"`
	LastSuccessAt *time.Time `db:"last_success_at" json:"last_success_at,omitempty"`
	NextPollAt    *time.Time `db:"next_poll_at" json:"next_poll_at,omitempty"`

	// Conditional request validators captured from the last 200 response.
	ETag         string `db:"etag" json:"etag,omitempty"`
	LastModified string `db:"last_modified" json:"last_modified,omitempty"`

	TotalPolls      int `db:"total_polls" json:"total_polls"`
	SuccessfulPolls int `db:"successful_polls" json:"successful_polls"`
	FailedPolls     int `db:"failed_polls" json:"failed_polls"`
	TotalArticles   int `db:"total_articles" json:"total_articles"`

	AvgResponseMS  float64 `db:"avg_response_ms" json:"avg_response_ms"`
	LastResponseMS float64 `db:"last_response_ms" json:"last_response_ms"`

	ConsecutiveFailures int        `db:"consecutive_failures" json:"consecutive_failures"`
	LastError           string     `db:"last_error" json:"last_error,omitempty"`
	LastErrorAt         *time.Time `db:"last_error_at" json:"last_error_at,omitempty"`
}

// RecordSuccess applies the counter updates for a successful poll.
//
// Response time folds into an exponential moving average (0.8 old, 0.2
// new). A clean success, meaning the failure streak has just reset,
// raises reliability by one up to the cap.
func (s *Source) RecordSuccess(now time.Time, responseMS float64, articleCount int) {
	now = now.UTC()
	next := now.Add(time.Duration(s.PollIntervalMinutes) * time.Minute)

	s.LastPollAt = &now
	s.LastSuccessAt = &now
	s.NextPollAt = &next

	s.TotalPolls++
	s.SuccessfulPolls++
	s.ConsecutiveFailures = 0
	s.TotalArticles += articleCount

	if s.AvgResponseMS == 0 {
		s.AvgResponseMS = responseMS
	} else {
		s.AvgResponseMS = s.AvgResponseMS*0.8 + responseMS*0.2
	}
	s.LastResponseMS = responseMS

	if s.Reliability < ReliabilityCap {
		s.Reliability++
	}
}

// RecordFailure applies the counter updates for a failed poll.
//
// Reliability drops by two down to the floor, and the next poll is
// pushed out by min(60, interval + 5*streak) minutes so a broken feed
// is retried less and less often. Ten consecutive failures disable the
// source entirely.
func (s *Source) RecordFailure(now time.Time, errMsg string) {
	now = now.UTC()

	s.LastPollAt = &now
	s.LastErrorAt = &now
	if len(errMsg) > maxErrorLen {
		errMsg = errMsg[:maxErrorLen]
	}
	s.LastError = errMsg

	s.TotalPolls++
	s.FailedPolls++
	s.ConsecutiveFailures++

	if s.Reliability > ReliabilityFloor {
		s.Reliability = s.Reliability - 2
		if s.Reliability < ReliabilityFloor {
			s.Reliability = ReliabilityFloor
		}
	}

	backoff := s.PollIntervalMinutes + s.ConsecutiveFailures*5
	if backoff > maxBackoffMinutes {
		backoff = maxBackoffMinutes
	}
	next := now.Add(time.Duration(backoff) * time.Minute)
	s.NextPollAt = &next

	if s.ConsecutiveFailures >= DisableThreshold {
		s.Enabled = false
	}
}

// UpdateValidators stores fresh conditional request validators. Empty
// values leave the stored ones untouched so a 304 (which carries no
// headers worth keeping) does not clobber them.
func (s *Source) UpdateValidators(etag, lastModified string) {
	if etag != "" {
		s.ETag = etag
	}
	if lastModified != "" {
		s.LastModified = lastModified
	}
}

// SuccessRate returns the lifetime success percentage, 0 if never polled.
func (s *Source) SuccessRate() float64 {
	if s.TotalPolls == 0 {
		return 0
	}
	return float64(s.SuccessfulPolls) / float64(s.TotalPolls) * 100
}

// FailureRate returns the lifetime failure fraction in [0,1].
func (s *Source) FailureRate() float64 {
	if s.TotalPolls == 0 {
		return 0
	}
	return float64(s.FailedPolls) / float64(s.TotalPolls)
}

// IsHealthy reports whether the source is enabled, below the breaker
// escalation streak, and succeeding more than 70% of the time.
func (s *Source) IsHealthy() bool {
	return s.Enabled && s.ConsecutiveFailures < 5 && s.SuccessRate() > 70
}

// IsDue reports whether the source should be polled at the given instant.
func (s *Source) IsDue(now time.Time) bool {
	if !s.Enabled || s.NextPollAt == nil {
		return false
	}
	return !now.UTC().Before(*s.NextPollAt)
}

// PerformanceSnapshot is the JSON payload written to the source
// performance cache layer.
type PerformanceSnapshot struct {
	SourceID            int64      `json:"source_id"`
	Name                string     `json:"name"`
	Reliability         int        `json:"reliability"`
	SuccessRate         float64    `json:"success_rate"`
	AvgResponseMS       float64    `json:"avg_response_ms"`
	TotalArticles       int        `json:"total_articles"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	IsHealthy           bool       `json:"is_healthy"`
	CachedAt            time.Time  `json:"cached_at"`
}

// Performance builds the cacheable metrics snapshot for this source.
func (s *Source) Performance(now time.Time) PerformanceSnapshot {
	return PerformanceSnapshot{
		SourceID:            s.ID,
		Name:                s.Name,
		Reliability:         s.Reliability,
		SuccessRate:         s.SuccessRate(),
		AvgResponseMS:       s.AvgResponseMS,
		TotalArticles:       s.TotalArticles,
		ConsecutiveFailures: s.ConsecutiveFailures,
		LastSuccessAt:       s.LastSuccessAt,
		IsHealthy:           s.IsHealthy(),
		CachedAt:            now.UTC(),
	}
}
