// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"context"
	"fmt"
	"time"
)

// TopicCount is one row of the per-topic article distribution.
type TopicCount struct {
	Topic string `db:"primary_topic" json:"topic"`
	Count int    `db:"count" json:"count"`
}

// SourceCount is one row of the per-source article distribution.
type SourceCount struct {
	Source string `db:"source_name" json:"source"`
	Count  int    `db:"count" json:"count"`
}

// CountArticles returns the total number of stored articles.
func (s *Store) CountArticles(ctx context.Context) (int, error) {
	start := time.Now()
	var total int
	err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM articles`)
	s.observe("select", "articles", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return total, nil
}

// RecentArticleCount returns how many articles were discovered at or
// after the cutoff.
func (s *Store) RecentArticleCount(ctx context.Context, since time.Time) (int, error) {
	start := time.Now()
	var total int
	err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM articles WHERE discovered_at >= $1`, since)
	s.observe("select", "articles", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent articles: %w", err)
	}
	return total, nil
}

// TopicCounts returns the article distribution per primary topic,
// busiest topic first.
func (s *Store) TopicCounts(ctx context.Context) ([]TopicCount, error) {
	start := time.Now()
	var rows []TopicCount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT primary_topic, COUNT(*) AS count
		FROM articles
		GROUP BY primary_topic
		ORDER BY count DESC`)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to count topics: %w", err)
	}
	return rows, nil
}

// TopSourceCounts returns the busiest sources by collected article
// count.
func (s *Store) TopSourceCounts(ctx context.Context, limit int) ([]SourceCount, error) {
	start := time.Now()
	var rows []SourceCount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT source_name, COUNT(*) AS count
		FROM articles
		GROUP BY source_name
		ORDER BY count DESC
		LIMIT $1`, limit)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to count sources: %w", err)
	}
	return rows, nil
}

// ActiveTopics returns the topics with the most articles discovered
// since the cutoff, busiest first. The cache warmer uses this to pick
// which topic lists deserve a slot.
func (s *Store) ActiveTopics(ctx context.Context, since time.Time, limit int) ([]string, error) {
	start := time.Now()
	var topics []string
	err := s.db.SelectContext(ctx, &topics, `
		SELECT primary_topic
		FROM articles
		WHERE discovered_at >= $1
		GROUP BY primary_topic
		ORDER BY COUNT(*) DESC
		LIMIT $2`, since, limit)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query active topics: %w", err)
	}
	return topics, nil
}

// ArticleIDsByTopic returns IDs of the newest articles with the given
// primary topic. A zero since means no time window, which the cache
// miss path uses; the warmer passes a six hour cutoff.
func (s *Store) ArticleIDsByTopic(ctx context.Context, topic string, since time.Time, limit int) ([]int64, error) {
	query := `
		SELECT id FROM articles
		WHERE primary_topic = $1
		ORDER BY discovered_at DESC
		LIMIT $2`
	args := []interface{}{topic, limit}

	if !since.IsZero() {
		query = `
			SELECT id FROM articles
			WHERE primary_topic = $1 AND discovered_at >= $2
			ORDER BY discovered_at DESC
			LIMIT $3`
		args = []interface{}{topic, since, limit}
	}

	start := time.Now()
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, query, args...)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query topic articles: %w", err)
	}
	return ids, nil
}

// RecentArticleIDs returns IDs of articles discovered at or after the
// cutoff, newest first.
func (s *Store) RecentArticleIDs(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	start := time.Now()
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id FROM articles
		WHERE discovered_at >= $1
		ORDER BY discovered_at DESC
		LIMIT $2`, since, limit)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent articles: %w", err)
	}
	return ids, nil
}
