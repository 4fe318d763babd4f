// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/herald/internal/models"
)

// SourcesDue returns enabled sources whose next poll time has arrived,
// most reliable first so trustworthy feeds get worker slots before
// flaky ones. Sources with no scheduled poll are never due.
func (s *Store) SourcesDue(ctx context.Context, now time.Time) ([]models.Source, error) {
	start := time.Now()
	var sources []models.Source
	err := s.db.SelectContext(ctx, &sources, `
		SELECT * FROM sources
		WHERE enabled = TRUE AND next_poll_at <= $1
		ORDER BY reliability DESC`, now.UTC())
	s.observe("select", "sources", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query due sources: %w", err)
	}
	return sources, nil
}

// GetSourceByID loads one source.
func (s *Store) GetSourceByID(ctx context.Context, id int64) (*models.Source, error) {
	start := time.Now()
	var src models.Source
	err := s.db.GetContext(ctx, &src, `SELECT * FROM sources WHERE id = $1`, id)
	s.observe("select", "sources", start, err)
	if err != nil {
		return nil, notFound(err)
	}
	return &src, nil
}

// ListSources returns every source, most reliable first.
func (s *Store) ListSources(ctx context.Context) ([]models.Source, error) {
	start := time.Now()
	var sources []models.Source
	err := s.db.SelectContext(ctx, &sources,
		`SELECT * FROM sources ORDER BY reliability DESC`)
	s.observe("select", "sources", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// EnabledSources returns all enabled sources. The performance cache
// warms a metrics snapshot for each of these.
func (s *Store) EnabledSources(ctx context.Context) ([]models.Source, error) {
	start := time.Now()
	var sources []models.Source
	err := s.db.SelectContext(ctx, &sources,
		`SELECT * FROM sources WHERE enabled = TRUE`)
	s.observe("select", "sources", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled sources: %w", err)
	}
	return sources, nil
}

// TopSourceIDs returns the IDs of the most reliable enabled sources.
func (s *Store) TopSourceIDs(ctx context.Context, limit int) ([]int64, error) {
	start := time.Now()
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id FROM sources
		WHERE enabled = TRUE
		ORDER BY reliability DESC
		LIMIT $1`, limit)
	s.observe("select", "sources", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query top sources: %w", err)
	}
	return ids, nil
}

// UpdateSource persists the full mutable state of a source row. The
// collector calls this once per poll with the health counters already
// advanced in memory.
func (s *Store) UpdateSource(ctx context.Context, src *models.Source) error {
	release, err := s.acquireWrite(ctx)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE sources SET
			name = :name,
			url = :url,
			source_type = :source_type,
			primary_region = :primary_region,
			country_code = :country_code,
			language = :language,
			topics = :topics,
			custom_headers = :custom_headers,
			reliability = :reliability,
			poll_interval_minutes = :poll_interval_minutes,
			max_articles_per_poll = :max_articles_per_poll,
			enabled = :enabled,
			last_poll_at = :last_poll_at,
			last_success_at = :last_success_at,
			next_poll_at = :next_poll_at,
			etag = :etag,
			last_modified = :last_modified,
			total_polls = :total_polls,
			successful_polls = :successful_polls,
			failed_polls = :failed_polls,
			total_articles = :total_articles,
			avg_response_ms = :avg_response_ms,
			last_response_ms = :last_response_ms,
			consecutive_failures = :consecutive_failures,
			last_error = :last_error,
			last_error_at = :last_error_at
		WHERE id = :id`, src)
	s.observe("update", "sources", start, err)
	if err != nil {
		return fmt.Errorf("failed to update source %d: %w", src.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DisableSource turns a source off and records why. The health sweep
// uses this for feeds that have crossed the failure thresholds; the
// poll scheduler skips disabled rows until an operator re-enables them.
func (s *Store) DisableSource(ctx context.Context, id int64, reason string) error {
	release, err := s.acquireWrite(ctx)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE sources SET
			enabled = FALSE,
			last_error = $2,
			last_error_at = $3
		WHERE id = $1`, id, reason, time.Now().UTC())
	s.observe("update", "sources", start, err)
	if err != nil {
		return fmt.Errorf("failed to disable source %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertSource adds a source, keyed by feed URL. Returns false without
// error when the URL is already registered, so catalog seeding can run
// on every boot.
func (s *Store) InsertSource(ctx context.Context, src *models.Source) (bool, error) {
	release, err := s.acquireWrite(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	start := time.Now()
	rows, err := sqlx.NamedQueryContext(ctx, s.db, `
		INSERT INTO sources (
			name, url, source_type, primary_region, country_code,
			language, topics, custom_headers, reliability,
			poll_interval_minutes, max_articles_per_poll, enabled,
			next_poll_at
		) VALUES (
			:name, :url, :source_type, :primary_region, :country_code,
			:language, :topics, :custom_headers, :reliability,
			:poll_interval_minutes, :max_articles_per_poll, :enabled,
			:next_poll_at
		)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`, src)
	s.observe("insert", "sources", start, err)
	if err != nil {
		return false, fmt.Errorf("failed to insert source %q: %w", src.Name, err)
	}
	defer closeQuietly(rows)

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(&src.ID); err != nil {
		return false, fmt.Errorf("failed to scan inserted source id: %w", err)
	}
	return true, rows.Err()
}
