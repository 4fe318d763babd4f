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

// FingerprintCandidate is the minimal article projection needed to
// recompute a missing content fingerprint.
type FingerprintCandidate struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
	URL   string `db:"url"`
}

// DuplicateFingerprints returns fingerprints shared by more than one
// article discovered since the cutoff. Rows without a fingerprint are
// excluded; absence of identity is not identity.
func (s *Store) DuplicateFingerprints(ctx context.Context, since time.Time) ([]string, error) {
	start := time.Now()
	var fingerprints []string
	err := s.db.SelectContext(ctx, &fingerprints, `
		SELECT content_fingerprint
		FROM articles
		WHERE discovered_at >= $1
		  AND content_fingerprint IS NOT NULL
		  AND content_fingerprint <> ''
		GROUP BY content_fingerprint
		HAVING COUNT(*) > 1`, since)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate fingerprints: %w", err)
	}
	return fingerprints, nil
}

// ArticlesWithFingerprint loads every article carrying the given
// fingerprint for best-copy scoring.
func (s *Store) ArticlesWithFingerprint(ctx context.Context, fingerprint string) ([]models.Article, error) {
	start := time.Now()
	var out []models.Article
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM articles WHERE content_fingerprint = $1`, fingerprint)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load fingerprint group: %w", err)
	}
	return out, nil
}

// ArticlesInWindow loads all articles discovered since the cutoff,
// newest first. The title and domain dedupe strategies group these in
// memory.
func (s *Store) ArticlesInWindow(ctx context.Context, since time.Time) ([]models.Article, error) {
	start := time.Now()
	var out []models.Article
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM articles
		WHERE discovered_at >= $1
		ORDER BY discovered_at DESC`, since)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load dedupe window: %w", err)
	}
	return out, nil
}

// ArticlesMissingFingerprint returns articles whose fingerprint was
// never written or was wiped, newest first, capped so one maintenance
// run stays bounded.
func (s *Store) ArticlesMissingFingerprint(ctx context.Context, limit int) ([]FingerprintCandidate, error) {
	start := time.Now()
	var out []FingerprintCandidate
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, title, url
		FROM articles
		WHERE content_fingerprint IS NULL OR content_fingerprint = ''
		ORDER BY discovered_at DESC
		LIMIT $1`, limit)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles missing fingerprints: %w", err)
	}
	return out, nil
}

// SetFingerprint writes a recomputed fingerprint onto one article. A
// unique violation means another row already owns that identity; the
// caller decides whether to delete this one, so the driver error is
// returned unwrapped for IsUniqueViolation.
func (s *Store) SetFingerprint(ctx context.Context, id int64, fingerprint string) error {
	release, err := s.acquireWrite(ctx)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	_, err = s.db.ExecContext(ctx,
		`UPDATE articles SET content_fingerprint = $1 WHERE id = $2`,
		fingerprint, id)

	obsErr := err
	if IsUniqueViolation(err) {
		obsErr = nil
	}
	s.observe("update", "articles", start, obsErr)
	return err
}

// DeleteArticles removes the given rows and reports how many actually
// went away.
func (s *Store) DeleteArticles(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	release, err := s.acquireWrite(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	query, args, err := sqlx.In(`DELETE FROM articles WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}
	query = s.db.Rebind(query)

	start := time.Now()
	res, err := s.db.ExecContext(ctx, query, args...)
	s.observe("delete", "articles", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete articles: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected, nil
}
