// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
articles.go - Article Persistence

Insert path: incoming articles are written in transactional batches of
five. A batch that trips any error is rolled back whole and replayed
row by row in autocommit mode, so one duplicate fingerprint costs the
batch its transaction but never its neighbors. Duplicates are outcomes,
not errors.

Read paths serve the processor (unprocessed batches), the HTTP API
(filtered list projections) and the cache warmer (ID hydration).
*/
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/models"
)

// articleBatchSize is how many rows share one insert transaction.
const articleBatchSize = 5

// defaultListLimit applies when a list query arrives without a limit.
const defaultListLimit = 50

const insertArticleQuery = `
	INSERT INTO articles (
		content_fingerprint, similarity_hash, title, url, content,
		source_id, source_name, source_reliability, language,
		published_at, discovered_at, summary, primary_topic,
		secondary_topics, importance_level, primary_region,
		countries_mentioned, word_count, reading_time_minutes,
		quality_score, market_tickers, market_sector,
		content_processed, summary_generated, classified
	) VALUES (
		:content_fingerprint, :similarity_hash, :title, :url, :content,
		:source_id, :source_name, :source_reliability, :language,
		:published_at, :discovered_at, :summary, :primary_topic,
		:secondary_topics, :importance_level, :primary_region,
		:countries_mentioned, :word_count, :reading_time_minutes,
		:quality_score, :market_tickers, :market_sector,
		:content_processed, :summary_generated, :classified
	) RETURNING id`

// ArticleFilter narrows list queries. Zero values mean "no filter";
// Category "all" is equivalent to empty.
type ArticleFilter struct {
	Category string
	Search   string
	Source   string
	Limit    int
	Offset   int
}

// InsertArticleBatch writes articles in batches and reports a per-row
// outcome in input order. Rows whose fingerprint already exists come
// back marked Duplicate. The returned error covers only whole-call
// failures such as context cancellation; row-level failures live in
// the outcomes.
func (s *Store) InsertArticleBatch(ctx context.Context, articles []*models.Article) ([]models.InsertOutcome, error) {
	release, err := s.acquireWrite(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	outcomes := make([]models.InsertOutcome, len(articles))
	for i, a := range articles {
		outcomes[i].Fingerprint = a.Fingerprint
	}

	for start := 0; start < len(articles); start += articleBatchSize {
		end := start + articleBatchSize
		if end > len(articles) {
			end = len(articles)
		}
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		batch := articles[start:end]
		if err := s.insertBatchTx(ctx, batch); err != nil {
			s.insertIndividually(ctx, batch, outcomes[start:end])
			continue
		}
		for i := range batch {
			outcomes[start+i].Inserted = true
		}
	}

	return outcomes, nil
}

// insertBatchTx writes one batch inside a READ COMMITTED transaction.
// Any row error aborts and rolls back the whole batch.
func (s *Store) insertBatchTx(ctx context.Context, batch []*models.Article) error {
	start := time.Now()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		s.observe("insert_batch", "articles", start, err)
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}

	for _, a := range batch {
		if err := insertArticle(ctx, tx, a); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Warn().Err(rbErr).Msg("Failed to roll back article batch")
			}
			s.observe("insert_batch", "articles", start, err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.observe("insert_batch", "articles", start, err)
		return fmt.Errorf("failed to commit article batch: %w", err)
	}
	s.observe("insert_batch", "articles", start, nil)
	return nil
}

// insertIndividually replays a failed batch row by row so that only
// the offending rows are lost. Duplicate fingerprints are recorded as
// duplicates, everything else as per-row errors.
func (s *Store) insertIndividually(ctx context.Context, batch []*models.Article, outcomes []models.InsertOutcome) {
	for i, a := range batch {
		start := time.Now()
		a.ID = 0
		err := insertArticle(ctx, s.db, a)

		switch {
		case err == nil:
			outcomes[i].Inserted = true
		case IsUniqueViolation(err):
			outcomes[i].Duplicate = true
		default:
			outcomes[i].Err = err
			logging.Warn().Err(err).
				Str("fingerprint", a.Fingerprint).
				Str("url", a.URL).
				Msg("Failed to insert article")
		}

		obsErr := err
		if IsUniqueViolation(err) {
			obsErr = nil
		}
		s.observe("insert", "articles", start, obsErr)
	}
}

// insertArticle runs the insert against any executor (pool or open
// transaction) and scans the generated ID back into the article.
func insertArticle(ctx context.Context, ext sqlx.ExtContext, a *models.Article) error {
	rows, err := sqlx.NamedQueryContext(ctx, ext, insertArticleQuery, a)
	if err != nil {
		return err
	}
	defer closeQuietly(rows)

	if rows.Next() {
		if err := rows.Scan(&a.ID); err != nil {
			return fmt.Errorf("failed to scan inserted article id: %w", err)
		}
	}
	return rows.Err()
}

// FingerprintsIn returns which of the given fingerprints already exist.
// The collector calls this before inserting so replayed feed content is
// dropped without burning insert transactions.
func (s *Store) FingerprintsIn(ctx context.Context, fingerprints []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(fingerprints))
	if len(fingerprints) == 0 {
		return existing, nil
	}

	query, args, err := sqlx.In(
		`SELECT content_fingerprint FROM articles WHERE content_fingerprint IN (?)`,
		fingerprints)
	if err != nil {
		return nil, fmt.Errorf("failed to build fingerprint query: %w", err)
	}
	query = s.db.Rebind(query)

	start := time.Now()
	var found []string
	err = s.db.SelectContext(ctx, &found, query, args...)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}

	for _, fp := range found {
		existing[fp] = struct{}{}
	}
	return existing, nil
}

// FetchUnprocessed returns the newest articles still awaiting content
// processing.
func (s *Store) FetchUnprocessed(ctx context.Context, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	start := time.Now()
	var out []models.Article
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM articles
		WHERE NOT content_processed
		ORDER BY discovered_at DESC
		LIMIT $1`, limit)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed articles: %w", err)
	}
	return out, nil
}

// UpdateArticleEnhancements persists everything the processor derived:
// recomputed identity, classification, scoring and summary fields plus
// the processing flags and timestamp.
func (s *Store) UpdateArticleEnhancements(ctx context.Context, a *models.Article) error {
	release, err := s.acquireWrite(ctx)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE articles SET
			content_fingerprint = :content_fingerprint,
			similarity_hash = :similarity_hash,
			summary = :summary,
			primary_topic = :primary_topic,
			secondary_topics = :secondary_topics,
			importance_level = :importance_level,
			primary_region = :primary_region,
			countries_mentioned = :countries_mentioned,
			word_count = :word_count,
			reading_time_minutes = :reading_time_minutes,
			quality_score = :quality_score,
			market_tickers = :market_tickers,
			market_sector = :market_sector,
			content_processed = :content_processed,
			summary_generated = :summary_generated,
			classified = :classified,
			processed_at = :processed_at
		WHERE id = :id`, a)
	s.observe("update", "articles", start, err)
	if err != nil {
		return fmt.Errorf("failed to update article %d: %w", a.ID, err)
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

// GetArticleByFingerprint loads one article by its content fingerprint.
func (s *Store) GetArticleByFingerprint(ctx context.Context, fingerprint string) (*models.Article, error) {
	start := time.Now()
	var a models.Article
	err := s.db.GetContext(ctx, &a,
		`SELECT * FROM articles WHERE content_fingerprint = $1`, fingerprint)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// ListArticles returns list projections matching the filter, newest
// first, along with the total match count before limit and offset.
func (s *Store) ListArticles(ctx context.Context, f ArticleFilter) ([]models.ArticleView, int, error) {
	var (
		conds []string
		args  []interface{}
	)

	if f.Category != "" && f.Category != "all" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("primary_topic = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", n, n))
	}
	if f.Source != "" {
		args = append(args, f.Source)
		conds = append(conds, fmt.Sprintf("source_name = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	start := time.Now()
	var total int
	err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM articles`+where, args...)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT * FROM articles%s
		ORDER BY discovered_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	start = time.Now()
	var rows []models.Article
	err = s.db.SelectContext(ctx, &rows, query, args...)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}

	views := make([]models.ArticleView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].View())
	}
	return views, total, nil
}

// ArticlesByIDs loads list projections for the given IDs, newest
// first. The cache layer stores ID slices and hydrates them here.
func (s *Store) ArticlesByIDs(ctx context.Context, ids []int64) ([]models.ArticleView, error) {
	if len(ids) == 0 {
		return []models.ArticleView{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT * FROM articles
		WHERE id IN (?)
		ORDER BY discovered_at DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build id query: %w", err)
	}
	query = s.db.Rebind(query)

	start := time.Now()
	var rows []models.Article
	err = s.db.SelectContext(ctx, &rows, query, args...)
	s.observe("select", "articles", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load articles by id: %w", err)
	}

	views := make([]models.ArticleView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].View())
	}
	return views, nil
}
