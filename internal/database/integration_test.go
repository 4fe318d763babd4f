// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/models"
)

// newLiveStore connects to the database named by TEST_DATABASE_URL,
// running the real schema bootstrap. Tests calling it are skipped when
// the variable is unset so the suite passes without a live Postgres.
func newLiveStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping live database test")
	}

	store, err := New(&config.DatabaseConfig{
		URL:          url,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Fatalf("Failed to open live store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLiveStore_SourceAndArticleRoundTrip(t *testing.T) {
	store := newLiveStore(t)
	ctx := context.Background()

	// Unique names per run so reruns against the same scratch database
	// never collide on the URL and fingerprint unique indexes.
	nonce := fmt.Sprintf("%d", time.Now().UnixNano())
	due := time.Now().UTC().Add(-time.Minute)

	src := &models.Source{
		Name:                "Integration Feed " + nonce,
		URL:                 "https://integration.example.com/feed-" + nonce,
		SourceType:          "rss",
		Reliability:         80,
		PollIntervalMinutes: 15,
		MaxArticlesPerPoll:  20,
		Enabled:             true,
		NextPollAt:          &due,
	}
	inserted, err := store.InsertSource(ctx, src)
	if err != nil {
		t.Fatalf("InsertSource failed: %v", err)
	}
	if !inserted || src.ID == 0 {
		t.Fatalf("Expected fresh insert with id, got inserted=%v id=%d", inserted, src.ID)
	}
	t.Cleanup(func() {
		_ = store.DisableSource(context.Background(), src.ID, "integration test cleanup")
	})

	// Re-inserting the same URL reports existing without error.
	again, err := store.InsertSource(ctx, &models.Source{
		Name: src.Name, URL: src.URL, SourceType: "rss",
		Reliability: 80, PollIntervalMinutes: 15, MaxArticlesPerPoll: 20, Enabled: true,
	})
	if err != nil {
		t.Fatalf("Duplicate InsertSource errored: %v", err)
	}
	if again {
		t.Error("Expected duplicate URL to report existing")
	}

	duesSeen := false
	dues, err := store.SourcesDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("SourcesDue failed: %v", err)
	}
	for _, d := range dues {
		if d.ID == src.ID {
			duesSeen = true
		}
	}
	if !duesSeen {
		t.Error("Inserted source with past next_poll_at not reported due")
	}

	// Distinct discovery times keep the newest-first assertions
	// deterministic.
	now := time.Now().UTC()
	articles := []*models.Article{
		{
			Fingerprint:       "itest" + nonce + "a1",
			Title:             "Integration article one",
			URL:               "https://integration.example.com/a1-" + nonce,
			Content:           "Body one for the round trip.",
			SourceID:          src.ID,
			SourceName:        src.Name,
			SourceReliability: src.Reliability,
			PrimaryTopic:      "technology",
			ImportanceLevel:   models.ImportanceRegular,
			DiscoveredAt:      now.Add(-time.Minute),
		},
		{
			Fingerprint:       "itest" + nonce + "a2",
			Title:             "Integration article two",
			URL:               "https://integration.example.com/a2-" + nonce,
			Content:           "Body two for the round trip.",
			SourceID:          src.ID,
			SourceName:        src.Name,
			SourceReliability: src.Reliability,
			PrimaryTopic:      "technology",
			ImportanceLevel:   models.ImportanceRegular,
			DiscoveredAt:      now,
		},
	}
	outcomes, err := store.InsertArticleBatch(ctx, articles)
	if err != nil {
		t.Fatalf("InsertArticleBatch failed: %v", err)
	}
	var ids []int64
	for i, o := range outcomes {
		if !o.Inserted || o.Duplicate {
			t.Fatalf("Row %d not inserted cleanly: %+v", i, o)
		}
		ids = append(ids, articles[i].ID)
	}
	t.Cleanup(func() {
		_, _ = store.DeleteArticles(context.Background(), ids)
	})

	// The same fingerprints come back as duplicates, not errors.
	dupOutcomes, err := store.InsertArticleBatch(ctx, articles[:1])
	if err != nil {
		t.Fatalf("Duplicate batch failed: %v", err)
	}
	if !dupOutcomes[0].Duplicate {
		t.Errorf("Expected duplicate outcome, got %+v", dupOutcomes[0])
	}

	known, err := store.FingerprintsIn(ctx, []string{
		articles[0].Fingerprint, articles[1].Fingerprint, "itest" + nonce + "missing",
	})
	if err != nil {
		t.Fatalf("FingerprintsIn failed: %v", err)
	}
	if len(known) != 2 {
		t.Errorf("Expected 2 known fingerprints, got %d", len(known))
	}

	views, _, err := store.ListArticles(ctx, ArticleFilter{Source: src.Name, Limit: 10})
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("Expected 2 listed articles, got %d", len(views))
	}
	if views[0].DiscoveredAt.Before(views[1].DiscoveredAt) {
		t.Error("Expected newest-first ordering")
	}

	byIDs, err := store.ArticlesByIDs(ctx, []int64{ids[0], ids[1]})
	if err != nil {
		t.Fatalf("ArticlesByIDs failed: %v", err)
	}
	if len(byIDs) != 2 || byIDs[0].ID != ids[1] || byIDs[1].ID != ids[0] {
		t.Errorf("ArticlesByIDs not newest first: %+v", byIDs)
	}

	deleted, err := store.DeleteArticles(ctx, ids)
	if err != nil {
		t.Fatalf("DeleteArticles failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deletions, got %d", deleted)
	}
}

func TestLiveStore_UnprocessedLifecycle(t *testing.T) {
	store := newLiveStore(t)
	ctx := context.Background()

	nonce := fmt.Sprintf("%d", time.Now().UnixNano())
	due := time.Now().UTC().Add(-time.Minute)

	src := &models.Source{
		Name:                "Lifecycle Feed " + nonce,
		URL:                 "https://integration.example.com/lifecycle-" + nonce,
		SourceType:          "rss",
		Reliability:         90,
		PollIntervalMinutes: 15,
		MaxArticlesPerPoll:  20,
		Enabled:             true,
		NextPollAt:          &due,
	}
	if _, err := store.InsertSource(ctx, src); err != nil {
		t.Fatalf("InsertSource failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.DisableSource(context.Background(), src.ID, "integration test cleanup")
	})

	article := &models.Article{
		Fingerprint:       "itest" + nonce + "up",
		Title:             "Unprocessed lifecycle article",
		URL:               "https://integration.example.com/up-" + nonce,
		Content:           "A body long enough to carry derived fields through the round trip.",
		SourceID:          src.ID,
		SourceName:        src.Name,
		SourceReliability: src.Reliability,
		ImportanceLevel:   models.ImportanceRegular,
		DiscoveredAt:      time.Now().UTC(),
	}
	outcomes, err := store.InsertArticleBatch(ctx, []*models.Article{article})
	if err != nil || !outcomes[0].Inserted {
		t.Fatalf("Insert failed: err=%v outcome=%+v", err, outcomes[0])
	}
	id := article.ID
	t.Cleanup(func() {
		_, _ = store.DeleteArticles(context.Background(), []int64{id})
	})

	unprocessed, err := store.FetchUnprocessed(ctx, 500)
	if err != nil {
		t.Fatalf("FetchUnprocessed failed: %v", err)
	}
	var row *models.Article
	for i := range unprocessed {
		if unprocessed[i].ID == id {
			row = &unprocessed[i]
		}
	}
	if row == nil {
		t.Fatal("Freshly inserted article missing from unprocessed backlog")
	}

	now := time.Now().UTC()
	row.PrimaryTopic = "technology"
	row.ImportanceLevel = models.ImportanceRegular
	row.QualityScore = 61.5
	row.WordCount = 12
	row.ReadingTimeMinutes = 1
	row.Summary = "A body long enough to carry derived fields through the round trip."
	row.ContentProcessed = true
	row.SummaryGenerated = true
	row.Classified = true
	row.ProcessedAt = &now
	if err := store.UpdateArticleEnhancements(ctx, row); err != nil {
		t.Fatalf("UpdateArticleEnhancements failed: %v", err)
	}

	after, err := store.FetchUnprocessed(ctx, 500)
	if err != nil {
		t.Fatalf("FetchUnprocessed after update failed: %v", err)
	}
	for _, a := range after {
		if a.ID == id {
			t.Error("Processed article still reported unprocessed")
		}
	}
}
