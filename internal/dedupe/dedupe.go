// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package dedupe removes duplicate articles that survive ingest-time
// fingerprint checks: copies whose fingerprints converged after
// reprocessing, retitled syndication, and same-domain cross-posts.
//
// Every strategy is idempotent. A scan that removes rows leaves each
// duplicate group with exactly one survivor, so an immediate re-run
// removes nothing. Deletion is hard; there is no tombstone table.
package dedupe

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/database"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/textutil"
)

// Default scan windows, in days. Each strategy watches a different
// duplication pattern with its own decay horizon: exact-identity clusters
// persist for days, retitled syndication surfaces within a week, and
// same-domain cross-posting burns out within a day.
const (
	defaultHashWindowDays   = 3
	defaultTitleWindowDays  = 7
	defaultDomainWindowDays = 1

	// regenerateLimit caps how many missing fingerprints one
	// maintenance pass recomputes.
	regenerateLimit = 1000

	// Titles shorter than minRawTitleLen runes are too generic to group
	// safely; normalized keys shorter than minComparableLen collapse
	// unrelated stories.
	minRawTitleLen   = 15
	minComparableLen = 10
)

var (
	titlePrefixRe  = regexp.MustCompile(`^(breaking|exclusive|update|alert):\s*`)
	sourceSuffixRe = regexp.MustCompile(`\s*-\s*[^-]+$`)
	nonWordRe      = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spaceRunRe     = regexp.MustCompile(`\s+`)
)

// Store is the persistence surface the engine operates on.
type Store interface {
	DuplicateFingerprints(ctx context.Context, since time.Time) ([]string, error)
	ArticlesWithFingerprint(ctx context.Context, fingerprint string) ([]models.Article, error)
	ArticlesInWindow(ctx context.Context, since time.Time) ([]models.Article, error)
	ArticlesMissingFingerprint(ctx context.Context, limit int) ([]database.FingerprintCandidate, error)
	SetFingerprint(ctx context.Context, id int64, fingerprint string) error
	DeleteArticles(ctx context.Context, ids []int64) (int64, error)
}

// Engine runs deduplication strategies against the article table.
type Engine struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// New builds a deduplication engine over the given store.
func New(store Store) *Engine {
	return &Engine{
		store: store,
		log:   logging.WithComponent("dedupe"),
		now:   time.Now,
	}
}

// strategyResult is the raw outcome of one strategy pass.
type strategyResult struct {
	removed   int
	processed int
}

// ByHash removes exact-identity duplicates: groups sharing a
// fingerprint with at least two members discovered inside the window.
// Group members outside the window are still candidates for removal
// once their group qualifies.
func (e *Engine) ByHash(ctx context.Context, windowDays int) (models.DedupeStats, error) {
	start := e.now()
	res, err := e.byHash(ctx, e.cutoff(windowDays, defaultHashWindowDays))

	stats := models.DedupeStats{
		DuplicatesRemoved:     res.removed,
		ArticlesProcessed:     res.processed,
		HashRemoved:           res.removed,
		ProcessingTimeSeconds: e.now().Sub(start).Seconds(),
	}
	if res.removed == 0 {
		stats.Message = "No hash-based duplicates found"
	} else {
		stats.Message = fmt.Sprintf("Hash-based: removed %d duplicates", res.removed)
	}

	metrics.RecordDedupeScan(e.now().Sub(start), map[string]int{"hash": res.removed})
	e.logScan("hash", stats, err)
	return stats, err
}

// ByTitle removes retitled duplicates: articles in the window whose
// normalized titles collide even though their fingerprints differ.
func (e *Engine) ByTitle(ctx context.Context, windowDays int) (models.DedupeStats, error) {
	start := e.now()
	res, err := e.byTitle(ctx, e.cutoff(windowDays, defaultTitleWindowDays))

	stats := models.DedupeStats{
		DuplicatesRemoved:     res.removed,
		ArticlesProcessed:     res.processed,
		TitleRemoved:          res.removed,
		ProcessingTimeSeconds: e.now().Sub(start).Seconds(),
	}
	switch {
	case res.processed < 2:
		stats.Message = "Insufficient articles for similarity check"
	default:
		stats.Message = fmt.Sprintf("Title similarity: removed %d duplicates", res.removed)
	}

	metrics.RecordDedupeScan(e.now().Sub(start), map[string]int{"title": res.removed})
	e.logScan("title", stats, err)
	return stats, err
}

// ByDomain detects cross-posting: it groups windowed articles by URL
// host and applies title-similarity grouping inside each host.
func (e *Engine) ByDomain(ctx context.Context, windowDays int) (models.DedupeStats, error) {
	start := e.now()
	res, err := e.byDomain(ctx, e.cutoff(windowDays, defaultDomainWindowDays))

	stats := models.DedupeStats{
		DuplicatesRemoved:     res.removed,
		ArticlesProcessed:     res.processed,
		DomainRemoved:         res.removed,
		ProcessingTimeSeconds: e.now().Sub(start).Seconds(),
	}
	stats.Message = fmt.Sprintf("Domain-based: removed %d duplicates", res.removed)

	metrics.RecordDedupeScan(e.now().Sub(start), map[string]int{"domain": res.removed})
	e.logScan("domain", stats, err)
	return stats, err
}

// RegenerateFingerprints recomputes identities for rows whose
// fingerprint was never written or was wiped. A recomputed fingerprint
// that another row already owns marks this row as an exact duplicate of
// that owner, and it is removed.
func (e *Engine) RegenerateFingerprints(ctx context.Context) (models.DedupeStats, error) {
	start := e.now()
	res, err := e.regenerate(ctx)

	stats := models.DedupeStats{
		DuplicatesRemoved:     res.removed,
		ArticlesProcessed:     res.candidates,
		HashesRegenerated:     res.regenerated,
		ProcessingTimeSeconds: e.now().Sub(start).Seconds(),
	}
	if res.candidates == 0 {
		stats.Message = "All articles have content fingerprints"
	} else {
		stats.Message = fmt.Sprintf("Regenerated fingerprints for %d articles", res.regenerated)
	}

	metrics.RecordDedupeScan(e.now().Sub(start), map[string]int{"regenerate": res.removed})
	e.logScan("regenerate", stats, err)
	return stats, err
}

// RecentScan runs the hash and title strategies over one shared window.
// The content processor invokes this after every enhancement run. A
// strategy failure does not stop the remaining strategies; the first
// failure is returned alongside the stats for whatever completed.
func (e *Engine) RecentScan(ctx context.Context, windowDays int) (models.DedupeStats, error) {
	if windowDays <= 0 {
		windowDays = defaultHashWindowDays
	}
	since := e.cutoff(windowDays, defaultHashWindowDays)
	start := e.now()

	hash, hashErr := e.byHash(ctx, since)
	title, titleErr := e.byTitle(ctx, since)

	stats := models.DedupeStats{
		DuplicatesRemoved:     hash.removed + title.removed,
		ArticlesProcessed:     max(hash.processed, title.processed),
		HashRemoved:           hash.removed,
		TitleRemoved:          title.removed,
		ProcessingTimeSeconds: e.now().Sub(start).Seconds(),
	}
	stats.Message = fmt.Sprintf("Removed %d duplicates", stats.DuplicatesRemoved)

	metrics.RecordDedupeScan(e.now().Sub(start), map[string]int{
		"hash":  hash.removed,
		"title": title.removed,
	})

	err := hashErr
	if err == nil {
		err = titleErr
	}
	e.logScan("recent", stats, err)
	return stats, err
}

// FullScan runs every strategy over one shared window: fingerprint
// regeneration first so recovered identities participate in the hash
// pass, then hash, title, and domain. The daily maintenance job runs
// this.
func (e *Engine) FullScan(ctx context.Context, windowDays int) (models.DedupeStats, error) {
	if windowDays <= 0 {
		windowDays = defaultHashWindowDays
	}
	since := e.cutoff(windowDays, defaultHashWindowDays)
	start := e.now()

	regen, regenErr := e.regenerate(ctx)
	hash, hashErr := e.byHash(ctx, since)
	title, titleErr := e.byTitle(ctx, since)
	domain, domainErr := e.byDomain(ctx, since)

	stats := models.DedupeStats{
		DuplicatesRemoved:     regen.removed + hash.removed + title.removed + domain.removed,
		ArticlesProcessed:     max(hash.processed, max(title.processed, domain.processed)),
		HashRemoved:           hash.removed,
		TitleRemoved:          title.removed,
		DomainRemoved:         domain.removed,
		HashesRegenerated:     regen.regenerated,
		ProcessingTimeSeconds: e.now().Sub(start).Seconds(),
	}
	stats.Message = fmt.Sprintf("Removed %d duplicates", stats.DuplicatesRemoved)

	metrics.RecordDedupeScan(e.now().Sub(start), map[string]int{
		"regenerate": regen.removed,
		"hash":       hash.removed,
		"title":      title.removed,
		"domain":     domain.removed,
	})

	err := regenErr
	if err == nil {
		err = hashErr
	}
	if err == nil {
		err = titleErr
	}
	if err == nil {
		err = domainErr
	}
	e.logScan("full", stats, err)
	return stats, err
}

func (e *Engine) byHash(ctx context.Context, since time.Time) (strategyResult, error) {
	fingerprints, err := e.store.DuplicateFingerprints(ctx, since)
	if err != nil {
		return strategyResult{}, err
	}

	var res strategyResult
	var losers []int64
	for _, fingerprint := range fingerprints {
		group, err := e.store.ArticlesWithFingerprint(ctx, fingerprint)
		if err != nil {
			return res, err
		}
		res.processed += len(group)
		losers = append(losers, loserIDs(group)...)
	}

	removed, err := e.deleteLosers(ctx, losers)
	res.removed = removed
	return res, err
}

func (e *Engine) byTitle(ctx context.Context, since time.Time) (strategyResult, error) {
	articles, err := e.store.ArticlesInWindow(ctx, since)
	if err != nil {
		return strategyResult{}, err
	}

	res := strategyResult{processed: len(articles)}
	if len(articles) < 2 {
		return res, nil
	}

	removed, err := e.deleteLosers(ctx, titleLoserIDs(articles))
	res.removed = removed
	return res, err
}

func (e *Engine) byDomain(ctx context.Context, since time.Time) (strategyResult, error) {
	articles, err := e.store.ArticlesInWindow(ctx, since)
	if err != nil {
		return strategyResult{}, err
	}

	res := strategyResult{processed: len(articles)}
	if len(articles) < 2 {
		return res, nil
	}

	domains := make(map[string][]models.Article)
	for _, a := range articles {
		if domain := urlDomain(a.URL); domain != "" {
			domains[domain] = append(domains[domain], a)
		}
	}

	var losers []int64
	for _, group := range domains {
		if len(group) > 1 {
			losers = append(losers, titleLoserIDs(group)...)
		}
	}

	removed, err := e.deleteLosers(ctx, losers)
	res.removed = removed
	return res, err
}

// regenResult is the raw outcome of one fingerprint regeneration pass.
type regenResult struct {
	candidates  int
	regenerated int
	removed     int
}

func (e *Engine) regenerate(ctx context.Context) (regenResult, error) {
	candidates, err := e.store.ArticlesMissingFingerprint(ctx, regenerateLimit)
	if err != nil {
		return regenResult{}, err
	}

	res := regenResult{candidates: len(candidates)}
	var collisions []int64
	for _, c := range candidates {
		fingerprint := textutil.Fingerprint(c.Title, c.URL)
		switch err := e.store.SetFingerprint(ctx, c.ID, fingerprint); {
		case err == nil:
			res.regenerated++
		case database.IsUniqueViolation(err):
			// Another row owns this identity; this one is a copy of it.
			collisions = append(collisions, c.ID)
		default:
			e.log.Error().Err(err).Int64("article_id", c.ID).
				Msg("Failed to write regenerated fingerprint")
		}
	}

	removed, err := e.deleteLosers(ctx, collisions)
	res.removed = removed
	return res, err
}

// deleteLosers removes the given rows, tolerating an empty set.
func (e *Engine) deleteLosers(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	removed, err := e.store.DeleteArticles(ctx, ids)
	return int(removed), err
}

// loserIDs returns every member of the group except the best copy.
// Groups of fewer than two members produce nothing.
func loserIDs(group []models.Article) []int64 {
	if len(group) < 2 {
		return nil
	}
	best := bestArticle(group)
	ids := make([]int64, 0, len(group)-1)
	for i := range group {
		if group[i].ID != best.ID {
			ids = append(ids, group[i].ID)
		}
	}
	return ids
}

// titleLoserIDs groups articles by comparable title and collects the
// non-best members of every colliding group.
func titleLoserIDs(articles []models.Article) []int64 {
	groups := make(map[string][]models.Article)
	for _, a := range articles {
		if key := comparableTitle(a.Title); key != "" {
			groups[key] = append(groups[key], a)
		}
	}

	var losers []int64
	for _, group := range groups {
		losers = append(losers, loserIDs(group)...)
	}
	return losers
}

// bestArticle picks the copy to keep from a duplicate group: highest
// keep score, ties going to the latest discovery.
func bestArticle(group []models.Article) *models.Article {
	best := &group[0]
	bestScore := keepScore(best)
	for i := 1; i < len(group); i++ {
		score := keepScore(&group[i])
		switch {
		case score > bestScore:
			best, bestScore = &group[i], score
		case score == bestScore && group[i].DiscoveredAt.After(best.DiscoveredAt):
			best = &group[i]
		}
	}
	return best
}

// keepScore ranks duplicate copies: source reliability contributes up
// to 50 points, body length up to 30, and the stored quality score up
// to 20. A zero reliability reads as the neutral 50.
func keepScore(a *models.Article) float64 {
	reliability := float64(a.SourceReliability)
	if reliability == 0 {
		reliability = 50
	}
	score := reliability / 2

	switch length := utf8.RuneCountInString(a.Content); {
	case length > 1000:
		score += 30
	case length > 500:
		score += 20
	case length > 200:
		score += 10
	}

	return score + a.QualityScore/100*20
}

// comparableTitle reduces a headline to its similarity-grouping key:
// lowercased, urgency prefix and trailing source attribution stripped,
// punctuation replaced by spaces, whitespace collapsed. Titles too
// short to compare safely return "".
func comparableTitle(title string) string {
	if utf8.RuneCountInString(title) < minRawTitleLen {
		return ""
	}

	normalized := strings.ToLower(strings.TrimSpace(title))
	normalized = titlePrefixRe.ReplaceAllString(normalized, "")
	normalized = sourceSuffixRe.ReplaceAllString(normalized, "")
	normalized = nonWordRe.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(spaceRunRe.ReplaceAllString(normalized, " "))

	if utf8.RuneCountInString(normalized) < minComparableLen {
		return ""
	}
	return normalized
}

// urlDomain extracts the lowercased host from an article URL, or ""
// when the URL does not parse to one.
func urlDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// cutoff resolves a window in days to its absolute start, applying the
// strategy default when the caller passes zero.
func (e *Engine) cutoff(windowDays, fallback int) time.Time {
	if windowDays <= 0 {
		windowDays = fallback
	}
	return e.now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)
}

func (e *Engine) logScan(strategy string, stats models.DedupeStats, err error) {
	event := e.log.Info()
	if err != nil {
		event = e.log.Error().Err(err)
	} else if stats.DuplicatesRemoved == 0 {
		event = e.log.Debug()
	}
	event.Str("strategy", strategy).
		Int("removed", stats.DuplicatesRemoved).
		Int("checked", stats.ArticlesProcessed).
		Float64("seconds", stats.ProcessingTimeSeconds).
		Msg("Deduplication scan finished")
}
