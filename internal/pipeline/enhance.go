// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package pipeline

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"

	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/textutil"
)

// Analysis samples: each step reads a different amount of leading text.
// Topic scoring needs enough body to rank, geography wants the widest
// sample, importance cues cluster in the lede.
const (
	topicAnalysisLimit      = 1000
	geoAnalysisLimit        = 2000
	importanceAnalysisLimit = 500

	maxSecondaryTopics = 3
	maxTickers         = 10

	// Summaries are regenerated from bodies of at least
	// summaryMinContent runes when the stored summary falls outside
	// the useful band.
	summaryMinContent = 300
	summaryLowerBound = 50
	summaryUpperBound = 400
	summaryTargetLen  = 300

	generalTopic = "general"

	// neutralReliability substitutes for a missing reliability score.
	neutralReliability = 50
)

// enhanceArticle runs every enhancement step against the row in place
// and reports whether any of them changed it. Steps are pure functions
// of the current field values; each may be a no-op.
func enhanceArticle(a *models.Article, now time.Time) bool {
	enhanced := false
	if classifyTopics(a) {
		enhanced = true
	}
	if extractGeography(a) {
		enhanced = true
	}
	if classifyImportance(a) {
		enhanced = true
	}
	if extractBusinessEntities(a) {
		enhanced = true
	}
	if scoreQuality(a, now) {
		enhanced = true
	}
	if refreshSummary(a) {
		enhanced = true
	}
	return enhanced
}

// refreshIdentity recomputes the fingerprint from the current title and
// URL and backfills derived fields that ingest may not have written.
// Identity upkeep does not count as enhancement.
func refreshIdentity(a *models.Article) {
	if fingerprint := textutil.Fingerprint(a.Title, a.URL); fingerprint != a.Fingerprint {
		a.Fingerprint = fingerprint
	}
	if a.SimilarityHash == "" {
		a.SimilarityHash = textutil.SimilarityHash(a.Content)
	}
	if a.WordCount == 0 {
		a.WordCount = textutil.WordCount(a.Content)
	}
	if a.ReadingTimeMinutes == 0 {
		a.ReadingTimeMinutes = textutil.ReadingMinutes(a.WordCount)
	}
}

// classifyTopics rescores every topic against the leading text and
// promotes the best match. Secondary topics are rewritten only when the
// primary changes, and only when there are scored runners-up to record.
func classifyTopics(a *models.Article) bool {
	if a.Title == "" && a.Content == "" {
		return false
	}
	text := analysisText(a, topicAnalysisLimit)

	type topicScore struct {
		name  string
		score int
	}
	counts := topicMatcher.Counts(text)
	var scores []topicScore
	for i, entry := range topicTable {
		if counts[i] > 0 {
			scores = append(scores, topicScore{entry.name, counts[i]})
		}
	}
	if len(scores) == 0 {
		return false
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if scores[0].name == a.PrimaryTopic {
		return false
	}

	a.PrimaryTopic = scores[0].name
	secondary := make(pq.StringArray, 0, maxSecondaryTopics)
	for _, s := range scores[1:] {
		secondary = append(secondary, s.name)
		if len(secondary) == maxSecondaryTopics {
			break
		}
	}
	if len(secondary) > 0 {
		a.SecondaryTopics = secondary
	}
	return true
}

// extractGeography unions newly mentioned countries into the row.
// Countries already recorded keep their position; new ones append in
// table order.
func extractGeography(a *models.Article) bool {
	if a.Title == "" && a.Content == "" {
		return false
	}
	text := analysisText(a, geoAnalysisLimit)

	known := make(map[string]struct{}, len(a.CountriesMentioned))
	for _, country := range a.CountriesMentioned {
		known[country] = struct{}{}
	}

	counts := countryMatcher.Counts(text)
	var added []string
	for i, entry := range countryTable {
		if counts[i] == 0 {
			continue
		}
		if _, ok := known[entry.name]; ok {
			continue
		}
		added = append(added, entry.name)
	}
	if len(added) == 0 {
		return false
	}
	a.CountriesMentioned = append(a.CountriesMentioned, added...)
	return true
}

// classifyImportance grades the article against the breaking and
// important indicator sets. Two breaking cues, or one cue from a
// highly reliable source, mark breaking news; important needs two cues
// or one alongside a breaking cue.
func classifyImportance(a *models.Article) bool {
	if a.Title == "" && a.Content == "" {
		return false
	}
	text := analysisText(a, importanceAnalysisLimit)

	breaking := breakingMatcher.Count(text)
	important := importantMatcher.Count(text)

	level := models.ImportanceRegular
	switch {
	case breaking >= 2 || (breaking >= 1 && a.SourceReliability >= 90):
		level = models.ImportanceBreaking
	case important >= 2 || (important >= 1 && breaking >= 1):
		level = models.ImportanceImportant
	}

	if level == a.ImportanceLevel {
		return false
	}
	a.ImportanceLevel = level
	return true
}

// extractBusinessEntities pulls ticker symbols from the raw text and
// picks a market sector. Tickers compare as sets so reordering never
// counts as a change; neither field is ever cleared.
func extractBusinessEntities(a *models.Article) bool {
	if a.Title == "" && a.Content == "" {
		return false
	}
	text := a.Title + " " + a.Content

	tickers := extractTickers(text)
	sector := detectSector(strings.ToLower(text))

	updated := false
	if len(tickers) > 0 && !sameStringSet(tickers, a.MarketTickers) {
		a.MarketTickers = pq.StringArray(tickers)
		updated = true
	}
	if sector != "" && sector != a.MarketSector {
		a.MarketSector = sector
		updated = true
	}
	return updated
}

// extractTickers returns candidate symbols in first-occurrence order,
// minus blacklisted words, capped at maxTickers.
func extractTickers(text string) []string {
	matches := tickerRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	tickers := make([]string, 0, maxTickers)
	for _, symbol := range matches {
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		if _, banned := tickerBlacklist[symbol]; banned {
			continue
		}
		tickers = append(tickers, symbol)
		if len(tickers) == maxTickers {
			break
		}
	}
	return tickers
}

// detectSector scores each sector's keywords against the lowered text;
// the highest strictly positive score wins, earlier sectors winning
// ties.
func detectSector(lowered string) string {
	counts := sectorMatcher.Counts(lowered)
	best := ""
	bestScore := 0
	for i, entry := range sectorTable {
		if counts[i] > bestScore {
			best, bestScore = entry.name, counts[i]
		}
	}
	return best
}

// scoreQuality computes the 0-100 quality score: body length up to 30,
// source reliability up to 25, title length up to 15, publication
// recency up to 15, topic specificity up to 10, geographic relevance 5.
// The stored value is only replaced when the recomputed score moves by
// more than one point.
func scoreQuality(a *models.Article, now time.Time) bool {
	score := 0.0

	switch length := utf8.RuneCountInString(a.Content); {
	case length >= 1000:
		score += 30
	case length >= 500:
		score += 20
	case length >= 200:
		score += 10
	}

	reliability := float64(a.SourceReliability)
	if reliability == 0 {
		reliability = neutralReliability
	}
	score += reliability / 100 * 25

	switch length := utf8.RuneCountInString(a.Title); {
	case length >= 30 && length <= 100:
		score += 15
	case length >= 20 && length <= 120:
		score += 10
	case length >= 10:
		score += 5
	}

	if a.PublishedAt != nil {
		switch hours := now.Sub(*a.PublishedAt).Hours(); {
		case hours <= 1:
			score += 15
		case hours <= 6:
			score += 10
		case hours <= 24:
			score += 5
		}
	}

	switch {
	case a.PrimaryTopic == generalTopic:
		score += 5
	case a.PrimaryTopic != "":
		score += 10
	}

	if len(a.CountriesMentioned) > 0 {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	if math.Abs(score-a.QualityScore) <= 1 {
		return false
	}
	a.QualityScore = score
	return true
}

// refreshSummary regenerates the summary when the stored one falls
// outside the useful length band and there is enough body to work
// from.
func refreshSummary(a *models.Article) bool {
	if utf8.RuneCountInString(a.Content) < summaryMinContent {
		return false
	}
	if length := utf8.RuneCountInString(a.Summary); length >= summaryLowerBound && length <= summaryUpperBound {
		return false
	}

	summary := textutil.ExtractSummary(a.Content, summaryTargetLen)
	if summary == "" || summary == a.Summary {
		return false
	}
	a.Summary = summary
	a.SummaryGenerated = true
	return true
}

// analysisText returns the leading title+body sample, lowercased.
func analysisText(a *models.Article, limit int) string {
	text := a.Title + " " + a.Content
	if runes := []rune(text); len(runes) > limit {
		text = string(runes[:limit])
	}
	return strings.ToLower(text)
}

// sameStringSet reports whether two symbol lists hold the same members
// regardless of order.
func sameStringSet(a []string, b pq.StringArray) bool {
	as := make(map[string]struct{}, len(a))
	for _, s := range a {
		as[s] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, s := range b {
		bs[s] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for s := range as {
		if _, ok := bs[s]; !ok {
			return false
		}
	}
	return true
}
