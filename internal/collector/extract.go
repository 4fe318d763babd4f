// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package collector

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mmcdole/gofeed"

	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/textutil"
)

const (
	// minMeaningfulBody separates real article bodies from stub
	// candidates like "Read more" teasers.
	minMeaningfulBody = 50

	// minBodyLen is the floor below which the title substitutes for
	// the body entirely.
	minBodyLen = 20

	maxTitleLen   = 500
	summaryMaxLen = 300

	// topicProbeLen bounds how much text the ingest-time keyword rule
	// looks at.
	topicProbeLen = 500
)

// ContentBlock is one typed content element from a feed entry.
type ContentBlock struct {
	Type  string
	Value string
}

// ContentField is a candidate article body in whichever shape the feed
// carried it: bare text, a single typed block, or a list of typed
// blocks. Feeds disagree wildly about this; normalizing the shapes in
// one place keeps the shape-juggling out of the ingest path.
type ContentField struct {
	Text   string
	Block  *ContentBlock
	Blocks []ContentBlock
}

// Candidates returns each non-blank body this field carries.
func (f ContentField) Candidates() []string {
	var out []string
	if strings.TrimSpace(f.Text) != "" {
		out = append(out, f.Text)
	}
	if f.Block != nil && strings.TrimSpace(f.Block.Value) != "" {
		out = append(out, f.Block.Value)
	}
	for _, b := range f.Blocks {
		if strings.TrimSpace(b.Value) != "" {
			out = append(out, b.Value)
		}
	}
	return out
}

// contentFields enumerates every place an entry can stash its body, in
// preference order: the typed content field, then description (which
// gofeed also fills from Atom summaries), then namespaced blocks such
// as media descriptions and content:encoded carried as extensions.
func contentFields(item *gofeed.Item) []ContentField {
	return []ContentField{
		{Text: item.Content},
		{Text: item.Description},
		extensionBlocks(item, "media", "description"),
		extensionBlocks(item, "content", "encoded"),
	}
}

// extensionBlocks lifts one namespaced element list into typed blocks.
func extensionBlocks(item *gofeed.Item, namespace, name string) ContentField {
	exts, ok := item.Extensions[namespace]
	if !ok {
		return ContentField{}
	}
	var blocks []ContentBlock
	for _, e := range exts[name] {
		blocks = append(blocks, ContentBlock{Type: e.Attrs["type"], Value: e.Value})
	}
	return ContentField{Blocks: blocks}
}

// extractBody picks the entry body: the longest candidate of
// meaningful length wins, then the longest of any, then empty.
func extractBody(item *gofeed.Item) string {
	var candidates []string
	for _, f := range contentFields(item) {
		candidates = append(candidates, f.Candidates()...)
	}
	if len(candidates) == 0 {
		return ""
	}

	var meaningful []string
	for _, c := range candidates {
		if len(strings.TrimSpace(c)) >= minMeaningfulBody {
			meaningful = append(meaningful, c)
		}
	}
	pool := candidates
	if len(meaningful) > 0 {
		pool = meaningful
	}

	best := pool[0]
	for _, c := range pool[1:] {
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}

// extractDate finds the publication timestamp. Feeds publish dates
// under several names (published, updated, created, pubDate); gofeed
// folds those into two raw slots, which go through the tolerant parser
// first. The pre-parsed structured fields are the fallback.
func extractDate(item *gofeed.Item) *time.Time {
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if ts, err := textutil.ParseDate(raw); err == nil {
			return &ts
		}
	}
	for _, ts := range []*time.Time{item.PublishedParsed, item.UpdatedParsed} {
		if ts != nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}

// Ingest-time keyword rules. The processor's scoring tables refine the
// topic later; entries only need a coarse slot here so topic caches
// have something to key on from the first minute.
var (
	techTopicWords     = []string{"technology", "tech", "ai", "software", "startup", "app", "digital"}
	businessTopicWords = []string{"business", "economy", "finance", "market", "company", "stock"}
	politicsTopicWords = []string{"politics", "government", "election", "policy", "minister", "parliament"}
)

// provisionalTopic assigns the ingest-time primary topic: the source's
// first topic tag when it has one, otherwise a keyword probe over the
// head of the title and body.
func provisionalTopic(src *models.Source, title, body string) string {
	if len(src.Topics) > 0 && src.Topics[0] != "" {
		return src.Topics[0]
	}

	probe := strings.ToLower(title + " " + body)
	if len(probe) > topicProbeLen {
		probe = probe[:topicProbeLen]
	}

	switch {
	case containsAny(probe, techTopicWords):
		return "technology"
	case containsAny(probe, businessTopicWords):
		return "business"
	case containsAny(probe, politicsTopicWords):
		return "politics"
	}
	return "general"
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// buildArticle converts one feed entry into an insertable article.
// Entries without a title or link are unusable and return nil. The
// body falls back to the title when extraction comes up short, so an
// entry never lands with empty content.
func buildArticle(item *gofeed.Item, src *models.Source, now time.Time) *models.Article {
	title := textutil.CleanHTML(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return nil
	}
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen])
	}

	body := textutil.CleanHTML(extractBody(item))
	if len(strings.TrimSpace(body)) < minBodyLen {
		body = title
	}

	wordCount := textutil.WordCount(body)
	summary := textutil.ExtractSummary(body, summaryMaxLen)

	return &models.Article{
		Fingerprint:        textutil.Fingerprint(title, link),
		SimilarityHash:     textutil.SimilarityHash(body),
		Title:              title,
		URL:                link,
		Content:            body,
		SourceID:           src.ID,
		SourceName:         src.Name,
		SourceReliability:  src.Reliability,
		Language:           src.Language,
		PublishedAt:        extractDate(item),
		DiscoveredAt:       now.UTC(),
		Summary:            summary,
		PrimaryTopic:       provisionalTopic(src, title, body),
		SecondaryTopics:    append(pq.StringArray(nil), src.Topics...),
		ImportanceLevel:    models.ImportanceRegular,
		PrimaryRegion:      src.PrimaryRegion,
		WordCount:          wordCount,
		ReadingTimeMinutes: textutil.ReadingMinutes(wordCount),
		SummaryGenerated:   summary != "",
	}
}
