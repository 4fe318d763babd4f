// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package textutil

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Tags whose entire subtree is discarded during cleaning.
var removeTags = []string{
	"script", "style", "meta", "link", "noscript",
	"iframe", "embed", "object", "applet", "form",
}

// Block-level tags mapped to the separator emitted in their place.
// Blockquotes additionally get a closing quote after their content.
var blockSeparators = map[string]string{
	"p":          "\n\n",
	"h1":         "\n\n",
	"h2":         "\n\n",
	"h3":         "\n\n",
	"h4":         "\n\n",
	"h5":         "\n\n",
	"h6":         "\n\n",
	"br":         "\n",
	"div":        "\n",
	"li":         "\n• ",
	"blockquote": "\n\"",
	"hr":         "\n---\n",
}

// Boilerplate that feeds inject around article bodies, matched
// case-insensitively and removed outright.
var junkPatterns = []*regexp.Regexp{
	// Social media sharing text
	regexp.MustCompile(`(?i)share\s+on\s+(facebook|twitter|linkedin|whatsapp)`),
	regexp.MustCompile(`(?i)follow\s+us\s+on\s+(facebook|twitter|instagram)`),
	regexp.MustCompile(`(?i)like\s+us\s+on\s+facebook`),

	// Advertisement indicators
	regexp.MustCompile(`(?i)advertisement\s*:?\s*`),
	regexp.MustCompile(`(?i)\[\s*ad\s*\]`),
	regexp.MustCompile(`(?i)sponsored\s+content`),

	// Newsletter and subscription prompts
	regexp.MustCompile(`(?i)subscribe\s+to\s+our\s+newsletter`),
	regexp.MustCompile(`(?i)sign\s+up\s+for\s+updates`),

	// Copyright and legal text
	regexp.MustCompile(`(?i)©\s*\d{4}.*?all\s+rights\s+reserved`),
	regexp.MustCompile(`(?i)terms\s+of\s+use`),
	regexp.MustCompile(`(?i)privacy\s+policy`),

	// Feed metadata labels
	regexp.MustCompile(`(?i)filed\s+under\s*:`),
	regexp.MustCompile(`(?i)tags\s*:`),
	regexp.MustCompile(`(?i)category\s*:`),

	// Read-more teasers
	regexp.MustCompile(`(?i)read\s+more\s*\.{3}`),
	regexp.MustCompile(`(?i)continue\s+reading`),
	regexp.MustCompile(`(?i)full\s+story\s+here`),

	// Image credit lines
	regexp.MustCompile(`(?i)image\s*:\s*getty\s+images`),
	regexp.MustCompile(`(?i)photo\s*:\s*reuters`),
	regexp.MustCompile(`(?i)source\s*:\s*[a-zA-Z ]+`),
}

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	htmlTagRe       = regexp.MustCompile(`<[^>]+>`)
	multiSpaceRe    = regexp.MustCompile(` {2,}`)
	lineEndingRe    = regexp.MustCompile(`\r\n?`)
	tripleNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// CleanHTML converts feed markup to readable plain text. Unwanted subtrees
// are dropped, block tags become separators, entities are decoded, unicode
// is NFKC-normalized and known boilerplate is stripped. Returns "" when
// nothing readable remains.
func CleanHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	decoded := html.UnescapeString(s)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decoded))
	if err != nil {
		// Parser rejected the payload; fall back to bare tag stripping.
		stripped := htmlTagRe.ReplaceAllString(s, "")
		return strings.TrimSpace(normalizeWhitespace(html.UnescapeString(stripped)))
	}
	doc.Find(strings.Join(removeTags, ",")).Remove()

	var b strings.Builder
	for _, node := range doc.Selection.Nodes {
		flattenNode(node, &b)
	}
	return postProcessText(b.String())
}

// flattenNode walks the parsed tree emitting text content, with block
// tags replaced by their separators.
func flattenNode(n *xhtml.Node, b *strings.Builder) {
	switch n.Type {
	case xhtml.TextNode:
		b.WriteString(n.Data)
	case xhtml.ElementNode:
		if sep, ok := blockSeparators[n.Data]; ok {
			b.WriteString(sep)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flattenNode(c, b)
	}
	if n.Type == xhtml.ElementNode && n.Data == "blockquote" {
		b.WriteString(`"`)
	}
}

func postProcessText(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFKC.String(text)
	for _, re := range junkPatterns {
		text = re.ReplaceAllString(text, "")
	}
	text = normalizeWhitespace(text)

	// Drop empty lines and lines repeated within the last three kept,
	// which collapses the per-item duplication some feeds emit.
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || recentlyKept(kept, line) {
			continue
		}
		kept = append(kept, line)
	}

	result := strings.Join(kept, "\n")
	result = tripleNewlineRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func recentlyKept(kept []string, line string) bool {
	start := len(kept) - 3
	if start < 0 {
		start = 0
	}
	for _, prev := range kept[start:] {
		if prev == line {
			return true
		}
	}
	return false
}

// normalizeWhitespace collapses space runs, converts tabs and unifies
// line endings without touching newline structure.
func normalizeWhitespace(text string) string {
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\t", " ")
	return lineEndingRe.ReplaceAllString(text, "\n")
}
