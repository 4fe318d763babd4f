// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package textutil

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// EmptySimilarityHash is returned by SimilarityHash for empty content.
const EmptySimilarityHash = "00000000"

// similaritySampleRunes bounds how much leading body text participates in
// the similarity hash.
const similaritySampleRunes = 1000

// Stop words excluded from title normalization. They carry no identity and
// vary freely across syndicated copies of the same story.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

// Tracking parameters removed during canonicalization. The canonical form
// drops the whole query string anyway; StripTrackingParams exists for
// callers that need to keep the rest of the query intact.
var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "ref", "source"}

var trackingParamRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(trackingParams))
	for i, param := range trackingParams {
		res[i] = regexp.MustCompile(`[?&]` + param + `=[^&]*`)
	}
	return res
}()

var (
	punctuationRe      = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	similarityPrefixRe = regexp.MustCompile(`^(breaking|exclusive|update):\s*`)
)

// Fingerprint derives the deduplication identity of an article from its
// title and URL. Two syndicated copies that differ only in casing,
// punctuation, filler words or tracking parameters fingerprint
// identically. MD5 here is a stable 128-bit identity, not a security
// boundary.
func Fingerprint(title, url string) string {
	input := NormalizeTitle(title) + "||" + CanonicalizeURL(url)
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// NormalizeTitle lowercases a headline, collapses whitespace, strips
// punctuation and drops stop words plus tokens shorter than three
// characters.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	normalized := strings.ToLower(strings.TrimSpace(title))
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	normalized = punctuationRe.ReplaceAllString(normalized, "")

	words := strings.Fields(normalized)
	meaningful := make([]string, 0, len(words))
	for _, word := range words {
		if _, stop := titleStopWords[word]; stop {
			continue
		}
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		meaningful = append(meaningful, word)
	}
	return strings.Join(meaningful, " ")
}

// CanonicalizeURL reduces a URL to its identity-bearing form: lowercase,
// no query or fragment, no trailing slash.
func CanonicalizeURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	canonical := strings.ToLower(strings.TrimSpace(rawURL))
	if i := strings.IndexAny(canonical, "?#"); i >= 0 {
		canonical = canonical[:i]
	}
	canonical = strings.TrimRight(canonical, "/")
	return StripTrackingParams(canonical)
}

// StripTrackingParams removes known tracking parameters from a URL while
// leaving the rest of the query string in place.
func StripTrackingParams(rawURL string) string {
	for _, re := range trackingParamRes {
		rawURL = re.ReplaceAllString(rawURL, "")
	}
	return rawURL
}

// SimilarityHash produces a short hash over the leading body text, used
// for near-duplicate diagnostics. It is never used for equality. Empty
// content returns EmptySimilarityHash.
func SimilarityHash(content string) string {
	if content == "" {
		return EmptySimilarityHash
	}
	sample := content
	if runes := []rune(sample); len(runes) > similaritySampleRunes {
		sample = string(runes[:similaritySampleRunes])
	}
	sample = strings.ToLower(sample)
	sample = htmlTagRe.ReplaceAllString(sample, "")
	sample = strings.TrimSpace(whitespaceRe.ReplaceAllString(sample, " "))
	sample = similarityPrefixRe.ReplaceAllString(sample, "")

	sum := sha256.Sum256([]byte(sample))
	return hex.EncodeToString(sum[:])[:8]
}
