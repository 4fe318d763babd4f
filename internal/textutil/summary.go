// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package textutil

import (
	"strings"
	"unicode/utf8"
)

// WordsPerMinute is the assumed reading speed for ReadingMinutes.
const WordsPerMinute = 200

// DefaultSummaryLength is the summary budget used by the processing
// pipeline when regenerating summaries.
const DefaultSummaryLength = 300

// ExtractSummary produces a short summary from cleaned text: the first
// paragraph when it fits, otherwise a sentence-greedy fill, otherwise a
// word-boundary truncation with an ellipsis.
func ExtractSummary(content string, maxLen int) string {
	if content == "" {
		return ""
	}

	para := content
	if i := strings.Index(para, "\n\n"); i >= 0 {
		para = para[:i]
	}
	para = strings.TrimSpace(para)
	if utf8.RuneCountInString(para) <= maxLen {
		return para
	}

	// Fill whole sentences until the next one would overflow.
	var summary string
	for _, sentence := range strings.Split(para, ". ") {
		candidate := summary + sentence + ". "
		if utf8.RuneCountInString(candidate) > maxLen {
			break
		}
		summary = candidate
	}
	if s := strings.TrimSpace(summary); s != "" {
		return s
	}

	// No sentence fits; cut at a word boundary instead.
	summary = ""
	for _, word := range strings.Fields(para) {
		candidate := summary + word + " "
		if utf8.RuneCountInString(candidate) > maxLen-3 {
			break
		}
		summary = candidate
	}
	if s := strings.TrimSpace(summary); s != "" {
		return s + "..."
	}

	cut := maxLen - 3
	if cut < 0 {
		cut = 0
	}
	return string([]rune(para)[:cut]) + "..."
}

// WordCount returns the number of whitespace-separated tokens.
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// ReadingMinutes estimates reading time for a word count, rounding up
// with a floor of one minute.
func ReadingMinutes(wordCount int) int {
	if wordCount <= 0 {
		return 1
	}
	minutes := (wordCount + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
