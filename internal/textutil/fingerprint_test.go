// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package textutil

import (
	"strings"
	"testing"
)

func TestFingerprintStableAcrossVariants(t *testing.T) {
	t.Parallel()

	base := Fingerprint("Breaking: OpenAI releases GPT-6", "https://x.com/a")

	tests := []struct {
		name  string
		title string
		url   string
	}{
		{
			name:  "extra whitespace and punctuation",
			title: "breaking:  OpenAI releases GPT-6!",
			url:   "https://x.com/a",
		},
		{
			name:  "tracking parameters",
			title: "Breaking: OpenAI releases GPT-6",
			url:   "https://x.com/a?utm_source=twitter",
		},
		{
			name:  "case flip and trailing slash",
			title: "BREAKING: OpenAI Releases GPT-6",
			url:   "HTTPS://X.COM/a/",
		},
		{
			name:  "stop words and fragment",
			title: "Breaking - OpenAI releases the GPT-6",
			url:   "https://x.com/a#section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Fingerprint(tt.title, tt.url); got != base {
				t.Errorf("Fingerprint(%q, %q) = %s, want %s", tt.title, tt.url, got, base)
			}
		})
	}
}

func TestFingerprintDistinguishesStories(t *testing.T) {
	t.Parallel()

	a := Fingerprint("OpenAI releases GPT-6", "https://x.com/a")
	b := Fingerprint("OpenAI releases GPT-7", "https://x.com/a")
	c := Fingerprint("OpenAI releases GPT-6", "https://x.com/b")

	if a == b {
		t.Error("different titles produced the same fingerprint")
	}
	if a == c {
		t.Error("different URLs produced the same fingerprint")
	}
	if len(a) != 32 {
		t.Errorf("fingerprint length = %d, want 32", len(a))
	}
}

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"stop words dropped", "The Quick Brown Fox", "quick brown fox"},
		{"short tokens dropped", "AI in India", "india"},
		{"punctuation stripped", "U.S. Economy Grows", "economy grows"},
		{"whitespace collapsed", "  Spaced   Out  Title  ", "spaced out title"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeTitle(tt.title); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"lowercase and trailing slash", "https://Example.com/News/Story/", "https://example.com/news/story"},
		{"query dropped", "https://x.com/a?utm_source=t&utm_medium=m", "https://x.com/a"},
		{"non-tracking query dropped too", "https://x.com/a?id=5", "https://x.com/a"},
		{"fragment dropped", "https://x.com/a#comments", "https://x.com/a"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CanonicalizeURL(tt.url); got != tt.want {
				t.Errorf("CanonicalizeURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestStripTrackingParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"mid-query tracking removed", "https://x.com/a?id=5&utm_source=t", "https://x.com/a?id=5"},
		{"leading ref removed", "https://x.com/a?ref=rss", "https://x.com/a"},
		{"untouched without tracking", "https://x.com/a?id=5", "https://x.com/a?id=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StripTrackingParams(tt.url); got != tt.want {
				t.Errorf("StripTrackingParams(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestSimilarityHash(t *testing.T) {
	t.Parallel()

	if got := SimilarityHash(""); got != EmptySimilarityHash {
		t.Errorf("SimilarityHash(\"\") = %q, want %q", got, EmptySimilarityHash)
	}

	if got := SimilarityHash("Markets rallied today."); len(got) != 8 {
		t.Errorf("hash length = %d, want 8", len(got))
	}

	// Only the first 1000 characters participate.
	head := strings.Repeat("a", 1000)
	if SimilarityHash(head+strings.Repeat("x", 200)) != SimilarityHash(head+strings.Repeat("y", 200)) {
		t.Error("content differing only past the sample window should hash identically")
	}

	// Syndication prefixes and markup do not change the hash.
	plain := SimilarityHash("Markets rallied today.")
	if got := SimilarityHash("Breaking: Markets rallied today."); got != plain {
		t.Errorf("prefixed content hash = %s, want %s", got, plain)
	}
	if got := SimilarityHash("<p>Markets rallied today.</p>"); got != plain {
		t.Errorf("markup content hash = %s, want %s", got, plain)
	}

	if SimilarityHash("alpha") == SimilarityHash("beta") {
		t.Error("different content should produce different hashes")
	}
}
