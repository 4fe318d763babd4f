// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package textutil

import "testing"

func TestCleanHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "paragraphs become lines",
			in:   "<p>Hello</p><p>World</p>",
			want: "Hello\nWorld",
		},
		{
			name: "heading then body",
			in:   "<h1>Title</h1><p>Body text.</p>",
			want: "Title\nBody text.",
		},
		{
			name: "script subtree removed",
			in:   "<p>Keep</p><script>alert('x')</script>",
			want: "Keep",
		},
		{
			name: "style subtree removed",
			in:   "<style>.a{color:red}</style><p>Visible</p>",
			want: "Visible",
		},
		{
			name: "list items bulleted",
			in:   "<ul><li>One</li><li>Two</li></ul>",
			want: "• One\n• Two",
		},
		{
			name: "blockquote quoted",
			in:   "<blockquote>Wise words</blockquote>",
			want: "\"Wise words\"",
		},
		{
			name: "horizontal rule",
			in:   "<p>a</p><hr><p>b</p>",
			want: "a\n---\nb",
		},
		{
			name: "entities decoded",
			in:   "<p>Tom &amp; Jerry</p>",
			want: "Tom & Jerry",
		},
		{
			name: "nbsp normalized",
			in:   "<p>A&nbsp;B</p>",
			want: "A B",
		},
		{
			name: "compatibility ligature normalized",
			in:   "<p>ﬁle</p>",
			want: "file",
		},
		{
			name: "newsletter prompt stripped",
			in:   "<p>Real news content.</p><p>Subscribe to our newsletter</p>",
			want: "Real news content.",
		},
		{
			name: "share prompt stripped",
			in:   "<p>Story.</p><div>Share on Facebook</div>",
			want: "Story.",
		},
		{
			name: "repeated lines collapsed",
			in:   "<p>Same</p><p>Same</p><p>Same</p>",
			want: "Same",
		},
		{
			name: "plain text passthrough",
			in:   "Just plain text",
			want: "Just plain text",
		},
		{
			name: "tabs and carriage returns",
			in:   "A\tB\r\nC",
			want: "A B\nC",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "whitespace only",
			in:   "   ",
			want: "",
		},
		{
			name: "script only",
			in:   "<script>x=1</script>",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanHTML(tt.in); got != tt.want {
				t.Errorf("CleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
