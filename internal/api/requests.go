// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// HTTP request validation structs with go-playground/validator tags.
// Static bounds live in the tags; limits that depend on runtime
// configuration (the page size cap) are checked in the handlers after
// struct validation passes.
package api

// ArticlesRequest represents the validated query parameters for the
// /articles endpoint.
//
// Fields:
//   - Category: primary topic filter (exact match)
//   - Search: substring match against title and content
//   - Source: source name filter (exact match)
//   - Limit: results per page (dynamic max from config)
//   - Offset: rows to skip
type ArticlesRequest struct {
	Category string `validate:"omitempty,max=100"`
	Search   string `validate:"omitempty,max=200"`
	Source   string `validate:"omitempty,max=200"`
	Limit    int    `validate:"min=1"`
	Offset   int    `validate:"min=0,max=1000000"`
}

// CachedArticlesRequest represents the validated query parameters for
// the /articles/cached endpoint. TimeBucket selects the recency layer;
// Topic selects the topic layer. Either may be empty.
type CachedArticlesRequest struct {
	Topic      string `validate:"omitempty,max=100"`
	TimeBucket string `validate:"omitempty,oneof=1h 6h 24h"`
	Limit      int    `validate:"min=1"`
}

// WarmRequest represents the validated parameters for POST /cache/warm.
// An empty Layers slice warms every layer.
type WarmRequest struct {
	Layers []string `validate:"omitempty,dive,oneof=topic recency source_perf"`
}

// InvalidateTopicRequest represents the validated path parameter for
// DELETE /cache/invalidate/{topic}.
type InvalidateTopicRequest struct {
	Topic string `validate:"required,max=100"`
}
