// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package models

import (
	"time"
)

// APIResponse is the standardized wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": Request completed, see Data
//   - "error": Request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"articles": [...], "total": 42},
//	  "metadata": {
//	    "timestamp": "2026-08-01T12:00:00Z",
//	    "query_time_ms": 12,
//	    "cached": false
//	  }
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing and cache provenance.
// QueryTimeMS is 0 for cache hits; Cached is omitted when false.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a structured error payload.
//
// Common codes: VALIDATION_ERROR, DATABASE_ERROR, NOT_FOUND,
// RATE_LIMIT_EXCEEDED, TASK_PUBLISH_ERROR, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the health check response.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	CacheConnected    bool    `json:"cache_connected"`
	BrokerConnected   bool    `json:"broker_connected"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// ArticleList is the payload behind article listing endpoints.
type ArticleList struct {
	Articles []ArticleView `json:"articles"`
	Total    int           `json:"total"`
	Offset   int           `json:"offset"`
	Limit    int           `json:"limit"`
}

// CachedArticleList is the payload behind /articles/cached. Source names
// whether the ids came from a cache layer or fell through to the store.
type CachedArticleList struct {
	Articles   []ArticleView `json:"articles"`
	Source     string        `json:"source"`      // cache_hit or cache_miss
	CacheLayer string        `json:"cache_layer"` // topic, recency, or none
}
