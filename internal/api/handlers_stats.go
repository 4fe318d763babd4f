// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/herald/internal/models"
)

// topSourceLimit bounds the per-source distribution in the dashboard
// payload to the most productive publishers.
const topSourceLimit = 10

// Stats returns dashboard statistics: total stored articles, the
// per-topic distribution, the most productive sources, and the count
// of articles discovered in the last 24 hours.
//
// Method: GET
// Path: /api/v1/stats
//
// Response:
//   - 200: models.DashboardStats
//   - 405: method not allowed
//   - 500: database error
//   - 503: database not available
//
// The response includes query execution time in metadata.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireStore(w) {
		return
	}

	ctx := r.Context()
	start := time.Now()

	total, err := h.store.CountArticles(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve statistics", err)
		return
	}

	recent, err := h.store.RecentArticleCount(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve statistics", err)
		return
	}

	topicCounts, err := h.store.TopicCounts(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve statistics", err)
		return
	}

	sourceCounts, err := h.store.TopSourceCounts(ctx, topSourceLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve statistics", err)
		return
	}

	topics := make(map[string]int64, len(topicCounts))
	for _, tc := range topicCounts {
		topics[tc.Topic] = int64(tc.Count)
	}
	topSources := make(map[string]int64, len(sourceCounts))
	for _, sc := range sourceCounts {
		topSources[sc.Source] = int64(sc.Count)
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.DashboardStats{
			TotalArticles:  int64(total),
			Topics:         topics,
			TopSources:     topSources,
			RecentArticles: int64(recent),
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Sources returns the full source roster, most reliable first,
// including the accumulated poll and failure counters used by the
// health sweep.
//
// Method: GET
// Path: /api/v1/sources
//
// Response:
//   - 200: {"sources": [...], "total": n}
//   - 405: method not allowed
//   - 500: database error
//   - 503: database not available
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireStore(w) {
		return
	}

	start := time.Now()

	sources, err := h.store.ListSources(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list sources", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"sources": sources,
			"total":   len(sources),
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
