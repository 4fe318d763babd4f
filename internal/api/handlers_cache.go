// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/tasks"
)

// CacheStats returns in-process cache counters: per-layer hits and
// misses, hit rates, and the effective layer configuration.
//
// Method: GET
// Path: /api/v1/cache/stats
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireCache(w) {
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   h.cache.Stats(),
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// CachePerformance returns the cache analytics report: layer
// population, recent run summaries, and top performing sources.
//
// Method: GET
// Path: /api/v1/cache/performance
func (h *Handler) CachePerformance(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireCache(w) {
		return
	}

	start := time.Now()
	report := h.cache.Analytics(r.Context())

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   report,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// CacheHealth reports cache engine connectivity and round-trip latency.
//
// Method: GET
// Path: /api/v1/cache/health
func (h *Handler) CacheHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireCache(w) {
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   h.cache.Health(r.Context()),
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// CacheWarm enqueues an asynchronous warm task. The optional layers
// query parameter restricts warming to a subset of topic, recency, and
// source_perf; empty warms everything.
//
// Method: POST
// Path: /api/v1/cache/warm
//
// Response:
//   - 202: {"task_id": ..., "layers": [...]}
//   - 400: unknown layer name
//   - 500: task publish failure
//   - 503: task queue not available
func (h *Handler) CacheWarm(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) || !h.requireTasks(w) {
		return
	}

	req := WarmRequest{
		Layers: parseCommaSeparated(r.URL.Query().Get("layers")),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	id, err := h.tasks.Enqueue(r.Context(), tasks.KindWarmCache, tasks.Args{Layers: req.Layers})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TASK_PUBLISH_ERROR", "Failed to enqueue warm task", err)
		return
	}

	layers := req.Layers
	if layers == nil {
		layers = []string{}
	}

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"task_id": id,
			"layers":  layers,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// CacheWarmSync warms every cache layer inline and returns the warm
// report. Useful for operators who want the result in hand; the POST
// variant is the scheduled path.
//
// Method: GET
// Path: /api/v1/cache/warm
func (h *Handler) CacheWarmSync(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireCache(w) {
		return
	}

	start := time.Now()
	report := h.cache.WarmAll(r.Context())

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   report,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// CacheInvalidate drops the topic layer entry for one topic.
//
// Method: DELETE
// Path: /api/v1/cache/invalidate/{topic}
//
// Response:
//   - 200: {"topic": ..., "invalidated": bool} where invalidated is
//     false when the key was already absent
//   - 400: empty topic
//   - 503: cache not available
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) || !h.requireCache(w) {
		return
	}

	req := InvalidateTopicRequest{
		Topic: strings.TrimSpace(chi.URLParam(r, "topic")),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	invalidated := h.cache.InvalidateTopic(r.Context(), req.Topic)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"topic":       req.Topic,
			"invalidated": invalidated,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
