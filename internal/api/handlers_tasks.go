// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/tasks"
)

// TriggerCollect enqueues a full collection run and returns the task
// id for polling via /tasks/status/{id}.
//
// Method: GET
// Path: /api/v1/tasks/rss/trigger
//
// Response:
//   - 202: {"task_id": ..., "kind": "collect_all"}
//   - 500: task publish failure
//   - 503: task queue not available
func (h *Handler) TriggerCollect(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireTasks(w) {
		return
	}

	id, err := h.tasks.Enqueue(r.Context(), tasks.KindCollectAll, tasks.Args{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TASK_PUBLISH_ERROR", "Failed to enqueue collection task", err)
		return
	}

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]string{
			"task_id": id,
			"kind":    tasks.KindCollectAll,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// TaskStatus reports the recorded state of a task. Ids the status
// store has never seen, or whose record has expired, read as pending.
//
// Method: GET
// Path: /api/v1/tasks/status/{id}
//
// Response:
//   - 200: tasks.Status
//   - 400: empty id
//   - 503: task queue not available
func (h *Handler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireTasks(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Task id is required", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   h.tasks.TaskStatus(r.Context(), id),
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
