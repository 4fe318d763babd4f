// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/herald/internal/tasks"
)

func TestTriggerCollect_Success(t *testing.T) {
	t.Parallel()

	handler, _, _, bus := newTestHandler()
	bus.id = "collect-7"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/rss/trigger", nil)
	w := httptest.NewRecorder()

	handler.TriggerCollect(w, req)

	assertStatusCode(t, w.Code, http.StatusAccepted, "TriggerCollect_Success")

	data := dataMap(t, decodeResponse(t, w))
	if data["task_id"] != "collect-7" {
		t.Errorf("Expected task_id collect-7, got %v", data["task_id"])
	}
	if data["kind"] != tasks.KindCollectAll {
		t.Errorf("Expected kind %s, got %v", tasks.KindCollectAll, data["kind"])
	}

	if len(bus.enqueued) != 1 || bus.enqueued[0].kind != tasks.KindCollectAll {
		t.Errorf("Unexpected enqueued tasks: %+v", bus.enqueued)
	}
}

func TestTriggerCollect_PublishError(t *testing.T) {
	t.Parallel()

	handler, _, _, bus := newTestHandler()
	bus.err = errStoreDown

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/rss/trigger", nil)
	w := httptest.NewRecorder()

	handler.TriggerCollect(w, req)

	assertStatusCode(t, w.Code, http.StatusInternalServerError, "TriggerCollect_PublishError")
	assertErrorCode(t, decodeResponse(t, w), "TASK_PUBLISH_ERROR")
}

func TestTaskStatus_KnownTask(t *testing.T) {
	t.Parallel()

	handler, _, _, bus := newTestHandler()
	started := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	bus.statuses = map[string]tasks.Status{
		"collect-7": {
			ID:        "collect-7",
			Kind:      tasks.KindCollectAll,
			State:     tasks.StateStarted,
			Attempts:  1,
			StartedAt: &started,
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/status/collect-7", nil)
	req = withURLParam(req, "id", "collect-7")
	w := httptest.NewRecorder()

	handler.TaskStatus(w, req)

	assertStatusCode(t, w.Code, http.StatusOK, "TaskStatus_Known")

	data := dataMap(t, decodeResponse(t, w))
	if data["task_id"] != "collect-7" {
		t.Errorf("Expected task_id collect-7, got %v", data["task_id"])
	}
	if data["state"] != tasks.StateStarted {
		t.Errorf("Expected state %s, got %v", tasks.StateStarted, data["state"])
	}
}

// Ids the status store has never seen read as pending.
func TestTaskStatus_UnknownTask(t *testing.T) {
	t.Parallel()

	handler, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/status/ghost", nil)
	req = withURLParam(req, "id", "ghost")
	w := httptest.NewRecorder()

	handler.TaskStatus(w, req)

	assertStatusCode(t, w.Code, http.StatusOK, "TaskStatus_Unknown")

	data := dataMap(t, decodeResponse(t, w))
	if data["state"] != tasks.StatePending {
		t.Errorf("Expected state %s, got %v", tasks.StatePending, data["state"])
	}
}

func TestTaskStatus_EmptyID(t *testing.T) {
	t.Parallel()

	handler, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/status/", nil)
	req = withURLParam(req, "id", "")
	w := httptest.NewRecorder()

	handler.TaskStatus(w, req)

	assertStatusCode(t, w.Code, http.StatusBadRequest, "TaskStatus_EmptyID")
	assertErrorCode(t, decodeResponse(t, w), "VALIDATION_ERROR")
}
