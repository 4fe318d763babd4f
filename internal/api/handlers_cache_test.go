// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/tasks"
)

func TestCacheStats_Success(t *testing.T) {
	t.Parallel()

	handler, _, cacheMgr, _ := newTestHandler()
	cacheMgr.stats = cache.ManagerStats{
		HitRatioPercent: 92.5,
		TotalHits:       185,
		TotalMisses:     15,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	w := httptest.NewRecorder()

	handler.CacheStats(w, req)

	assertStatusCode(t, w.Code, http.StatusOK, "CacheStats_Success")

	data := dataMap(t, decodeResponse(t, w))
	if ratio := data["hit_ratio_percent"].(float64); ratio != 92.5 {
		t.Errorf("Expected hit_ratio_percent 92.5, got %v", ratio)
	}
	if hits := int(data["total_hits"].(float64)); hits != 185 {
		t.Errorf("Expected total_hits 185, got %d", hits)
	}
}

func TestCachePerformance_Success(t *testing.T) {
	t.Parallel()

	handler, _, cacheMgr, _ := newTestHandler()
	cacheMgr.analytics = cache.AnalyticsReport{
		Manager: cache.ManagerStats{TotalHits: 10},
		Engine:  cache.EngineStats{TotalKeys: 120},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/performance", nil)
	w := httptest.NewRecorder()

	handler.CachePerformance(w, req)

	assertStatusCode(t, w.Code, http.StatusOK, "CachePerformance_Success")

	data := dataMap(t, decodeResponse(t, w))
	engine, ok := data["redis_stats"].(map[string]interface{})
	if !ok {
		t.Fatal("redis_stats is not a map")
	}
	if keys := int(engine["total_keys"].(float64)); keys != 120 {
		t.Errorf("Expected total_keys 120, got %d", keys)
	}
}

func TestCacheHealth_Success(t *testing.T) {
	t.Parallel()

	handler, _, cacheMgr, _ := newTestHandler()
	cacheMgr.health = cache.HealthReport{Status: "healthy", ResponseTimeMS: 1.2}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/health", nil)
	w := httptest.NewRecorder()

	handler.CacheHealth(w, req)

	assertStatusCode(t, w.Code, http.StatusOK, "CacheHealth_Success")

	data := dataMap(t, decodeResponse(t, w))
	if data["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", data["status"])
	}
}

func TestCacheWarm_EnqueuesTask(t *testing.T) {
	t.Parallel()

	handler, _, _, bus := newTestHandler()
	bus.id = "warm-42"

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/warm?layers=topic,recency", nil)
	w := httptest.NewRecorder()

	handler.CacheWarm(w, req)

	assertStatusCode(t, w.Code, http.StatusAccepted, "CacheWarm_Enqueue")

	data := dataMap(t, decodeResponse(t, w))
	if data["task_id"] != "warm-42" {
		t.Errorf("Expected task_id warm-42, got %v", data["task_id"])
	}

	layers, ok := data["layers"].([]interface{})
	if !ok {
		t.Fatal("layers is not a list")
	}
	if len(layers) != 2 || layers[0] != "topic" || layers[1] != "recency" {
		t.Errorf("Unexpected layers payload: %v", layers)
	}

	if len(bus.enqueued) != 1 {
		t.Fatalf("Expected one enqueued task, got %d", len(bus.enqueued))
	}
	if bus.enqueued[0].kind != tasks.KindWarmCache {
		t.Errorf("Expected kind %s, got %s", tasks.KindWarmCache, bus.enqueued[0].kind)
	}
	got := bus.enqueued[0].args.Layers
	if len(got) != 2 || got[0] != "topic" || got[1] != "recency" {
		t.Errorf("Unexpected task layers: %v", got)
	}
}

func TestCacheWarm_NoLayersWarmsEverything(t *testing.T) {
	t.Parallel()

	handler, _, _, bus := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/warm", nil)
	w := httptest.NewRecorder()

	handler.CacheWarm(w, req)

	assertStatusCode(t, w.Code, http.StatusAccepted, "CacheWarm_NoLayers")

	// Empty layer list still serializes as [] for clients.
	data := dataMap(t, decodeResponse(t, w))
	layers, ok := data["layers"].([]interface{})
	if !ok {
		t.Fatal("layers is not a list")
	}
	if len(layers) != 0 {
		t.Errorf("Expected empty layers, got %v", layers)
	}

	if len(bus.enqueued) != 1 || bus.enqueued[0].args.Layers != nil {
		t.Errorf("Expected one task with nil layers, got %+v", bus.enqueued)
	}
}

func TestCacheWarm_UnknownLayer(t *testing.T) {
	t.Parallel()

	handler, _, _, bus := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/warm?layers=bogus", nil)
	w := httptest.NewRecorder()

	handler.CacheWarm(w, req)

	assertStatusCode(t, w.Code, http.StatusBadRequest, "CacheWarm_UnknownLayer")
	assertErrorCode(t, decodeResponse(t, w), "VALIDATION_ERROR")

	if len(bus.enqueued) != 0 {
		t.Error("Invalid layer must not enqueue a task")
	}
}

func TestCacheWarm_PublishError(t *testing.T) {
	t.Parallel()

	handler, _, _, bus := newTestHandler()
	bus.err = errStoreDown

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/warm", nil)
	w := httptest.NewRecorder()

	handler.CacheWarm(w, req)

	assertStatusCode(t, w.Code, http.StatusInternalServerError, "CacheWarm_PublishError")
	assertErrorCode(t, decodeResponse(t, w), "TASK_PUBLISH_ERROR")
}

func TestCacheWarmSync_ReturnsReport(t *testing.T) {
	t.Parallel()

	handler, _, cacheMgr, _ := newTestHandler()
	cacheMgr.warmReport = cache.WarmReport{
		Status:            "completed",
		TopicWarming:      map[string]int{"technology": 50},
		SourcePerformance: &cache.SourceWarmReport{SourcesCached: 12},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/warm", nil)
	w := httptest.NewRecorder()

	handler.CacheWarmSync(w, req)

	assertStatusCode(t, w.Code, http.StatusOK, "CacheWarmSync")

	data := dataMap(t, decodeResponse(t, w))
	if data["status"] != "completed" {
		t.Errorf("Expected status completed, got %v", data["status"])
	}
	if cacheMgr.warmAll != 1 {
		t.Errorf("Expected one WarmAll call, got %d", cacheMgr.warmAll)
	}
}

func TestCacheInvalidate_Success(t *testing.T) {
	t.Parallel()

	handler, _, cacheMgr, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cache/invalidate/technology", nil)
	req = withURLParam(req, "topic", "technology")
	w := httptest.NewRecorder()

	handler.CacheInvalidate(w, req)

	assertStatusCode(t, w.Code, http.StatusOK, "CacheInvalidate_Success")

	data := dataMap(t, decodeResponse(t, w))
	if data["topic"] != "technology" {
		t.Errorf("Expected topic technology, got %v", data["topic"])
	}
	if data["invalidated"] != true {
		t.Errorf("Expected invalidated true, got %v", data["invalidated"])
	}

	if len(cacheMgr.invalidated) != 1 || cacheMgr.invalidated[0] != "technology" {
		t.Errorf("Unexpected invalidation calls: %v", cacheMgr.invalidated)
	}
}

// Invalidating a topic whose key was never cached reports false, not
// an error.
func TestCacheInvalidate_AbsentKey(t *testing.T) {
	t.Parallel()

	handler, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cache/invalidate/absent", nil)
	req = withURLParam(req, "topic", "absent")
	w := httptest.NewRecorder()

	handler.CacheInvalidate(w, req)

	assertStatusCode(t, w.Code, http.StatusOK, "CacheInvalidate_Absent")

	data := dataMap(t, decodeResponse(t, w))
	if data["invalidated"] != false {
		t.Errorf("Expected invalidated false, got %v", data["invalidated"])
	}
}

func TestCacheInvalidate_EmptyTopic(t *testing.T) {
	t.Parallel()

	handler, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cache/invalidate/%20", nil)
	req = withURLParam(req, "topic", "  ")
	w := httptest.NewRecorder()

	handler.CacheInvalidate(w, req)

	assertStatusCode(t, w.Code, http.StatusBadRequest, "CacheInvalidate_Empty")
	assertErrorCode(t, decodeResponse(t, w), "VALIDATION_ERROR")
}
