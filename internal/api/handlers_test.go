// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/database"
	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/tasks"
)

// fakeStore implements ArticleStore in memory and records the filters
// it was queried with.
type fakeStore struct {
	mu      sync.Mutex
	views   []models.ArticleView
	total   int
	sources []models.Source

	topicCounts  []database.TopicCount
	sourceCounts []database.SourceCount
	recentCount  int

	listErr  error
	byIDsErr error
	countErr error
	pingErr  error

	filters    []database.ArticleFilter
	byIDsCalls [][]int64
}

func (f *fakeStore) ListArticles(_ context.Context, filter database.ArticleFilter) ([]models.ArticleView, int, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.views, f.total, nil
}

func (f *fakeStore) ArticlesByIDs(_ context.Context, ids []int64) ([]models.ArticleView, error) {
	f.mu.Lock()
	f.byIDsCalls = append(f.byIDsCalls, ids)
	f.mu.Unlock()
	if f.byIDsErr != nil {
		return nil, f.byIDsErr
	}
	return f.views, nil
}

func (f *fakeStore) CountArticles(context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}

func (f *fakeStore) RecentArticleCount(context.Context, time.Time) (int, error) {
	return f.recentCount, nil
}

func (f *fakeStore) TopicCounts(context.Context) ([]database.TopicCount, error) {
	return f.topicCounts, nil
}

func (f *fakeStore) TopSourceCounts(_ context.Context, limit int) ([]database.SourceCount, error) {
	if limit < len(f.sourceCounts) {
		return f.sourceCounts[:limit], nil
	}
	return f.sourceCounts, nil
}

func (f *fakeStore) ListSources(context.Context) ([]models.Source, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sources, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) lastFilter(t *testing.T) database.ArticleFilter {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.filters) == 0 {
		t.Fatal("store was never queried")
	}
	return f.filters[len(f.filters)-1]
}

// fakeCacheManager implements CacheManager with canned reports.
type fakeCacheManager struct {
	mu          sync.Mutex
	ids         []int64
	layer       string
	warmReport  cache.WarmReport
	health      cache.HealthReport
	stats       cache.ManagerStats
	analytics   cache.AnalyticsReport
	pingErr     error
	invalidated []string
	warmAll     int
	smartCalls  []smartCall
}

type smartCall struct {
	topic  string
	bucket string
	limit  int
}

func (f *fakeCacheManager) Stats() cache.ManagerStats { return f.stats }

func (f *fakeCacheManager) Analytics(context.Context) cache.AnalyticsReport { return f.analytics }

func (f *fakeCacheManager) Health(context.Context) cache.HealthReport { return f.health }

func (f *fakeCacheManager) Ping(context.Context) error { return f.pingErr }

func (f *fakeCacheManager) WarmAll(context.Context) cache.WarmReport {
	f.mu.Lock()
	f.warmAll++
	f.mu.Unlock()
	return f.warmReport
}

func (f *fakeCacheManager) WarmLayers(_ context.Context, _ []string) cache.WarmReport {
	return f.warmReport
}

func (f *fakeCacheManager) InvalidateTopic(_ context.Context, topic string) bool {
	f.mu.Lock()
	f.invalidated = append(f.invalidated, topic)
	f.mu.Unlock()
	return topic != "absent"
}

func (f *fakeCacheManager) ArticlesSmart(_ context.Context, topic, bucket string, limit int) ([]int64, string) {
	f.mu.Lock()
	f.smartCalls = append(f.smartCalls, smartCall{topic: topic, bucket: bucket, limit: limit})
	f.mu.Unlock()
	return f.ids, f.layer
}

// fakeTaskBus implements TaskBus, recording enqueued kinds.
type fakeTaskBus struct {
	mu       sync.Mutex
	id       string
	err      error
	healthy  bool
	statuses map[string]tasks.Status
	enqueued []enqueuedTask
}

type enqueuedTask struct {
	kind string
	args tasks.Args
}

func (f *fakeTaskBus) Enqueue(_ context.Context, kind string, args tasks.Args) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	f.enqueued = append(f.enqueued, enqueuedTask{kind: kind, args: args})
	f.mu.Unlock()
	return f.id, nil
}

func (f *fakeTaskBus) TaskStatus(_ context.Context, id string) tasks.Status {
	if s, ok := f.statuses[id]; ok {
		return s
	}
	return tasks.Status{ID: id, State: tasks.StatePending}
}

func (f *fakeTaskBus) Healthy() bool { return f.healthy }

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     200,
		},
	}
}

func newTestHandler() (*Handler, *fakeStore, *fakeCacheManager, *fakeTaskBus) {
	store := &fakeStore{}
	cacheMgr := &fakeCacheManager{}
	bus := &fakeTaskBus{id: "task-1", healthy: true}
	return NewHandler(store, cacheMgr, bus, testConfig()), store, cacheMgr, bus
}

// decodeResponse decodes the standard envelope from a recorder.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

// dataMap extracts the Data payload as a generic map.
func dataMap(t *testing.T, resp models.APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Response data is not a map: %T", resp.Data)
	}
	return m
}

// withURLParam injects a chi route parameter so handlers can be called
// without the full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func assertStatusCode(t *testing.T, got, want int, name string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected status %d, got %d", name, want, got)
	}
}

func assertErrorCode(t *testing.T, resp models.APIResponse, code string) {
	t.Helper()
	if resp.Status != "error" {
		t.Fatalf("Expected status 'error', got '%s'", resp.Status)
	}
	if resp.Error == nil {
		t.Fatal("Expected error payload, got nil")
	}
	if resp.Error.Code != code {
		t.Errorf("Expected error code %s, got %s", code, resp.Error.Code)
	}
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	handler, _, _, _ := newTestHandler()

	if handler == nil {
		t.Fatal("NewHandler returned nil")
	}
	if handler.startTime.IsZero() {
		t.Error("Expected start time to be set")
	}
}

func TestNewHandler_NilDependencies(t *testing.T) {
	t.Parallel()

	handler := NewHandler(nil, nil, nil, nil)
	if handler == nil {
		t.Fatal("NewHandler returned nil")
	}

	defaultPage, maxPage := handler.pageSizeConfig()
	if defaultPage != 50 || maxPage != 200 {
		t.Errorf("Expected fallback page sizes 50/200, got %d/%d", defaultPage, maxPage)
	}
}

// Endpoints whose dependency is nil answer 503, not panic.
func TestHandlers_MissingDependencies(t *testing.T) {
	t.Parallel()

	handler := NewHandler(nil, nil, nil, testConfig())

	tests := []struct {
		name   string
		method string
		target string
		call   http.HandlerFunc
	}{
		{"articles without store", http.MethodGet, "/api/v1/articles", handler.Articles},
		{"cached without cache", http.MethodGet, "/api/v1/articles/cached", handler.ArticlesCached},
		{"stats without store", http.MethodGet, "/api/v1/stats", handler.Stats},
		{"sources without store", http.MethodGet, "/api/v1/sources", handler.Sources},
		{"cache stats without cache", http.MethodGet, "/api/v1/cache/stats", handler.CacheStats},
		{"warm without tasks", http.MethodPost, "/api/v1/cache/warm", handler.CacheWarm},
		{"trigger without tasks", http.MethodGet, "/api/v1/tasks/rss/trigger", handler.TriggerCollect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.target, nil)
			w := httptest.NewRecorder()

			tt.call(w, req)

			assertStatusCode(t, w.Code, http.StatusServiceUnavailable, tt.name)
			assertErrorCode(t, decodeResponse(t, w), "SERVICE_ERROR")
		})
	}
}

func TestHandlers_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	handler, _, _, _ := newTestHandler()

	tests := []struct {
		name   string
		method string
		call   http.HandlerFunc
	}{
		{"articles POST", http.MethodPost, handler.Articles},
		{"stats DELETE", http.MethodDelete, handler.Stats},
		{"warm GET on async endpoint", http.MethodGet, handler.CacheWarm},
		{"invalidate GET", http.MethodGet, handler.CacheInvalidate},
		{"health POST", http.MethodPost, handler.Health},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/any", nil)
			w := httptest.NewRecorder()

			tt.call(w, req)

			assertStatusCode(t, w.Code, http.StatusMethodNotAllowed, tt.name)
		})
	}
}

var errStoreDown = errors.New("connection refused")
