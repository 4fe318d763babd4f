// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/config"
	"github.com/tomtom215/herald/internal/database"
	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/tasks"
)

// ArticleStore is the persistence surface the handlers read from.
// database.Store satisfies it.
type ArticleStore interface {
	ListArticles(ctx context.Context, f database.ArticleFilter) ([]models.ArticleView, int, error)
	ArticlesByIDs(ctx context.Context, ids []int64) ([]models.ArticleView, error)
	CountArticles(ctx context.Context) (int, error)
	RecentArticleCount(ctx context.Context, since time.Time) (int, error)
	TopicCounts(ctx context.Context) ([]database.TopicCount, error)
	TopSourceCounts(ctx context.Context, limit int) ([]database.SourceCount, error)
	ListSources(ctx context.Context) ([]models.Source, error)
	Ping(ctx context.Context) error
}

// CacheManager is the cache surface behind the /cache endpoints and the
// cache-first article reads. cache.Manager satisfies it.
type CacheManager interface {
	Stats() cache.ManagerStats
	Analytics(ctx context.Context) cache.AnalyticsReport
	Health(ctx context.Context) cache.HealthReport
	Ping(ctx context.Context) error
	WarmAll(ctx context.Context) cache.WarmReport
	WarmLayers(ctx context.Context, layers []string) cache.WarmReport
	InvalidateTopic(ctx context.Context, topic string) bool
	ArticlesSmart(ctx context.Context, topic, bucket string, limit int) ([]int64, string)
}

// TaskBus enqueues background work and reports task state.
// tasks.Service satisfies it.
type TaskBus interface {
	Enqueue(ctx context.Context, kind string, args tasks.Args) (string, error)
	TaskStatus(ctx context.Context, id string) tasks.Status
	Healthy() bool
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, guards (this file)
//   - handlers_helpers.go: shared response and parsing helpers
//   - handlers_articles.go: article listing endpoints
//   - handlers_stats.go: dashboard statistics and source roster
//   - handlers_cache.go: cache stats, warming, and invalidation
//   - handlers_tasks.go: task trigger and status endpoints
//   - handlers_health.go: health and probe endpoints
type Handler struct {
	store     ArticleStore
	cache     CacheManager
	tasks     TaskBus
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a new API handler. Any dependency may be nil; the
// per-endpoint guards answer 503 for surfaces whose dependency is down
// rather than failing at construction, so a partially degraded process
// keeps serving what it can.
func NewHandler(store ArticleStore, cacheMgr CacheManager, taskBus TaskBus, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		cache:     cacheMgr,
		tasks:     taskBus,
		config:    cfg,
		startTime: time.Now(),
	}
}

// requireMethod validates the HTTP method and returns true if valid,
// false if an error response was already sent.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return false
	}
	return true
}

// requireStore checks database availability and returns true if
// available, false if an error response was already sent.
func (h *Handler) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Database not available", nil)
		return false
	}
	return true
}

// requireCache checks cache manager availability.
func (h *Handler) requireCache(w http.ResponseWriter) bool {
	if h.cache == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Cache not available", nil)
		return false
	}
	return true
}

// requireTasks checks task bus availability.
func (h *Handler) requireTasks(w http.ResponseWriter) bool {
	if h.tasks == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Task queue not available", nil)
		return false
	}
	return true
}

// pageSizeConfig returns page size configuration with safe defaults.
func (h *Handler) pageSizeConfig() (defaultPageSize, maxPageSize int) {
	defaultPageSize, maxPageSize = 50, 200
	if h.config != nil {
		defaultPageSize = h.config.API.DefaultPageSize
		maxPageSize = h.config.API.MaxPageSize
	}
	return defaultPageSize, maxPageSize
}
