// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/herald/internal/database"
	"github.com/tomtom215/herald/internal/models"
)

// Articles returns the filtered article list, newest first.
//
// Method: GET
// Path: /api/v1/articles
//
// Query parameters:
//   - category: primary topic filter ("all" disables the filter)
//   - search: substring match against title and content
//   - source: source name filter
//   - limit: page size, capped by config (default 50, max 200)
//   - offset: rows to skip
//
// Response:
//   - 200: models.ArticleList with total match count
//   - 400: invalid parameters
//   - 405: method not allowed
//   - 500: database error
//   - 503: database not available
//
// Article content is truncated in list payloads; the projection carries
// the first 500 characters with an ellipsis.
func (h *Handler) Articles(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireStore(w) {
		return
	}

	defaultPageSize, maxPageSize := h.pageSizeConfig()

	req := ArticlesRequest{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Source:   r.URL.Query().Get("source"),
		Limit:    getIntParam(r, "limit", defaultPageSize),
		Offset:   getIntParam(r, "offset", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if req.Limit > maxPageSize {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("limit must be between 1 and %d", maxPageSize), nil)
		return
	}

	start := time.Now()

	views, total, err := h.store.ListArticles(r.Context(), database.ArticleFilter{
		Category: req.Category,
		Search:   req.Search,
		Source:   req.Source,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list articles", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.ArticleList{
			Articles: views,
			Total:    total,
			Offset:   req.Offset,
			Limit:    req.Limit,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// ArticlesCached serves articles cache-first.
//
// Method: GET
// Path: /api/v1/articles/cached
//
// Query parameters:
//   - topic: topic layer key
//   - time_bucket: recency layer key, one of 1h, 6h, 24h
//   - limit: page size (default 50, max from config)
//
// The recency layer is probed first when time_bucket is set, then the
// topic layer. A hit hydrates the cached ID list from the store and
// reports source=cache_hit with the serving layer. A full miss falls
// through to a store query and reports source=cache_miss, layer none.
func (h *Handler) ArticlesCached(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireCache(w) || !h.requireStore(w) {
		return
	}

	defaultPageSize, maxPageSize := h.pageSizeConfig()

	req := CachedArticlesRequest{
		Topic:      r.URL.Query().Get("topic"),
		TimeBucket: r.URL.Query().Get("time_bucket"),
		Limit:      getIntParam(r, "limit", defaultPageSize),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if req.Limit > maxPageSize {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("limit must be between 1 and %d", maxPageSize), nil)
		return
	}

	start := time.Now()

	ids, layer := h.cache.ArticlesSmart(r.Context(), req.Topic, req.TimeBucket, req.Limit)
	if layer != "" {
		views, err := h.store.ArticlesByIDs(r.Context(), ids)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load cached articles", err)
			return
		}

		respondJSON(w, http.StatusOK, &models.APIResponse{
			Status: "success",
			Data: models.CachedArticleList{
				Articles:   views,
				Source:     "cache_hit",
				CacheLayer: layer,
			},
			Metadata: models.Metadata{
				Timestamp: time.Now(),
				Cached:    true,
			},
		})
		return
	}

	// Full miss: serve from the store without populating the layer;
	// the warm jobs own cache writes.
	views, _, err := h.store.ListArticles(r.Context(), database.ArticleFilter{
		Category: req.Topic,
		Limit:    req.Limit,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list articles", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.CachedArticleList{
			Articles:   views,
			Source:     "cache_miss",
			CacheLayer: "none",
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
