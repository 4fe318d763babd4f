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

// Health reports overall pipeline health: database, cache engine, and
// task broker connectivity plus process uptime.
//
// Method: GET
// Path: /api/v1/health
//
// Status is "healthy" when every configured dependency answers, and
// "degraded" otherwise. The cache and broker checks are informational
// for read traffic; only collection stops without them.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	dbConnected := h.store != nil && h.store.Ping(ctx) == nil
	cacheConnected := h.cache != nil && h.cache.Ping(ctx) == nil
	brokerConnected := h.tasks != nil && h.tasks.Healthy()

	status := "healthy"
	if !dbConnected || !cacheConnected {
		status = "degraded"
	} else if h.tasks != nil && !brokerConnected {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           "1.0.0",
		DatabaseConnected: dbConnected,
		CacheConnected:    cacheConnected,
		BrokerConnected:   brokerConnected,
		UptimeSeconds:     time.Since(h.startTime).Seconds(),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
//
// Method: GET
// Path: /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 200 only when the service can serve read traffic, which
// requires the database; the cached endpoints degrade to store reads
// when the cache engine is away, so cache and broker state is reported
// but does not gate readiness.
//
// Method: GET
// Path: /api/v1/health/ready
//
// Response:
//   - 200: ready
//   - 503: database unreachable
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	dbConnected := h.store != nil && h.store.Ping(ctx) == nil
	cacheConnected := h.cache != nil && h.cache.Ping(ctx) == nil
	brokerConnected := h.tasks != nil && h.tasks.Healthy()
	ready := dbConnected

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"cache_connected":    cacheConnected,
			"broker_connected":   brokerConnected,
			"ready_to_serve":     ready,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
