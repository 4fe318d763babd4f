// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/herald/internal/middleware"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router over the given handler and middleware
// factories. A nil chiMW falls back to the secure defaults.
func NewRouter(handler *Handler, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so the internal middleware package
// can sit in r.Use chains.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())      // X-Request-ID header plus logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Health endpoints get permissive rate limiting so monitoring can
	// probe frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Data endpoints under the standard per-IP limit.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.SlowRequests(middleware.DefaultSlowThreshold)))
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/articles", router.handler.Articles)
		r.Get("/articles/cached", router.handler.ArticlesCached)
		r.Get("/stats", router.handler.Stats)
		r.Get("/sources", router.handler.Sources)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", router.handler.CacheStats)
			r.Get("/performance", router.handler.CachePerformance)
			r.Get("/health", router.handler.CacheHealth)
			r.Get("/warm", router.handler.CacheWarmSync)
			r.With(router.chiMiddleware.RateLimitWrite()).Post("/warm", router.handler.CacheWarm)
			r.With(router.chiMiddleware.RateLimitWrite()).Delete("/invalidate/{topic}", router.handler.CacheInvalidate)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimitTrigger()).Get("/rss/trigger", router.handler.TriggerCollect)
			r.Get("/status/{id}", router.handler.TaskStatus)
		})
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
