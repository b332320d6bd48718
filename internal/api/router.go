// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package api is the HTTP read surface of Auditrail, routed with chi.
//
//	GET /api/v1/health/live
//	GET /api/v1/health/ready
//	GET /metrics
//	GET /api/v1/alerts
//	GET /api/v1/alerts/disabled
//	PUT /api/v1/alerts/disabled   (admin, mounted with WithAdminAuth)
//	GET /api/v1/occurrences
//	GET /api/v1/occurrences/{id}
//	GET /swagger/*
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/auditrail/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
	admin   func(http.Handler) http.Handler
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithAdminAuth mounts the mutating endpoints behind admin. Without it they
// are not routed.
func WithAdminAuth(admin func(http.Handler) http.Handler) RouterOption {
	return func(r *Router) { r.admin = admin }
}

// NewRouter creates a router.
func NewRouter(handler *Handler, mw *ChiMiddleware, opts ...RouterOption) *Router {
	if mw == nil {
		mw = NewChiMiddleware(DefaultMiddlewareConfig())
	}
	router := &Router{handler: handler, mw: mw}
	for _, opt := range opts {
		opt(router)
	}
	return router
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestInfo)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.mw.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.mw.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/alerts", router.handler.Alerts)
		r.Get("/alerts/disabled", router.handler.GetDisabled)
		if router.admin != nil {
			r.With(router.admin).Put("/alerts/disabled", router.handler.PutDisabled)
		}

		r.Get("/occurrences", router.handler.Occurrences)
		r.Get("/occurrences/{id}", router.handler.Occurrence)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
