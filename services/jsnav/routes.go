// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jsnav

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/jsnav/services/jsnav/telemetry"
)

// RegisterRoutes registers all jsnav routes with the router.
//
// Description:
//
//	Registers all /v1/jsnav/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/jsnav/locate    - Enclosing function for a position
//	POST /v1/jsnav/callgraph - Call edges touching a focus function
//	POST /v1/jsnav/batch     - Several analyses at once
//	GET  /v1/jsnav/health    - Health check
//	GET  /v1/jsnav/ready     - Readiness check
//
// Example:
//
//	svc, _ := jsnav.NewService(nil)
//	handlers := jsnav.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	jsnav.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	jsnav := rg.Group("/jsnav")
	{
		// Analyses
		jsnav.POST("/locate", handlers.HandleLocate)
		jsnav.POST("/callgraph", handlers.HandleCallGraph)
		jsnav.POST("/batch", handlers.HandleBatch)

		// Health checks
		jsnav.GET("/health", handlers.HandleHealth)
		jsnav.GET("/ready", handlers.HandleReady)
	}
}

// NewRouter builds the complete gin engine for svc: recovery, tracing,
// request IDs, rate limiting on the analysis routes, and /metrics.
func NewRouter(svc *Service, debug bool) *gin.Engine {
	cfg := svc.Config()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(RequestIDMiddleware())
	if debug {
		router.Use(gin.Logger())
	}

	router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	v1 := router.Group("/v1")
	if cfg.RateLimit.Enabled() {
		v1.Use(NewRateLimiter(cfg.RateLimit).Middleware())
	}
	RegisterRoutes(v1, NewHandlers(svc))
	return router
}
