// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assist

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all Assist routes with the router.
//
// Description:
//
//	Registers all /v1/assist/* endpoints with the given Gin router
//	group. The router group should already have any required middleware
//	applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/assist/command - Resolve and execute one utterance
//	POST /v1/assist/interpret - Interpret without executing (debug)
//	GET  /v1/assist/sessions - List resident sessions
//	DELETE /v1/assist/sessions/:id - Destroy a session
//	GET  /v1/assist/plugins - List registered plugins
//	POST /v1/assist/reload - Reload semantic/classifier artifacts
//	GET  /v1/assist/health - Health check
//	GET  /v1/assist/ready - Readiness check
//
// Example:
//
//	cfg := config.LoadDefault()
//	svc, _ := assist.NewService(cfg, plugins.NopExecutor{}, slog.Default())
//	handlers := assist.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	assist.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	assist := rg.Group("/assist")
	{
		// Command flow
		assist.POST("/command", handlers.HandleCommand)
		assist.POST("/interpret", handlers.HandleInterpret)

		// Session management
		assist.GET("/sessions", handlers.HandleListSessions)
		assist.DELETE("/sessions/:id", handlers.HandleDestroySession)

		// Plugin inventory and artifact lifecycle
		assist.GET("/plugins", handlers.HandleListPlugins)
		assist.POST("/reload", handlers.HandleReload)

		// Health checks
		assist.GET("/health", handlers.HandleHealth)
		assist.GET("/ready", handlers.HandleReady)
	}
}
