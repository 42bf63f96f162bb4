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
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxCommandLength bounds utterance size; commands are spoken-length,
// not documents.
const maxCommandLength = 1024

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// getOrCreateRequestID returns the inbound X-Request-ID or mints one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// Handlers holds the HTTP handlers for the assist service.
type Handlers struct {
	service *Service
}

// NewHandlers creates the handler set.
//
// Inputs:
//
//	service - The assist service. Must not be nil.
//
// Outputs:
//
//	*Handlers - The constructed handlers. Never nil.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// CommandRequest is the body of POST /v1/assist/command.
type CommandRequest struct {
	// Text is the raw utterance. Required.
	Text string `json:"text" binding:"required"`

	// SessionID keys the conversational session. Optional; a fresh
	// session is created when absent and returned in the response.
	SessionID string `json:"session_id"`
}

// HandleCommand handles POST /v1/assist/command.
//
// Description:
//
//	Runs one utterance through the full engine: confirmation state,
//	context resolution, segmentation, interpretation, and skill
//	execution. The response always carries a user-facing string; engine
//	internals never surface as HTTP errors.
//
// Response:
//
//	200 OK: CommandResult
//	400 Bad Request: Missing or oversized text
//
// Thread Safety: Safe for concurrent use.
func (h *Handlers) HandleCommand(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCommand")

	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "text is required",
			Code:  "MISSING_TEXT",
		})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "text must not be blank",
			Code:  "BLANK_TEXT",
		})
		return
	}
	if len(req.Text) > maxCommandLength {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "text exceeds maximum command length",
			Code:  "TEXT_TOO_LONG",
		})
		return
	}

	result := h.service.HandleCommand(c.Request.Context(), req.Text, req.SessionID)
	logger.Debug("command handled",
		slog.String("session", result.SessionID),
		slog.Int("segments", len(result.Segments)),
	)
	c.JSON(http.StatusOK, result)
}

// InterpretRequest is the body of POST /v1/assist/interpret.
type InterpretRequest struct {
	Text string `json:"text" binding:"required"`
}

// HandleInterpret handles POST /v1/assist/interpret.
//
// Description:
//
//	Debugging endpoint: interprets without executing and includes the
//	semantic layer's full candidate ranking, threshold ignored.
//
// Response:
//
//	200 OK: InterpretResult
//	400 Bad Request: Missing text
func (h *Handlers) HandleInterpret(c *gin.Context) {
	var req InterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "text is required",
			Code:  "MISSING_TEXT",
		})
		return
	}
	c.JSON(http.StatusOK, h.service.Interpret(c.Request.Context(), req.Text))
}

// HandleListSessions handles GET /v1/assist/sessions.
func (h *Handlers) HandleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.service.Sessions()})
}

// HandleDestroySession handles DELETE /v1/assist/sessions/:id.
//
// Response:
//
//	200 OK: {"destroyed": true}
//	404 Not Found: Unknown session id
func (h *Handlers) HandleDestroySession(c *gin.Context) {
	id := c.Param("id")
	if !h.service.DestroySession(id) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "session not found",
			Code:  "SESSION_NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"destroyed": true})
}

// HandleListPlugins handles GET /v1/assist/plugins.
func (h *Handlers) HandleListPlugins(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plugins": h.service.Plugins()})
}

// HandleReload handles POST /v1/assist/reload.
//
// Description:
//
//	Rebuilds the semantic and classifier layers from their artifacts
//	and swaps the pipeline. Always returns 200; a failed artifact load
//	disables the affected layer, exactly as at startup.
func (h *Handlers) HandleReload(c *gin.Context) {
	h.service.Reload(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"reloaded": true})
}

// HandleHealth handles GET /v1/assist/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int(h.service.Uptime().Seconds()),
	})
}

// HandleReady handles GET /v1/assist/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
