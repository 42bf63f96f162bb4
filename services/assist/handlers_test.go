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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAssist/services/assist/config"
	"github.com/AleutianAI/AleutianAssist/services/assist/plugins"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(config.Default(), plugins.NopExecutor{}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Shutdown)
	return svc
}

func setupTestRouter(t *testing.T) (*gin.Engine, *Service) {
	svc := newTestService(t)
	r := gin.New()
	v1 := r.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))
	return r, svc
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// =============================================================================
// POST /v1/assist/command
// =============================================================================

func TestHandleCommand_Success(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := postJSON(t, r, "/v1/assist/command", CommandRequest{Text: "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result CommandResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.SessionID == "" {
		t.Error("a fresh session id should be generated and returned")
	}
	if result.Response == "" {
		t.Error("response must never be empty")
	}
	if len(result.Decisions) != 1 || result.Decisions[0].Intent != "greeting" {
		t.Errorf("decisions = %+v, want one greeting", result.Decisions)
	}
}

func TestHandleCommand_ReusesSessionID(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := postJSON(t, r, "/v1/assist/command", CommandRequest{Text: "hello", SessionID: "sess-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var result CommandResult
	_ = json.Unmarshal(w.Body.Bytes(), &result)
	if result.SessionID != "sess-1" {
		t.Errorf("session id = %q, want sess-1", result.SessionID)
	}
}

func TestHandleCommand_ValidationErrors(t *testing.T) {
	r, _ := setupTestRouter(t)

	tests := []struct {
		name string
		body any
		code string
	}{
		{"missing text", gin.H{}, "MISSING_TEXT"},
		{"blank text", gin.H{"text": "   "}, "BLANK_TEXT"},
		{"oversized text", gin.H{"text": strings.Repeat("a", maxCommandLength+1)}, "TEXT_TOO_LONG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/v1/assist/command", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var er ErrorResponse
			_ = json.Unmarshal(w.Body.Bytes(), &er)
			if er.Code != tt.code {
				t.Errorf("code = %q, want %q", er.Code, tt.code)
			}
		})
	}
}

func TestHandleCommand_MultiIntent(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := postJSON(t, r, "/v1/assist/command", CommandRequest{Text: "open youtube and play music"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var result CommandResult
	_ = json.Unmarshal(w.Body.Bytes(), &result)
	if len(result.Segments) != 2 {
		t.Fatalf("segments = %v, want 2", result.Segments)
	}
	if result.Decisions[0].Intent != "open_website" || result.Decisions[1].Intent != "play_music" {
		t.Errorf("decisions = %+v, want open_website then play_music", result.Decisions)
	}
}

// =============================================================================
// POST /v1/assist/interpret
// =============================================================================

func TestHandleInterpret_DoesNotTouchSessions(t *testing.T) {
	r, svc := setupTestRouter(t)

	w := postJSON(t, r, "/v1/assist/interpret", InterpretRequest{Text: "play some music"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var result InterpretResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(result.Decisions) == 0 {
		t.Fatal("interpret should return at least one decision")
	}
	if len(result.Ranking) == 0 {
		t.Error("interpret should include the semantic ranking")
	}
	if got := len(svc.Sessions()); got != 0 {
		t.Errorf("interpret created %d sessions, want 0", got)
	}
}

func TestHandleInterpret_MissingText(t *testing.T) {
	r, _ := setupTestRouter(t)
	if w := postJSON(t, r, "/v1/assist/interpret", gin.H{}); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// =============================================================================
// Session Endpoints
// =============================================================================

func TestHandleSessions_ListAndDestroy(t *testing.T) {
	r, _ := setupTestRouter(t)

	postJSON(t, r, "/v1/assist/command", CommandRequest{Text: "hello", SessionID: "sess-42"})

	req := httptest.NewRequest(http.MethodGet, "/v1/assist/sessions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "sess-42") {
		t.Errorf("session list should contain sess-42: %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/assist/sessions/sess-42", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("destroy status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/assist/sessions/sess-42", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second destroy status = %d, want 404", w.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != "SESSION_NOT_FOUND" {
		t.Errorf("code = %q, want SESSION_NOT_FOUND", er.Code)
	}
}

// =============================================================================
// Plugins, Reload, Health
// =============================================================================

func TestHandleListPlugins(t *testing.T) {
	r, _ := setupTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/assist/plugins", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "media") {
		t.Errorf("plugin list should include the media plugin: %s", w.Body.String())
	}
}

func TestHandleReload(t *testing.T) {
	r, _ := setupTestRouter(t)
	if w := postJSON(t, r, "/v1/assist/reload", gin.H{}); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestHandleHealthAndReady(t *testing.T) {
	r, _ := setupTestRouter(t)
	for _, path := range []string{"/v1/assist/health", "/v1/assist/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
	}
}
