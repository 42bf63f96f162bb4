// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"context"
	"testing"

	"github.com/AleutianAI/AleutianAssist/services/assist/nlp"
)

// resolve runs text through signal extraction and the default rule set,
// the same path the service takes.
func resolve(t *testing.T, text string) (intent string, entities map[string]string, ok bool) {
	t.Helper()
	m, err := NewMatcher(DefaultRules(), nil)
	if err != nil {
		t.Fatalf("NewMatcher(DefaultRules()): %v", err)
	}
	in, ok := m.Match(context.Background(), text, nlp.Extract(text))
	return in.Intent, in.Entities, ok
}

// =============================================================================
// Ambiguity
// =============================================================================

func TestDefaultRules_BareVerbClarifies(t *testing.T) {
	for _, text := range []string{"open", "play", "delete", "help", "do it"} {
		intent, _, ok := resolve(t, text)
		if !ok || intent != "clarify_request" {
			t.Errorf("%q resolved to %q ok=%v, want clarify_request", text, intent, ok)
		}
	}
}

// =============================================================================
// Greetings
// =============================================================================

func TestDefaultRules_Greetings(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hello", "greeting"},
		{"Hey!", "greeting"},
		{"goodbye", "farewell"},
		{"thank you so much", "thanks"},
	}
	for _, tt := range tests {
		intent, _, ok := resolve(t, tt.in)
		if !ok || intent != tt.want {
			t.Errorf("%q resolved to %q ok=%v, want %q", tt.in, intent, ok, tt.want)
		}
	}
}

// =============================================================================
// Files
// =============================================================================

func TestDefaultRules_FileOperations(t *testing.T) {
	tests := []struct{ in, want string }{
		{"create a file called notes.txt", "create_file"},
		{"read the file notes.txt", "read_file"},
		{"list my files", "list_files"},
		{"delete the file notes.txt", "delete_file"},
	}
	for _, tt := range tests {
		intent, _, ok := resolve(t, tt.in)
		if !ok || intent != tt.want {
			t.Errorf("%q resolved to %q ok=%v, want %q", tt.in, intent, ok, tt.want)
		}
	}
}

func TestDefaultRules_OpenFilenameReadsFile(t *testing.T) {
	intent, entities, ok := resolve(t, "open notes.txt")
	if !ok || intent != "read_file" {
		t.Fatalf("resolved to %q ok=%v, want read_file", intent, ok)
	}
	if entities["file"] != "notes.txt" {
		t.Errorf("file entity = %q, want notes.txt", entities["file"])
	}
}

func TestDefaultRules_DeleteWithoutFileDeclines(t *testing.T) {
	// No file entity: the rule layer declines and leaves this to the
	// statistical layers.
	if intent, _, ok := resolve(t, "delete everything in there"); ok {
		t.Errorf("delete without a file entity matched %q, want a miss", intent)
	}
}

// =============================================================================
// Media & Websites
// =============================================================================

func TestDefaultRules_WebsiteVersusApp(t *testing.T) {
	intent, entities, ok := resolve(t, "open youtube")
	if !ok || intent != "open_website" {
		t.Fatalf("resolved to %q ok=%v, want open_website", intent, ok)
	}
	if entities["website"] != "youtube.com" {
		t.Errorf("website = %q, want youtube.com", entities["website"])
	}

	intent, entities, ok = resolve(t, "open the terminal")
	if !ok || intent != "open_app" {
		t.Fatalf("resolved to %q ok=%v, want open_app", intent, ok)
	}
	if entities["app"] != "terminal" {
		t.Errorf("app = %q, want terminal", entities["app"])
	}
}

func TestDefaultRules_Media(t *testing.T) {
	tests := []struct{ in, want string }{
		{"play some jazz", "play_music"},
		{"pause the music", "pause_music"},
		{"volume up", "volume_up"},
		{"turn the volume down", "volume_down"},
	}
	for _, tt := range tests {
		intent, _, ok := resolve(t, tt.in)
		if !ok || intent != tt.want {
			t.Errorf("%q resolved to %q ok=%v, want %q", tt.in, intent, ok, tt.want)
		}
	}
}

func TestDefaultRules_PlayCarriesSongEntity(t *testing.T) {
	_, entities, ok := resolve(t, "play some jazz")
	if !ok || entities["song"] != "jazz" {
		t.Errorf("song entity = %q ok=%v, want jazz", entities["song"], ok)
	}
}

// =============================================================================
// Developer Tools
// =============================================================================

func TestDefaultRules_GitForcePushOutranksPush(t *testing.T) {
	for _, text := range []string{
		"force push my changes",
		"git push --force",
		"force-push to main",
	} {
		intent, _, ok := resolve(t, text)
		if !ok || intent != "git_force_push" {
			t.Errorf("%q resolved to %q ok=%v, want git_force_push", text, intent, ok)
		}
	}

	intent, _, ok := resolve(t, "push my changes")
	if !ok || intent != "git_push" {
		t.Errorf("plain push resolved to %q ok=%v, want git_push", intent, ok)
	}
}

func TestDefaultRules_GitStatus(t *testing.T) {
	for _, text := range []string{"git status", "whats the git status"} {
		intent, _, ok := resolve(t, text)
		if !ok || intent != "git_status" {
			t.Errorf("%q resolved to %q ok=%v, want git_status", text, intent, ok)
		}
	}
}

// =============================================================================
// System Control
// =============================================================================

func TestDefaultRules_System(t *testing.T) {
	tests := []struct{ in, want string }{
		{"take a screenshot", "screenshot"},
		{"lock the screen", "lock_screen"},
		{"shut down the computer", "shutdown"},
		{"reboot the machine", "restart"},
	}
	for _, tt := range tests {
		intent, _, ok := resolve(t, tt.in)
		if !ok || intent != tt.want {
			t.Errorf("%q resolved to %q ok=%v, want %q", tt.in, intent, ok, tt.want)
		}
	}
}
