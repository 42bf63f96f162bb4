// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package plugins

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianAssist/services/assist/config"
	"github.com/AleutianAI/AleutianAssist/services/assist/engine"
	"github.com/AleutianAI/AleutianAssist/services/assist/session"
)

type routerFixture struct {
	router *Router
	store  *session.Store
	clock  *fakeClock
	calls  []string
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		clock: &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.store = session.NewStore(config.Default().Session, nil, session.WithClock(f.clock.now))

	registry := NewRegistry(nil)
	record := func(name, resp string) Handler {
		return func(context.Context, Invocation) (string, error) {
			f.calls = append(f.calls, name)
			return resp, nil
		}
	}
	err := registry.Register(Plugin{
		Name: "test",
		Intents: map[string]IntentSpec{
			"delete_file": {Handler: record("delete_file", "Deleted."), Confidence: 0.9},
			"greeting":    {Handler: record("greeting", "Hello!"), Confidence: 0.9},
			"explode": {
				Confidence: 0.9,
				Handler: func(context.Context, Invocation) (string, error) {
					panic("boom")
				},
			},
			"fail": {
				Confidence: 0.9,
				Handler: func(context.Context, Invocation) (string, error) {
					return "", errors.New("backend down")
				},
			},
			"careful": {
				Confidence:           0.9,
				RequiresConfirmation: true,
				Handler:              record("careful", "Done carefully."),
			},
		},
	})
	if err != nil {
		t.Fatalf("fixture registration failed: %v", err)
	}

	f.router = NewRouter(registry, f.store, nil)
	return f
}

// =============================================================================
// Execution
// =============================================================================

func TestExecute_InvokesHandler(t *testing.T) {
	f := newRouterFixture(t)
	resp := f.router.Execute(context.Background(),
		engine.Decision{Kind: engine.Execute, Intent: "greeting"}, "hi", "s1")
	if resp != "Hello!" {
		t.Errorf("response = %q, want Hello!", resp)
	}
	if len(f.calls) != 1 || f.calls[0] != "greeting" {
		t.Errorf("calls = %v", f.calls)
	}
}

func TestExecute_MissingPluginFallback(t *testing.T) {
	f := newRouterFixture(t)
	resp := f.router.Execute(context.Background(),
		engine.Decision{Kind: engine.Execute, Intent: "teleport"}, "teleport me", "s1")
	if resp == "" || resp == "Hello!" {
		t.Errorf("expected a plugin-not-found fallback, got %q", resp)
	}
}

func TestExecute_HandlerPanicBecomesApology(t *testing.T) {
	f := newRouterFixture(t)
	resp := f.router.Execute(context.Background(),
		engine.Decision{Kind: engine.Execute, Intent: "explode"}, "explode", "s1")
	if resp != respHandlerFailed {
		t.Errorf("response = %q, want the apology", resp)
	}
}

func TestExecute_HandlerErrorBecomesApology(t *testing.T) {
	f := newRouterFixture(t)
	resp := f.router.Execute(context.Background(),
		engine.Decision{Kind: engine.Execute, Intent: "fail"}, "fail", "s1")
	if resp != respHandlerFailed {
		t.Errorf("response = %q, want the apology", resp)
	}
}

func TestExecute_UnknownFallback(t *testing.T) {
	f := newRouterFixture(t)
	resp := f.router.Execute(context.Background(),
		engine.Decision{Kind: engine.Unknown}, "gibberish", "s1")
	if resp != respUnknown {
		t.Errorf("response = %q, want the unknown fallback", resp)
	}
}

// =============================================================================
// Confirmation State Machine
// =============================================================================

func TestConfirm_YesExecutesAndClears(t *testing.T) {
	f := newRouterFixture(t)
	dec := engine.Decision{
		Kind:     engine.Confirm,
		Intent:   "delete_file",
		Entities: map[string]string{"file": "notes.txt"},
		Prompt:   "Did you want me to delete notes.txt?",
	}
	resp := f.router.Execute(context.Background(), dec, "delete notes", "s1")
	if resp != dec.Prompt {
		t.Fatalf("confirm response = %q, want the prompt", resp)
	}
	if len(f.calls) != 0 {
		t.Fatal("handler must not run before confirmation")
	}

	resp, handled := f.router.RespondToPending(context.Background(), "yes", "s1")
	if !handled || resp != "Deleted." {
		t.Errorf("RespondToPending = (%q, %v), want Deleted.", resp, handled)
	}
	if f.store.HasPending("s1") {
		t.Error("slot should be cleared after confirmation")
	}
}

func TestConfirm_NoCancelsAndClears(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Execute(context.Background(),
		engine.Decision{Kind: engine.Confirm, Intent: "delete_file", Prompt: "Sure?"},
		"delete notes", "s1")

	resp, handled := f.router.RespondToPending(context.Background(), "no", "s1")
	if !handled || resp != respCancelled {
		t.Errorf("RespondToPending = (%q, %v), want cancellation", resp, handled)
	}
	if len(f.calls) != 0 {
		t.Error("handler must not run on cancellation")
	}
	if f.store.HasPending("s1") {
		t.Error("slot should be cleared after cancellation")
	}
}

func TestConfirm_ExpiredSlotMakesYesOrdinaryInput(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Execute(context.Background(),
		engine.Decision{Kind: engine.Confirm, Intent: "delete_file", Prompt: "Sure?"},
		"delete notes", "s1")

	f.clock.advance(31 * time.Second)
	if _, handled := f.router.RespondToPending(context.Background(), "yes", "s1"); handled {
		t.Error("an expired slot must not consume the turn")
	}
	if len(f.calls) != 0 {
		t.Error("expired confirmation must not execute")
	}
}

func TestClarify_AlsoStoresPending(t *testing.T) {
	f := newRouterFixture(t)
	f.router.Execute(context.Background(),
		engine.Decision{Kind: engine.Clarify, Intent: "greeting", Prompt: "Did you mean hello?"},
		"hullo", "s1")

	resp, handled := f.router.RespondToPending(context.Background(), "yeah", "s1")
	if !handled || resp != "Hello!" {
		t.Errorf("RespondToPending = (%q, %v), want Hello!", resp, handled)
	}
}

func TestExecute_RequiresConfirmationForcesRoundTrip(t *testing.T) {
	f := newRouterFixture(t)
	resp := f.router.Execute(context.Background(),
		engine.Decision{Kind: engine.Execute, Intent: "careful", Prompt: ""},
		"be careful", "s1")
	if len(f.calls) != 0 {
		t.Fatal("RequiresConfirmation handler must not run immediately")
	}
	if resp == "" {
		t.Fatal("expected a confirmation prompt")
	}

	got, handled := f.router.RespondToPending(context.Background(), "ok", "s1")
	if !handled || got != "Done carefully." {
		t.Errorf("RespondToPending = (%q, %v), want Done carefully.", got, handled)
	}
}

func TestRespondToPending_NothingPending(t *testing.T) {
	f := newRouterFixture(t)
	if _, handled := f.router.RespondToPending(context.Background(), "yes", "s1"); handled {
		t.Error("no pending slot should mean the turn is not consumed")
	}
}
