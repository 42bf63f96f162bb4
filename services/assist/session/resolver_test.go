// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"testing"

	"github.com/AleutianAI/AleutianAssist/services/assist/engine"
)

// =============================================================================
// Pronoun Resolution
// =============================================================================

func TestResolvePronouns_TrailingIt(t *testing.T) {
	history := []ContextEntry{
		{Intent: "open_website", Entities: map[string]string{"website": "youtube.com"}, Input: "open youtube"},
	}
	got, changed := ResolvePronouns("open it", history)
	if !changed || got != "open youtube.com" {
		t.Errorf("ResolvePronouns = (%q, %v), want open youtube.com", got, changed)
	}
}

func TestResolvePronouns_PlayItPrefersSong(t *testing.T) {
	history := []ContextEntry{
		{Intent: "open_app", Entities: map[string]string{"app": "spotify"}, Input: "open spotify"},
		{Intent: "play_music", Entities: map[string]string{"song": "bohemian rhapsody"}, Input: "play bohemian rhapsody"},
	}
	got, changed := ResolvePronouns("play it", history)
	if !changed || got != "play bohemian rhapsody" {
		t.Errorf("ResolvePronouns = (%q, %v), want the song, not the app", got, changed)
	}
}

func TestResolvePronouns_EntityPriority(t *testing.T) {
	// app outranks file within the same turn.
	history := []ContextEntry{
		{Intent: "open_app", Entities: map[string]string{"file": "notes.txt", "app": "editor"}, Input: "edit notes"},
	}
	got, changed := ResolvePronouns("open it", history)
	if !changed || got != "open editor" {
		t.Errorf("ResolvePronouns = (%q, %v), want the app by priority", got, changed)
	}
}

func TestResolvePronouns_Replay(t *testing.T) {
	history := []ContextEntry{
		{Intent: "play_music", Input: "play some jazz"},
	}
	for _, in := range []string{"again", "do it again"} {
		got, changed := ResolvePronouns(in, history)
		if !changed || got != "play some jazz" {
			t.Errorf("ResolvePronouns(%q) = (%q, %v), want replay of last input", in, got, changed)
		}
	}
}

func TestResolvePronouns_ThatOne(t *testing.T) {
	history := []ContextEntry{
		{Intent: "open_website", Entities: map[string]string{"website": "reddit.com"}, Input: "open reddit"},
	}
	got, changed := ResolvePronouns("open that one", history)
	if !changed || got != "open reddit.com" {
		t.Errorf("ResolvePronouns = (%q, %v), want open reddit.com", got, changed)
	}
}

func TestResolvePronouns_NoHistory(t *testing.T) {
	if got, changed := ResolvePronouns("open it", nil); changed || got != "open it" {
		t.Errorf("no history should leave input unchanged, got (%q, %v)", got, changed)
	}
}

func TestResolvePronouns_NoEntityInHistory(t *testing.T) {
	history := []ContextEntry{{Intent: "greeting", Input: "hello"}}
	if got, changed := ResolvePronouns("open it", history); changed || got != "open it" {
		t.Errorf("history without entities should leave input unchanged, got (%q, %v)", got, changed)
	}
}

func TestResolvePronouns_OrdinaryInputUntouched(t *testing.T) {
	history := []ContextEntry{
		{Intent: "open_website", Entities: map[string]string{"website": "youtube.com"}, Input: "open youtube"},
	}
	if got, changed := ResolvePronouns("play some music", history); changed || got != "play some music" {
		t.Errorf("ordinary input should pass through, got (%q, %v)", got, changed)
	}
}

// =============================================================================
// Follow-Up Detection
// =============================================================================

func TestDetectFollowUp_LouderAfterPlay(t *testing.T) {
	history := []ContextEntry{
		{Intent: "play_music", Input: "play music"},
	}
	in, ok := DetectFollowUp("louder", history)
	if !ok {
		t.Fatal("expected follow-up detection")
	}
	if in.Intent != "volume_up" {
		t.Errorf("intent = %q, want volume_up", in.Intent)
	}
	if in.Confidence != 0.85 {
		t.Errorf("confidence = %f, want 0.85", in.Confidence)
	}
	if in.Source != engine.SourceContext {
		t.Errorf("source = %q, want %q", in.Source, engine.SourceContext)
	}
}

func TestDetectFollowUp_RequiresQualifyingPrior(t *testing.T) {
	history := []ContextEntry{
		{Intent: "git_status", Input: "git status"},
	}
	if _, ok := DetectFollowUp("louder", history); ok {
		t.Error("louder after git_status should not be a follow-up")
	}
}

func TestDetectFollowUp_ChecksMostRecentTurnOnly(t *testing.T) {
	history := []ContextEntry{
		{Intent: "play_music", Input: "play music"},
		{Intent: "git_status", Input: "git status"},
	}
	if _, ok := DetectFollowUp("louder", history); ok {
		t.Error("the qualifying intent must be the most recent turn")
	}
}

func TestDetectFollowUp_CarriesEntitiesForward(t *testing.T) {
	history := []ContextEntry{
		{Intent: "pause_music", Entities: map[string]string{"song": "take five"}, Input: "pause"},
	}
	in, ok := DetectFollowUp("resume", history)
	if !ok || in.Intent != "play_music" {
		t.Fatalf("DetectFollowUp = (%+v, %v), want play_music", in, ok)
	}
	if in.Entities["song"] != "take five" {
		t.Errorf("entities not carried forward: %v", in.Entities)
	}
}

func TestDetectFollowUp_NoHistory(t *testing.T) {
	if _, ok := DetectFollowUp("louder", nil); ok {
		t.Error("no history should never produce a follow-up")
	}
}
