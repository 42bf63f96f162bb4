// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianAssist/services/assist/config"
)

func newTestDecider() *Decider {
	return NewDecider(config.Default())
}

func interp(intent string, conf float64, source Source) *Interpretation {
	return &Interpretation{Intent: intent, Confidence: conf, Source: source}
}

// =============================================================================
// Layer Priority
// =============================================================================

func TestDecide_RuleAlwaysWins(t *testing.T) {
	d := newTestDecider()
	dec := d.Decide(
		interp("greeting", 1.0, SourceRules),
		interp("open_website", 0.99, SourceSemantic),
		interp("play_music", 0.99, SourceClassifier),
	)
	if dec.Intent != "greeting" || dec.Source != SourceRules {
		t.Errorf("rule should win outright, got %q from %q", dec.Intent, dec.Source)
	}
	if dec.Kind != Execute {
		t.Errorf("kind = %v, want Execute", dec.Kind)
	}
}

func TestDecide_SemanticPreferredWithinMargin(t *testing.T) {
	d := newTestDecider()
	// Classifier is higher, but within the 0.10 margin.
	dec := d.Decide(nil,
		interp("open_website", 0.82, SourceSemantic),
		interp("play_music", 0.88, SourceClassifier),
	)
	if dec.Intent != "open_website" || dec.Source != SourceSemantic {
		t.Errorf("semantic within margin should win, got %q from %q", dec.Intent, dec.Source)
	}
}

func TestDecide_ClassifierWinsOutsideMargin(t *testing.T) {
	d := newTestDecider()
	dec := d.Decide(nil,
		interp("open_website", 0.60, SourceSemantic),
		interp("play_music", 0.85, SourceClassifier),
	)
	if dec.Intent != "play_music" || dec.Source != SourceClassifier {
		t.Errorf("classifier outside margin should win, got %q from %q", dec.Intent, dec.Source)
	}
}

func TestDecide_SingleLayer(t *testing.T) {
	d := newTestDecider()
	if dec := d.Decide(nil, interp("open_website", 0.9, SourceSemantic), nil); dec.Intent != "open_website" {
		t.Errorf("lone semantic candidate should win, got %q", dec.Intent)
	}
	if dec := d.Decide(nil, nil, interp("play_music", 0.9, SourceClassifier)); dec.Intent != "play_music" {
		t.Errorf("lone classifier candidate should win, got %q", dec.Intent)
	}
}

func TestDecide_NoCandidates(t *testing.T) {
	d := newTestDecider()
	dec := d.Decide(nil, nil, nil)
	if dec.Kind != Unknown {
		t.Errorf("kind = %v, want Unknown", dec.Kind)
	}
	if dec.Reason == "" {
		t.Error("a decision always carries a reason")
	}
}

// =============================================================================
// Confidence Bands
// =============================================================================

func TestDecide_Bands(t *testing.T) {
	d := newTestDecider()
	tests := []struct {
		conf float64
		want DecisionKind
	}{
		{0.95, Execute},
		{0.80, Execute},
		{0.79, Confirm},
		{0.55, Confirm},
		{0.54, Clarify},
		{0.35, Clarify},
		{0.34, Unknown},
		{0.01, Unknown},
	}
	for _, tt := range tests {
		dec := d.Decide(nil, interp("open_website", tt.conf, SourceSemantic), nil)
		if dec.Kind != tt.want {
			t.Errorf("confidence %.2f banded to %v, want %v", tt.conf, dec.Kind, tt.want)
		}
	}
}

func TestDecide_PromptsForConfirmAndClarify(t *testing.T) {
	d := newTestDecider()
	in := &Interpretation{
		Intent:     "open_website",
		Confidence: 0.70,
		Source:     SourceSemantic,
		Entities:   map[string]string{"website": "youtube.com"},
	}
	dec := d.Decide(nil, in, nil)
	if dec.Kind != Confirm {
		t.Fatalf("kind = %v, want Confirm", dec.Kind)
	}
	if !strings.Contains(dec.Prompt, "open website youtube.com") {
		t.Errorf("prompt should describe the action, got %q", dec.Prompt)
	}

	in.Confidence = 0.40
	dec = d.Decide(nil, in, nil)
	if dec.Kind != Clarify || dec.Prompt == "" {
		t.Errorf("clarify decision should carry a prompt, got %+v", dec)
	}
}

// =============================================================================
// Destructive Floor
// =============================================================================

func TestDecide_DestructiveFloor(t *testing.T) {
	d := newTestDecider()
	tests := []struct {
		conf float64
		want DecisionKind
	}{
		{0.96, Execute},
		{0.95, Execute},
		{0.94, Confirm}, // execute band, below the destructive floor
		{0.85, Confirm},
		{0.60, Confirm},
		{0.40, Clarify},
	}
	for _, tt := range tests {
		dec := d.Decide(nil, nil, interp("delete_file", tt.conf, SourceClassifier))
		if dec.Kind != tt.want {
			t.Errorf("delete_file at %.2f banded to %v, want %v", tt.conf, dec.Kind, tt.want)
		}
		if dec.Kind == Execute && tt.conf < 0.95 {
			t.Errorf("destructive intent executed below the floor at %.2f", tt.conf)
		}
	}
}

func TestDecide_NonDestructiveUnaffectedByFloor(t *testing.T) {
	d := newTestDecider()
	dec := d.Decide(nil, interp("open_website", 0.85, SourceSemantic), nil)
	if dec.Kind != Execute {
		t.Errorf("ordinary intent at 0.85 should execute, got %v", dec.Kind)
	}
}

func TestIsDestructive(t *testing.T) {
	d := newTestDecider()
	for _, intent := range []string{"delete_file", "shutdown", "restart", "git_force_push"} {
		if !d.IsDestructive(intent) {
			t.Errorf("%q should be destructive", intent)
		}
	}
	if d.IsDestructive("open_website") {
		t.Error("open_website should not be destructive")
	}
}

// =============================================================================
// Direct Banding
// =============================================================================

func TestBand_AppliesSameRules(t *testing.T) {
	d := newTestDecider()
	dec := d.Band(Interpretation{
		Intent:     "volume_up",
		Confidence: 0.85,
		Source:     SourceContext,
	}, "follow-up")
	if dec.Kind != Execute || dec.Source != SourceContext {
		t.Errorf("Band = %+v, want Execute from context", dec)
	}

	dec = d.Band(Interpretation{
		Intent:     "delete_file",
		Confidence: 0.85,
		Source:     SourceContext,
	}, "follow-up")
	if dec.Kind != Confirm {
		t.Errorf("destructive floor must apply to banded candidates, got %v", dec.Kind)
	}
}
