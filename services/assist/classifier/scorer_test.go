// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classifier

import (
	"context"
	"testing"

	"github.com/AleutianAI/AleutianAssist/services/assist/engine"
)

// =============================================================================
// Model Validation
// =============================================================================

func TestDefaultModel_Parses(t *testing.T) {
	model, err := DefaultModel()
	if err != nil {
		t.Fatalf("embedded model failed to parse: %v", err)
	}
	if len(model.Hidden) == 0 || len(model.Output) == 0 {
		t.Fatal("embedded model is empty")
	}
}

func TestValidate_DuplicateHiddenName(t *testing.T) {
	model := &Model{
		Hidden: []HiddenUnit{
			{Name: "h", Weights: map[string]float64{"play": 1}},
			{Name: "h", Weights: map[string]float64{"stop": 1}},
		},
		Output: []OutputUnit{{Label: "x", Weights: map[string]float64{"h": 1}}},
	}
	if err := model.Validate(); err == nil {
		t.Error("expected error for duplicate hidden unit name")
	}
}

func TestValidate_UnknownHiddenReference(t *testing.T) {
	model := &Model{
		Hidden: []HiddenUnit{{Name: "h", Weights: map[string]float64{"play": 1}}},
		Output: []OutputUnit{{Label: "x", Weights: map[string]float64{"ghost": 1}}},
	}
	if err := model.Validate(); err == nil {
		t.Error("expected error for output referencing unknown hidden unit")
	}
}

func TestValidate_DuplicateLabel(t *testing.T) {
	model := &Model{
		Hidden: []HiddenUnit{{Name: "h", Weights: map[string]float64{"play": 1}}},
		Output: []OutputUnit{
			{Label: "x", Weights: map[string]float64{"h": 1}},
			{Label: "x", Weights: map[string]float64{"h": 2}},
		},
	}
	if err := model.Validate(); err == nil {
		t.Error("expected error for duplicate output label")
	}
}

func TestParseModel_Malformed(t *testing.T) {
	if _, err := ParseModel([]byte("hidden: [not a unit")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

// =============================================================================
// Forward Pass
// =============================================================================

func defaultScorer(t *testing.T) *Scorer {
	t.Helper()
	model, err := DefaultModel()
	if err != nil {
		t.Fatalf("DefaultModel failed: %v", err)
	}
	return NewScorer(model, nil)
}

func TestScore_ClearKeywordHit(t *testing.T) {
	s := defaultScorer(t)
	in, ok := s.Score(context.Background(), "play some music")
	if !ok {
		t.Fatal("expected a classification")
	}
	if in.Intent != "play_music" {
		t.Errorf("intent = %q, want play_music", in.Intent)
	}
	if in.Source != engine.SourceClassifier {
		t.Errorf("source = %q, want %q", in.Source, engine.SourceClassifier)
	}
	if in.Confidence < 0.8 {
		t.Errorf("clear keyword hit should score high, got %f", in.Confidence)
	}
}

func TestScore_DeleteFile(t *testing.T) {
	s := defaultScorer(t)
	in, ok := s.Score(context.Background(), "delete the old file")
	if !ok {
		t.Fatal("expected a classification")
	}
	if in.Intent != "delete_file" {
		t.Errorf("intent = %q, want delete_file", in.Intent)
	}
}

func TestScore_VolumeDirection(t *testing.T) {
	s := defaultScorer(t)
	up, ok := s.Score(context.Background(), "increase the volume")
	if !ok || up.Intent != "volume_up" {
		t.Errorf("increase the volume -> %q (ok=%v), want volume_up", up.Intent, ok)
	}
	down, ok := s.Score(context.Background(), "lower the volume")
	if !ok || down.Intent != "volume_down" {
		t.Errorf("lower the volume -> %q (ok=%v), want volume_down", down.Intent, ok)
	}
}

func TestScore_OutOfVocabulary(t *testing.T) {
	s := defaultScorer(t)
	if _, ok := s.Score(context.Background(), "quantum chromodynamics"); ok {
		t.Error("expected no classification for out-of-vocabulary text")
	}
}

func TestScore_ConfidenceIsProbability(t *testing.T) {
	s := defaultScorer(t)
	in, ok := s.Score(context.Background(), "take a screenshot")
	if !ok {
		t.Fatal("expected a classification")
	}
	if in.Confidence <= 0 || in.Confidence > 1 {
		t.Errorf("confidence %f outside (0, 1]", in.Confidence)
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := defaultScorer(t)
	a, okA := s.Score(context.Background(), "push my commits to the remote")
	b, okB := s.Score(context.Background(), "push my commits to the remote")
	if okA != okB || a.Intent != b.Intent || a.Confidence != b.Confidence {
		t.Errorf("scoring not deterministic: %+v vs %+v", a, b)
	}
}
