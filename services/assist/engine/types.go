// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine implements the layered intent interpretation pipeline:
// rule matching, semantic similarity, and statistical classification
// merged into one confidence-ranked Decision, plus the multi-intent
// segmenter that splits conjoined commands.
package engine

import (
	"context"

	"github.com/AleutianAI/AleutianAssist/services/assist/nlp"
)

// =============================================================================
// Interpretation Types
// =============================================================================

// Source identifies which layer produced an interpretation.
type Source string

const (
	SourceRules      Source = "rules"
	SourceSemantic   Source = "semantic"
	SourceClassifier Source = "classifier"
	SourceContext    Source = "context"
)

// Interpretation is one layer's proposed reading of an utterance.
//
// Description:
//
//	Confidence is always in [0,1]. Entities may be nil when the layer
//	extracts nothing. MatchedExample is only set by the semantic layer
//	and names the training phrase that won.
type Interpretation struct {
	// Intent is the proposed intent name (e.g. "open_website").
	Intent string `json:"intent"`

	// Confidence is the layer's certainty in [0,1].
	Confidence float64 `json:"confidence"`

	// Source is the layer that produced this interpretation.
	Source Source `json:"source"`

	// Entities are slot values attached to the interpretation.
	Entities map[string]string `json:"entities,omitempty"`

	// MatchedExample is the semantic training phrase that matched, if any.
	MatchedExample string `json:"matched_example,omitempty"`
}

// =============================================================================
// Decision Types
// =============================================================================

// DecisionKind is the closed set of terminal interpretation outcomes.
// The router's dispatch switches over this type exhaustively.
type DecisionKind int

const (
	// Unknown means no layer produced a usable candidate.
	Unknown DecisionKind = iota

	// Clarify means a weak candidate exists; ask the user what they meant.
	Clarify

	// Confirm means a plausible candidate exists; ask before executing.
	Confirm

	// Execute means the candidate clears its threshold; run the handler.
	Execute
)

// String returns the lowercase name of the kind.
func (k DecisionKind) String() string {
	switch k {
	case Execute:
		return "execute"
	case Confirm:
		return "confirm"
	case Clarify:
		return "clarify"
	default:
		return "unknown"
	}
}

// Decision is the terminal, immutable output of interpretation.
type Decision struct {
	// Kind is the ranked outcome.
	Kind DecisionKind `json:"kind"`

	// Intent is the winning intent name. Empty for Unknown.
	Intent string `json:"intent,omitempty"`

	// Confidence is the winning candidate's confidence.
	Confidence float64 `json:"confidence"`

	// Source is the layer that produced the winning candidate.
	Source Source `json:"source,omitempty"`

	// Entities are the winning candidate's slot values.
	Entities map[string]string `json:"entities,omitempty"`

	// Reason is a human-readable account of how the decision was reached.
	Reason string `json:"reason"`

	// Prompt is the question to put to the user for Confirm/Clarify.
	Prompt string `json:"prompt,omitempty"`
}

// =============================================================================
// Layer Contracts
// =============================================================================

// RuleLayer is the exact-match rule matcher contract.
//
// A false second return is a miss, not an error — rule execution errors
// are absorbed inside the layer (a faulty rule is skipped, never fatal).
type RuleLayer interface {
	Match(ctx context.Context, text string, sig nlp.Signals) (Interpretation, bool)
}

// SemanticLayer is the similarity matcher contract.
type SemanticLayer interface {
	// Match returns the best candidate at or above the similarity
	// threshold, or a miss.
	Match(ctx context.Context, text string) (Interpretation, bool)

	// Rank returns the full candidate list ordered by similarity,
	// including candidates below the threshold, for debugging.
	Rank(text string) []RankedCandidate
}

// ClassifierLayer is the statistical scorer contract. The engine depends
// only on this interface; the model family behind it is swappable.
type ClassifierLayer interface {
	Score(ctx context.Context, text string) (Interpretation, bool)
}

// RankedCandidate is one entry of a semantic debug ranking.
type RankedCandidate struct {
	// Intent is the candidate intent name.
	Intent string `json:"intent"`

	// Similarity is the best cosine similarity across the intent's examples.
	Similarity float64 `json:"similarity"`

	// Example is the example phrase that produced the similarity.
	Example string `json:"example"`
}
