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
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianAssist/services/assist/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	decisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "decision",
		Name:      "total",
		Help:      "Decisions by kind and winning source",
	}, []string{"kind", "source"})

	decisionDowngradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "decision",
		Name:      "destructive_downgraded_total",
		Help:      "Execute decisions downgraded to Confirm by the destructive floor",
	})
)

// =============================================================================
// Decider
// =============================================================================

// Decider merges per-layer interpretations into one ranked Decision.
//
// Description:
//
//	Applies the fixed priority arithmetic: an exact rule match wins
//	outright; otherwise semantic beats classifier when within the margin;
//	otherwise the higher confidence wins. Confidence bands then map the
//	winner to Execute/Confirm/Clarify/Unknown, with a stricter execute
//	floor for destructive intents.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Decider struct {
	thresholds  config.Thresholds
	destructive map[string]struct{}
}

// NewDecider creates a Decider from the loaded configuration.
//
// Inputs:
//
//	cfg - The assist configuration. Must not be nil.
//
// Outputs:
//
//	*Decider - The constructed decider. Never nil.
func NewDecider(cfg *config.AssistConfig) *Decider {
	destructive := make(map[string]struct{}, len(cfg.DestructiveIntents))
	for _, name := range cfg.DestructiveIntents {
		destructive[name] = struct{}{}
	}
	return &Decider{
		thresholds:  cfg.Thresholds,
		destructive: destructive,
	}
}

// IsDestructive reports whether intent requires the stricter execute floor.
func (d *Decider) IsDestructive(intent string) bool {
	_, ok := d.destructive[intent]
	return ok
}

// Decide merges the layer candidates into a Decision.
//
// Description:
//
//	Candidate slots may be nil when a layer missed. Priority:
//
//	 1. A rule candidate always wins (rules report confidence 1.0).
//	 2. Semantic wins over classifier when its confidence is within
//	    SemanticMargin of the classifier's, or simply higher.
//	 3. Otherwise the classifier candidate wins.
//
//	The winner's confidence is then banded: >= Execute runs, >= Confirm
//	asks yes/no, >= Clarify asks what was meant, below that is Unknown.
//	A destructive intent needs >= Destructive to run; in the Execute
//	band below that floor it is downgraded to Confirm.
//
// Inputs:
//
//	rule, semantic, classifier - Layer candidates; nil means the layer missed.
//
// Outputs:
//
//	Decision - The merged decision. Never an error: absence of any
//	candidate yields Kind Unknown.
func (d *Decider) Decide(rule, semantic, classifier *Interpretation) Decision {
	winner, reason := d.pickWinner(rule, semantic, classifier)
	if winner == nil {
		dec := Decision{
			Kind:   Unknown,
			Reason: "no layer produced a candidate",
		}
		decisionTotal.WithLabelValues(dec.Kind.String(), "none").Inc()
		return dec
	}

	return d.band(winner, reason)
}

// Band maps one candidate straight to a Decision with the same
// thresholds and destructive floor as Decide. Context follow-ups use
// this to bypass the layer merge without bypassing the safety bands.
func (d *Decider) Band(in Interpretation, reason string) Decision {
	return d.band(&in, reason)
}

// band applies the confidence bands and destructive floor to a winner.
func (d *Decider) band(winner *Interpretation, reason string) Decision {
	dec := Decision{
		Intent:     winner.Intent,
		Confidence: winner.Confidence,
		Source:     winner.Source,
		Entities:   winner.Entities,
	}

	t := d.thresholds
	switch {
	case winner.Confidence >= t.Execute:
		dec.Kind = Execute
	case winner.Confidence >= t.Confirm:
		dec.Kind = Confirm
	case winner.Confidence >= t.Clarify:
		dec.Kind = Clarify
	default:
		dec.Kind = Unknown
	}

	// Destructive intents never execute below the stricter floor.
	if dec.Kind == Execute && d.IsDestructive(winner.Intent) && winner.Confidence < t.Destructive {
		dec.Kind = Confirm
		reason = fmt.Sprintf("%s; destructive intent below %.2f floor, downgraded to confirm", reason, t.Destructive)
		decisionDowngradedTotal.Inc()
	}

	dec.Reason = fmt.Sprintf("%s (confidence %.2f)", reason, winner.Confidence)

	switch dec.Kind {
	case Confirm:
		dec.Prompt = confirmPrompt(winner)
	case Clarify:
		dec.Prompt = clarifyPrompt(winner)
	case Unknown:
		dec.Reason = fmt.Sprintf("best candidate %q below clarify threshold (%.2f < %.2f)",
			winner.Intent, winner.Confidence, t.Clarify)
	}

	decisionTotal.WithLabelValues(dec.Kind.String(), string(winner.Source)).Inc()
	return dec
}

// pickWinner applies the layer priority order.
func (d *Decider) pickWinner(rule, semantic, classifier *Interpretation) (*Interpretation, string) {
	if rule != nil {
		return rule, fmt.Sprintf("exact rule match for %q", rule.Intent)
	}

	switch {
	case semantic != nil && classifier != nil:
		if semantic.Confidence+d.thresholds.SemanticMargin >= classifier.Confidence {
			return semantic, fmt.Sprintf("semantic match for %q preferred within %.2f of classifier",
				semantic.Intent, d.thresholds.SemanticMargin)
		}
		return classifier, fmt.Sprintf("classifier outscored semantic for %q", classifier.Intent)
	case semantic != nil:
		return semantic, fmt.Sprintf("semantic match for %q", semantic.Intent)
	case classifier != nil:
		return classifier, fmt.Sprintf("classifier fallback for %q", classifier.Intent)
	}
	return nil, ""
}

// =============================================================================
// Prompt Generation
// =============================================================================

// confirmPrompt phrases a yes/no question for a Confirm decision.
func confirmPrompt(winner *Interpretation) string {
	return fmt.Sprintf("Did you want me to %s?", describeIntent(winner))
}

// clarifyPrompt phrases a weak-candidate question for a Clarify decision.
func clarifyPrompt(winner *Interpretation) string {
	return fmt.Sprintf("I'm not quite sure — did you mean %s?", describeIntent(winner))
}

// describeIntent renders an intent and its most salient entity as a
// human-readable action phrase ("open youtube.com", "delete notes.txt").
func describeIntent(in *Interpretation) string {
	verb := strings.ReplaceAll(in.Intent, "_", " ")
	for _, key := range []string{"website", "app", "file", "song", "query"} {
		if v, ok := in.Entities[key]; ok && v != "" {
			return verb + " " + v
		}
	}
	return verb
}
