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
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianAssist/services/assist/engine"
	"github.com/AleutianAI/AleutianAssist/services/assist/nlp"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	resolverRewriteTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "session",
		Name:      "rewrite_total",
		Help:      "Pronoun rewrites applied, by pattern",
	}, []string{"pattern"})

	resolverFollowUpTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "session",
		Name:      "follow_up_total",
		Help:      "Follow-up detections, by mapped intent",
	}, []string{"intent"})
)

// followUpConfidence is the synthetic confidence assigned to a detected
// follow-up. High enough to execute outright; context is near-certain
// when the trigger table fires.
const followUpConfidence = 0.85

// entityPriority is the lookup order when a pronoun needs "the most
// relevant prior entity". Scanning is newest-turn-first; within a turn,
// this key order decides.
var entityPriority = []string{"app", "website", "file", "song", "query"}

// =============================================================================
// Pronoun Resolution
// =============================================================================

// ResolvePronouns rewrites pronoun-dependent input against history.
//
// Description:
//
//	The patterns are literal and small on purpose; anything fuzzier
//	belongs to the semantic layer. "again"/"do it again" replay the last
//	raw input verbatim. "open it"/"play it" and a trailing "... it" on an
//	action verb substitute the most relevant prior entity, as do the
//	"that one"/"the same" references. When history holds nothing usable
//	the input is returned unchanged and the pipeline sees it as-is.
//
// Inputs:
//
//	text - Raw utterance text.
//	history - Unexpired session turns, oldest first (Store.History order).
//
// Outputs:
//
//	string - The (possibly rewritten) text.
//	bool - True when a rewrite was applied.
func ResolvePronouns(text string, history []ContextEntry) (string, bool) {
	if len(history) == 0 {
		return text, false
	}
	norm := nlp.Normalize(text)

	// Replay: the whole input becomes the previous raw input.
	if norm == "again" || norm == "do it again" || norm == "same again" {
		last := history[len(history)-1].Input
		if last == "" {
			return text, false
		}
		resolverRewriteTotal.WithLabelValues("replay").Inc()
		return last, true
	}

	// Reference substitution: "that one" / "the same" stand in for the
	// most relevant prior entity wherever they appear.
	for _, ref := range []string{"that one", "the same"} {
		if strings.Contains(norm, ref) {
			entity, ok := priorEntity(history, entityPriority)
			if !ok {
				return text, false
			}
			resolverRewriteTotal.WithLabelValues("reference").Inc()
			return strings.ReplaceAll(norm, ref, entity), true
		}
	}

	// Trailing "it" after an action verb: "open it", "play it",
	// "delete it". "play it" prefers a prior song over the generic
	// priority order.
	words := strings.Fields(norm)
	if len(words) >= 2 && words[len(words)-1] == "it" && nlp.IsActionVerb(words[0]) {
		priority := entityPriority
		if words[0] == "play" {
			priority = []string{"song", "app", "website", "file", "query"}
		}
		entity, ok := priorEntity(history, priority)
		if !ok {
			return text, false
		}
		resolverRewriteTotal.WithLabelValues("trailing_it").Inc()
		words[len(words)-1] = entity
		return strings.Join(words, " "), true
	}

	return text, false
}

// priorEntity scans history newest-first for the first entity present
// under the given key priority.
func priorEntity(history []ContextEntry, priority []string) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		for _, key := range priority {
			if v := history[i].Entities[key]; v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// =============================================================================
// Follow-Up Detection
// =============================================================================

// followUpRule maps a literal trigger to an intent, gated on the
// session's most recent intent.
type followUpRule struct {
	triggers     []string
	priorIntents []string
	intent       string
}

var mediaIntents = []string{"play_music", "pause_music", "volume_up", "volume_down", "play_video"}

var followUpRules = []followUpRule{
	{
		triggers:     []string{"louder", "turn it up", "volume up a bit"},
		priorIntents: mediaIntents,
		intent:       "volume_up",
	},
	{
		triggers:     []string{"quieter", "softer", "turn it down", "volume down a bit"},
		priorIntents: mediaIntents,
		intent:       "volume_down",
	},
	{
		triggers:     []string{"resume", "keep playing", "unpause"},
		priorIntents: []string{"pause_music"},
		intent:       "play_music",
	},
	{
		triggers:     []string{"another one", "one more", "tell me another"},
		priorIntents: []string{"tell_joke"},
		intent:       "tell_joke",
	},
}

// DetectFollowUp checks the trigger table against the last turn.
//
// Description:
//
//	A hit bypasses the normal pipeline entirely: the mapped intent is
//	returned as a synthetic interpretation with confidence 0.85 and
//	source "context", carrying the prior turn's entities forward.
//
// Inputs:
//
//	text - Raw utterance text.
//	history - Unexpired session turns, oldest first.
//
// Outputs:
//
//	engine.Interpretation - The synthetic result.
//	bool - False when no trigger matches or the prior intent does not
//	qualify.
func DetectFollowUp(text string, history []ContextEntry) (engine.Interpretation, bool) {
	if len(history) == 0 {
		return engine.Interpretation{}, false
	}
	norm := nlp.Normalize(text)
	lastIntent := history[len(history)-1].Intent

	for _, rule := range followUpRules {
		if !slices.Contains(rule.triggers, norm) {
			continue
		}
		if !slices.Contains(rule.priorIntents, lastIntent) {
			continue
		}
		resolverFollowUpTotal.WithLabelValues(rule.intent).Inc()
		entities := make(map[string]string, len(history[len(history)-1].Entities))
		for k, v := range history[len(history)-1].Entities {
			entities[k] = v
		}
		return engine.Interpretation{
			Intent:     rule.intent,
			Confidence: followUpConfidence,
			Source:     engine.SourceContext,
			Entities:   entities,
		}, true
	}
	return engine.Interpretation{}, false
}
