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

	"github.com/AleutianAI/AleutianAssist/services/assist/nlp"
)

// =============================================================================
// Multi-Intent Segmentation
// =============================================================================

// conjunctions are the coordinating joiners that may separate two
// independently actionable clauses. Multi-word entries first so
// "and then" is not consumed as a bare "and".
var conjunctions = []string{
	"and then",
	"after that",
	"and",
	"then",
	"also",
	"plus",
}

// Segment splits an utterance into independently interpretable clauses.
//
// Description:
//
//	Scans for the first conjunction appearing strictly between two words
//	(never at the string edges) and splits there. The split is kept only
//	when BOTH halves contain a recognized action verb, either as the
//	first word or as a standalone token; otherwise the conjunction is
//	treated as part of a single command ("open youtube and relax" does
//	not split). At most one split is performed per call — nested
//	conjunctions resolve left to right across turns, which matches how
//	people actually chain commands.
//
// Inputs:
//
//	text - Raw utterance text.
//
// Outputs:
//
//	[]string - Ordered segments. A single-element slice containing the
//	trimmed input when no genuine multi-intent split exists. Execution
//	order equals slice order.
func Segment(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{""}
	}

	orig := strings.Fields(trimmed)
	if len(orig) < 3 {
		return []string{trimmed}
	}
	// Matching is case-insensitive; segments keep their original casing.
	words := make([]string, len(orig))
	for i, w := range orig {
		words[i] = strings.ToLower(w)
	}

	// Interior positions only: at least one word on each side. Positions
	// are scanned left to right so the FIRST conjunction decides; at a
	// given position multi-word conjunctions take precedence ("and then"
	// is never consumed as a bare "and").
	for i := 1; i < len(words)-1; i++ {
		for _, conj := range conjunctions {
			conjWords := strings.Fields(conj)
			// The conjunction must fit with at least one word after it.
			if i+len(conjWords) > len(words)-1 {
				continue
			}
			if !matchAt(words, i, conjWords) {
				continue
			}

			left := strings.Join(words[:i], " ")
			right := strings.Join(words[i+len(conjWords):], " ")

			if hasActionVerb(left) && hasActionVerb(right) {
				return []string{
					strings.Join(orig[:i], " "),
					strings.Join(orig[i+len(conjWords):], " "),
				}
			}
			// First conjunction occurrence decides; a rejected split
			// means the utterance is one command.
			return []string{trimmed}
		}
	}

	return []string{trimmed}
}

// matchAt reports whether conjWords appear contiguously at words[i:].
func matchAt(words []string, i int, conjWords []string) bool {
	for j, cw := range conjWords {
		if words[i+j] != cw {
			return false
		}
	}
	return true
}

// hasActionVerb reports whether a segment contains a recognized action
// verb as its first word or as a standalone token.
func hasActionVerb(segment string) bool {
	tokens := strings.Fields(segment)
	for _, tok := range tokens {
		if nlp.IsActionVerb(tok) {
			return true
		}
	}
	return false
}
