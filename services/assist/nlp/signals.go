// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package nlp

import (
	"regexp"
	"strings"
)

// =============================================================================
// Signal Types
// =============================================================================

// QuestionType classifies the interrogative shape of an utterance.
type QuestionType string

const (
	QuestionNone  QuestionType = "none"
	QuestionWhat  QuestionType = "what"
	QuestionWhere QuestionType = "where"
	QuestionWhen  QuestionType = "when"
	QuestionWho   QuestionType = "who"
	QuestionWhy   QuestionType = "why"
	QuestionHow   QuestionType = "how"
	QuestionYesNo QuestionType = "yesno"
)

// Sentiment is a coarse three-way polarity tag.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Signals carries the coarse linguistic tags the rule layer consumes.
//
// Description:
//
//	Extracted once per turn, before the matching layers run. All fields
//	are best-effort hints: an empty Entities map or QuestionNone is a
//	normal outcome, not a failure.
type Signals struct {
	// QuestionType is the interrogative shape, or QuestionNone.
	QuestionType QuestionType

	// IsCommand is true when the utterance leads with an imperative verb.
	IsCommand bool

	// Sentiment is the coarse polarity of the utterance.
	Sentiment Sentiment

	// Entities holds candidate slot values by kind: "website", "app",
	// "file", "song", "query".
	Entities map[string]string
}

// =============================================================================
// Extraction Tables
// =============================================================================

var questionWords = map[string]QuestionType{
	"what":  QuestionWhat,
	"whats": QuestionWhat,
	"where": QuestionWhere,
	"when":  QuestionWhen,
	"who":   QuestionWho,
	"whos":  QuestionWho,
	"why":   QuestionWhy,
	"how":   QuestionHow,
}

var yesNoLeads = map[string]struct{}{
	"is": {}, "are": {}, "was": {}, "were": {}, "do": {}, "does": {},
	"did": {}, "can": {}, "could": {}, "will": {}, "would": {},
	"should": {}, "have": {}, "has": {},
}

// commandVerbs are imperative leads that mark an utterance as a command.
// Shared with the multi-intent segmenter's action verb check.
var commandVerbs = map[string]struct{}{
	"open": {}, "close": {}, "play": {}, "pause": {}, "stop": {},
	"start": {}, "launch": {}, "run": {}, "show": {}, "list": {},
	"create": {}, "make": {}, "write": {}, "read": {}, "delete": {},
	"remove": {}, "search": {}, "find": {}, "convert": {}, "set": {},
	"turn": {}, "lock": {}, "shutdown": {}, "restart": {}, "take": {},
	"push": {}, "pull": {}, "commit": {}, "mute": {}, "unmute": {},
	"increase": {}, "decrease": {}, "volume": {}, "skip": {}, "resume": {},
}

var positiveWords = map[string]struct{}{
	"thanks": {}, "thank": {}, "great": {}, "awesome": {}, "good": {},
	"nice": {}, "love": {}, "perfect": {}, "cool": {}, "excellent": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "hate": {}, "awful": {}, "wrong": {},
	"broken": {}, "annoying": {}, "useless": {}, "stupid": {},
}

// knownWebsites maps spoken names to canonical site entities.
var knownWebsites = map[string]string{
	"youtube": "youtube.com", "google": "google.com",
	"github": "github.com", "gmail": "mail.google.com",
	"reddit": "reddit.com", "twitter": "twitter.com",
	"wikipedia": "wikipedia.org", "stackoverflow": "stackoverflow.com",
	"netflix": "netflix.com", "spotify": "spotify.com",
}

// knownApps are launchable application names recognized as app entities.
var knownApps = map[string]struct{}{
	"terminal": {}, "calculator": {}, "notepad": {}, "browser": {},
	"chrome": {}, "firefox": {}, "vscode": {}, "slack": {}, "spotify": {},
	"finder": {}, "explorer": {},
}

var (
	// fileNameRe picks out tokens shaped like file names ("notes.txt").
	fileNameRe = regexp.MustCompile(`\b[\w\-]+\.(txt|md|go|py|js|json|yaml|yml|csv|log|pdf|png|jpg)\b`)

	// playTargetRe captures the object of a play command ("play some jazz").
	playTargetRe = regexp.MustCompile(`\bplay\s+(?:some\s+)?([a-z0-9' ]+)$`)

	// searchTargetRe captures the query of a search command.
	searchTargetRe = regexp.MustCompile(`\b(?:search|google|look up|look for)\s+(?:for\s+)?(.+)$`)
)

// =============================================================================
// Extraction
// =============================================================================

// Extract tags an utterance with coarse linguistic signals.
//
// Description:
//
//	Works on the normalized form of text. Entity extraction is pattern
//	driven and deliberately shallow — the plugin handlers revalidate
//	anything they act on.
//
// Inputs:
//
//	text - Raw utterance text.
//
// Outputs:
//
//	Signals - The extracted signals. Entities is never nil.
func Extract(text string) Signals {
	norm := Normalize(text)
	tokens := strings.Fields(norm)

	sig := Signals{
		QuestionType: QuestionNone,
		Sentiment:    SentimentNeutral,
		Entities:     make(map[string]string),
	}
	if len(tokens) == 0 {
		return sig
	}

	// Question type from the leading token.
	if qt, ok := questionWords[tokens[0]]; ok {
		sig.QuestionType = qt
	} else if _, ok := yesNoLeads[tokens[0]]; ok {
		sig.QuestionType = QuestionYesNo
	}

	// Command-likeness: imperative verb first, and not a question.
	if sig.QuestionType == QuestionNone {
		if _, ok := commandVerbs[tokens[0]]; ok {
			sig.IsCommand = true
		}
	}

	// Sentiment by word-list vote.
	pos, neg := 0, 0
	for _, tok := range tokens {
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
	}
	switch {
	case pos > neg:
		sig.Sentiment = SentimentPositive
	case neg > pos:
		sig.Sentiment = SentimentNegative
	}

	extractEntities(norm, tokens, &sig)
	return sig
}

// extractEntities fills sig.Entities from the pattern tables.
func extractEntities(norm string, tokens []string, sig *Signals) {
	for _, tok := range tokens {
		if site, ok := knownWebsites[tok]; ok {
			if _, seen := sig.Entities["website"]; !seen {
				sig.Entities["website"] = site
			}
		}
		if _, ok := knownApps[tok]; ok {
			if _, seen := sig.Entities["app"]; !seen {
				sig.Entities["app"] = tok
			}
		}
	}

	if m := fileNameRe.FindString(norm); m != "" {
		sig.Entities["file"] = m
	}
	if m := playTargetRe.FindStringSubmatch(norm); len(m) == 2 {
		target := strings.TrimSpace(m[1])
		// "play music" carries no specific song; only record a real target.
		if target != "" && target != "music" && target != "a song" {
			sig.Entities["song"] = target
		}
	}
	if m := searchTargetRe.FindStringSubmatch(norm); len(m) == 2 {
		sig.Entities["query"] = strings.TrimSpace(m[1])
	}
}

// IsActionVerb reports whether token is in the fixed action verb list.
// Used by the multi-intent segmenter to validate split candidates.
func IsActionVerb(token string) bool {
	_, ok := commandVerbs[token]
	return ok
}
