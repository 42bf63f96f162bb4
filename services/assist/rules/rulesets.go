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
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianAssist/services/assist/engine"
	"github.com/AleutianAI/AleutianAssist/services/assist/nlp"
)

// =============================================================================
// Default Rule Sets
// =============================================================================

// DefaultRules returns the built-in rule sets in priority order:
// ambiguity detection first (it redirects rather than claims), then the
// concrete domains. Each set is independently removable — nothing in the
// engine knows these names.
func DefaultRules() []Rule {
	var out []Rule
	out = append(out, ambiguityRules()...)
	out = append(out, greetingRules()...)
	out = append(out, fileRules()...)
	out = append(out, mediaRules()...)
	out = append(out, devtoolRules()...)
	out = append(out, systemRules()...)
	return out
}

// hit is a small helper for rules that resolved an intent.
func hit(intent string, entities map[string]string) (engine.Interpretation, bool) {
	return engine.Interpretation{Intent: intent, Entities: entities}, true
}

// miss declines the utterance.
func miss() (engine.Interpretation, bool) {
	return engine.Interpretation{}, false
}

// =============================================================================
// Ambiguity Detection
// =============================================================================

// ambiguousOpeners are utterances too underspecified to act on at all.
var ambiguousOpeners = map[string]struct{}{
	"help": {}, "do it": {}, "go": {}, "now": {}, "do something": {},
	"open": {}, "play": {}, "delete": {}, "run": {},
}

func ambiguityRules() []Rule {
	return []Rule{
		{
			Name:   "ambiguity.bare_verb",
			Domain: "ambiguity",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				norm := nlp.Normalize(text)
				if _, ok := ambiguousOpeners[norm]; ok {
					return hit("clarify_request", map[string]string{"fragment": norm})
				}
				return miss()
			},
		},
	}
}

// =============================================================================
// Greetings & Smalltalk
// =============================================================================

var greetingWords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "good morning": {},
	"good afternoon": {}, "good evening": {}, "yo": {},
}

var farewellWords = map[string]struct{}{
	"bye": {}, "goodbye": {}, "good night": {}, "see you": {}, "later": {},
}

func greetingRules() []Rule {
	return []Rule{
		{
			Name:   "greetings.hello",
			Domain: "greetings",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				norm := nlp.Normalize(text)
				if _, ok := greetingWords[norm]; ok {
					return hit("greeting", nil)
				}
				return miss()
			},
		},
		{
			Name:   "greetings.farewell",
			Domain: "greetings",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				norm := nlp.Normalize(text)
				if _, ok := farewellWords[norm]; ok {
					return hit("farewell", nil)
				}
				return miss()
			},
		},
		{
			Name:   "greetings.thanks",
			Domain: "greetings",
			Match: func(text string, sig nlp.Signals) (engine.Interpretation, bool) {
				norm := nlp.Normalize(text)
				if strings.HasPrefix(norm, "thank") || norm == "thanks" || norm == "thanks a lot" {
					return hit("thanks", nil)
				}
				return miss()
			},
		},
	}
}

// =============================================================================
// File Operations
// =============================================================================

var (
	createFileRe = regexp.MustCompile(`^(?:create|make|new)\s+(?:a\s+)?(?:file|note)\b`)
	readFileRe   = regexp.MustCompile(`^(?:read|show|open)\s+(?:the\s+)?file\b`)
	listFilesRe  = regexp.MustCompile(`^(?:list|show)\s+(?:my\s+|the\s+)?files\b`)
	deleteFileRe = regexp.MustCompile(`^(?:delete|remove)\s+(?:the\s+)?(?:file\s+)?`)
)

func fileRules() []Rule {
	return []Rule{
		{
			Name:   "files.create",
			Domain: "files",
			Match: func(text string, sig nlp.Signals) (engine.Interpretation, bool) {
				if createFileRe.MatchString(nlp.Normalize(text)) {
					return hit("create_file", fileEntity(sig))
				}
				return miss()
			},
		},
		{
			Name:   "files.read",
			Domain: "files",
			Match: func(text string, sig nlp.Signals) (engine.Interpretation, bool) {
				norm := nlp.Normalize(text)
				// "open notes.txt" reads a file even without the word "file".
				if readFileRe.MatchString(norm) ||
					(strings.HasPrefix(norm, "open ") && sig.Entities["file"] != "") {
					return hit("read_file", fileEntity(sig))
				}
				return miss()
			},
		},
		{
			Name:   "files.list",
			Domain: "files",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if listFilesRe.MatchString(nlp.Normalize(text)) {
					return hit("list_files", nil)
				}
				return miss()
			},
		},
		{
			Name:   "files.delete",
			Domain: "files",
			Match: func(text string, sig nlp.Signals) (engine.Interpretation, bool) {
				norm := nlp.Normalize(text)
				if deleteFileRe.MatchString(norm) && sig.Entities["file"] != "" {
					return hit("delete_file", fileEntity(sig))
				}
				return miss()
			},
		},
	}
}

func fileEntity(sig nlp.Signals) map[string]string {
	if f := sig.Entities["file"]; f != "" {
		return map[string]string{"file": f}
	}
	return nil
}

// =============================================================================
// Media & Websites
// =============================================================================

var (
	openSiteRe   = regexp.MustCompile(`^(?:open|go to|visit|launch)\s+`)
	playMusicRe  = regexp.MustCompile(`^play\b`)
	pauseRe      = regexp.MustCompile(`^(?:pause|stop)(?:\s+(?:the\s+)?(?:music|song|video|playback))?$`)
	volumeUpRe   = regexp.MustCompile(`^(?:volume up|turn (?:the\s+)?volume up|increase (?:the\s+)?volume|louder)$`)
	volumeDownRe = regexp.MustCompile(`^(?:volume down|turn (?:the\s+)?volume down|decrease (?:the\s+)?volume|quieter|softer)$`)
)

func mediaRules() []Rule {
	return []Rule{
		{
			Name:   "media.open_website",
			Domain: "media",
			Match: func(text string, sig nlp.Signals) (engine.Interpretation, bool) {
				norm := nlp.Normalize(text)
				if openSiteRe.MatchString(norm) && sig.Entities["website"] != "" {
					return hit("open_website", map[string]string{"website": sig.Entities["website"]})
				}
				return miss()
			},
		},
		{
			Name:   "media.open_app",
			Domain: "media",
			Match: func(text string, sig nlp.Signals) (engine.Interpretation, bool) {
				norm := nlp.Normalize(text)
				if openSiteRe.MatchString(norm) && sig.Entities["website"] == "" && sig.Entities["app"] != "" {
					return hit("open_app", map[string]string{"app": sig.Entities["app"]})
				}
				return miss()
			},
		},
		{
			Name:   "media.play",
			Domain: "media",
			Match: func(text string, sig nlp.Signals) (engine.Interpretation, bool) {
				norm := nlp.Normalize(text)
				if playMusicRe.MatchString(norm) {
					return hit("play_music", songEntity(sig))
				}
				return miss()
			},
		},
		{
			Name:   "media.pause",
			Domain: "media",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if pauseRe.MatchString(nlp.Normalize(text)) {
					return hit("pause_music", nil)
				}
				return miss()
			},
		},
		{
			Name:   "media.volume_up",
			Domain: "media",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if volumeUpRe.MatchString(nlp.Normalize(text)) {
					return hit("volume_up", nil)
				}
				return miss()
			},
		},
		{
			Name:   "media.volume_down",
			Domain: "media",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if volumeDownRe.MatchString(nlp.Normalize(text)) {
					return hit("volume_down", nil)
				}
				return miss()
			},
		},
	}
}

func songEntity(sig nlp.Signals) map[string]string {
	if s := sig.Entities["song"]; s != "" {
		return map[string]string{"song": s}
	}
	return nil
}

// =============================================================================
// Developer Tools
// =============================================================================

var (
	gitStatusRe = regexp.MustCompile(`^(?:git status|show (?:me\s+)?(?:the\s+)?git status|whats? (?:the\s+)?git status)$`)
	gitPushRe   = regexp.MustCompile(`^(?:git push|push (?:my\s+|the\s+)?(?:changes|commits|code))$`)
	forcePushRe = regexp.MustCompile(`\bforce[\s-]?push\b|\bpush\s+--force\b`)
)

func devtoolRules() []Rule {
	return []Rule{
		{
			// Force-push must be checked before the plain push rule:
			// load order is priority order.
			Name:   "devtools.git_force_push",
			Domain: "devtools",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if forcePushRe.MatchString(strings.ToLower(text)) {
					return hit("git_force_push", nil)
				}
				return miss()
			},
		},
		{
			Name:   "devtools.git_status",
			Domain: "devtools",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if gitStatusRe.MatchString(nlp.Normalize(text)) {
					return hit("git_status", nil)
				}
				return miss()
			},
		},
		{
			Name:   "devtools.git_push",
			Domain: "devtools",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if gitPushRe.MatchString(nlp.Normalize(text)) {
					return hit("git_push", nil)
				}
				return miss()
			},
		},
	}
}

// =============================================================================
// System Control
// =============================================================================

var (
	screenshotRe = regexp.MustCompile(`^(?:take (?:a\s+)?screenshot|screenshot)$`)
	lockRe       = regexp.MustCompile(`^lock (?:the\s+|my\s+)?(?:screen|computer|machine)$`)
	shutdownRe   = regexp.MustCompile(`^(?:shutdown|shut down|power off)(?:\s+(?:the\s+|my\s+)?(?:computer|machine|system|pc))?$`)
	restartRe    = regexp.MustCompile(`^(?:restart|reboot)(?:\s+(?:the\s+|my\s+)?(?:computer|machine|system|pc))?$`)
)

func systemRules() []Rule {
	return []Rule{
		{
			Name:   "system.screenshot",
			Domain: "system",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if screenshotRe.MatchString(nlp.Normalize(text)) {
					return hit("screenshot", nil)
				}
				return miss()
			},
		},
		{
			Name:   "system.lock",
			Domain: "system",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if lockRe.MatchString(nlp.Normalize(text)) {
					return hit("lock_screen", nil)
				}
				return miss()
			},
		},
		{
			Name:   "system.shutdown",
			Domain: "system",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if shutdownRe.MatchString(nlp.Normalize(text)) {
					return hit("shutdown", nil)
				}
				return miss()
			},
		},
		{
			Name:   "system.restart",
			Domain: "system",
			Match: func(text string, _ nlp.Signals) (engine.Interpretation, bool) {
				if restartRe.MatchString(nlp.Normalize(text)) {
					return hit("restart", nil)
				}
				return miss()
			},
		},
	}
}
