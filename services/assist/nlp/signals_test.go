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

import "testing"

// =============================================================================
// Question Type & Command-likeness
// =============================================================================

func TestExtract_QuestionType(t *testing.T) {
	tests := []struct {
		in   string
		want QuestionType
	}{
		{"what time is it", QuestionWhat},
		{"whats the git status", QuestionWhat},
		{"where is my file", QuestionWhere},
		{"how do i push", QuestionHow},
		{"can you open youtube", QuestionYesNo},
		{"open youtube", QuestionNone},
		{"", QuestionNone},
	}
	for _, tt := range tests {
		if got := Extract(tt.in).QuestionType; got != tt.want {
			t.Errorf("Extract(%q).QuestionType = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtract_IsCommand(t *testing.T) {
	if !Extract("open youtube").IsCommand {
		t.Error("imperative lead should be a command")
	}
	if Extract("can you open youtube").IsCommand {
		t.Error("a question is not a command even with a verb inside")
	}
	if Extract("the weather is nice").IsCommand {
		t.Error("declarative text is not a command")
	}
}

// =============================================================================
// Sentiment
// =============================================================================

func TestExtract_Sentiment(t *testing.T) {
	if got := Extract("thanks that was great").Sentiment; got != SentimentPositive {
		t.Errorf("sentiment = %q, want positive", got)
	}
	if got := Extract("this is terrible and broken").Sentiment; got != SentimentNegative {
		t.Errorf("sentiment = %q, want negative", got)
	}
	if got := Extract("open the file").Sentiment; got != SentimentNeutral {
		t.Errorf("sentiment = %q, want neutral", got)
	}
}

// =============================================================================
// Entities
// =============================================================================

func TestExtract_WebsiteEntity(t *testing.T) {
	sig := Extract("open youtube please")
	if sig.Entities["website"] != "youtube.com" {
		t.Errorf("website = %q, want youtube.com", sig.Entities["website"])
	}
}

func TestExtract_AppEntity(t *testing.T) {
	sig := Extract("launch the terminal")
	if sig.Entities["app"] != "terminal" {
		t.Errorf("app = %q, want terminal", sig.Entities["app"])
	}
}

func TestExtract_FileEntity(t *testing.T) {
	sig := Extract("delete the file notes.txt")
	if sig.Entities["file"] != "notes.txt" {
		t.Errorf("file = %q, want notes.txt", sig.Entities["file"])
	}
}

func TestExtract_SongEntity(t *testing.T) {
	sig := Extract("play some jazz")
	if sig.Entities["song"] != "jazz" {
		t.Errorf("song = %q, want jazz", sig.Entities["song"])
	}
	// A generic "play music" names no specific song.
	if got := Extract("play music").Entities["song"]; got != "" {
		t.Errorf("song = %q, want empty for generic play", got)
	}
}

func TestExtract_QueryEntity(t *testing.T) {
	sig := Extract("search for go tutorials")
	if sig.Entities["query"] != "go tutorials" {
		t.Errorf("query = %q, want go tutorials", sig.Entities["query"])
	}
}

func TestExtract_EntitiesNeverNil(t *testing.T) {
	if Extract("").Entities == nil {
		t.Error("Entities must never be nil")
	}
}
