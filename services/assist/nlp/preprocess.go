// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package nlp provides the deterministic text front end of the assist
// pipeline: normalization, tokenization, stopword removal, suffix
// lemmatization, and coarse signal extraction. Everything here is pure —
// identical input always yields identical output.
package nlp

import (
	"strings"
	"unicode"
)

// =============================================================================
// Normalization
// =============================================================================

// Normalize lowercases text, strips punctuation outside the whitelist,
// and collapses runs of whitespace to single spaces.
//
// Description:
//
//	The whitelist keeps letters, digits, and spaces. Apostrophes,
//	hyphens, and dots survive only between two word characters ("don't",
//	"force-push", "notes.txt", "youtube.com") so trailing quotes, dashes,
//	and sentence periods never leak into tokens.
//
// Inputs:
//
//	text - Raw utterance text. May be empty.
//
// Outputs:
//
//	string - The normalized text. Empty input yields "".
func Normalize(text string) string {
	lower := strings.ToLower(text)
	runes := []rune(lower)

	var b strings.Builder
	b.Grow(len(lower))

	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '-' || r == '.':
			// Keep only when joining two word characters.
			if i > 0 && i < len(runes)-1 &&
				isWordRune(runes[i-1]) && isWordRune(runes[i+1]) {
				b.WriteRune(r)
			}
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// Punctuation outside the whitelist becomes a separator so
			// "music,then" still splits into two tokens.
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// isWordRune reports whether r can appear inside a token.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize normalizes text and splits it on whitespace.
//
// Outputs:
//
//	[]string - The token sequence. Empty input yields an empty slice,
//	never nil panics downstream, so nil is acceptable here.
func Tokenize(text string) []string {
	return strings.Fields(Normalize(text))
}

// =============================================================================
// Stopwords
// =============================================================================

// stopwords is the fixed removal set. Deliberately small: aggressive
// stopword removal destroys short commands ("turn it off" would vanish).
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"is": {}, "am": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "at": {}, "for": {},
	"please": {}, "kindly": {}, "can": {}, "could": {}, "would": {},
	"you": {}, "me": {}, "my": {},
}

// RemoveStopwords filters the fixed stopword set from tokens.
//
// Inputs:
//
//	tokens - Token sequence, typically from Tokenize.
//
// Outputs:
//
//	[]string - Tokens with stopwords removed, original order preserved.
func RemoveStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// =============================================================================
// Lemmatization
// =============================================================================

// Lemma applies lightweight suffix stripping to a single token.
//
// Description:
//
//	Rule order matters: longer suffixes first. This is intentionally a
//	crude stemmer, not Porter — the vocabulary is small command language
//	and the semantic layer tolerates near-misses. Tokens of 3 runes or
//	fewer pass through untouched.
//
// Outputs:
//
//	string - The stripped token.
func Lemma(token string) string {
	if len(token) <= 3 {
		return token
	}

	switch {
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "ing") && len(token) > 5:
		return token[:len(token)-3]
	case strings.HasSuffix(token, "ed") && len(token) > 4:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "es") && len(token) > 4 && sibilantStem(token[:len(token)-2]):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss"):
		return token[:len(token)-1]
	}
	return token
}

// sibilantStem reports whether stem takes an "es" plural (search/es,
// box/es). Anything else keeps its "e" ("files" strips only the "s").
func sibilantStem(stem string) bool {
	for _, suffix := range []string{"s", "x", "z", "ch", "sh"} {
		if strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return false
}

// Terms runs the full preprocessing chain: tokenize, remove stopwords,
// lemmatize. This is the canonical token view the semantic matcher and
// classifier share; both sides of a comparison must use the same chain.
//
// Outputs:
//
//	[]string - Processed terms in input order. May be empty.
func Terms(text string) []string {
	tokens := RemoveStopwords(Tokenize(text))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, Lemma(tok))
	}
	return out
}
