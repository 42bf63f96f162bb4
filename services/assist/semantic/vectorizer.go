// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package semantic implements the similarity matching layer: TF-IDF
// term vectors over a fixed example corpus, compared by cosine
// similarity against every stored example per intent.
package semantic

import (
	"math"

	"github.com/AleutianAI/AleutianAssist/services/assist/nlp"
)

// =============================================================================
// TF-IDF Vectorizer
// =============================================================================

// Vector is a sparse term-weight map. All stored vectors are
// L2-normalized at build time so cosine reduces to a sparse dot product.
type Vector map[string]float64

// Vectorizer holds the vocabulary IDF weights shared by the offline
// corpus build and the online query path. Both sides MUST vectorize
// through the same instance or similarities are meaningless.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Vectorizer struct {
	// idf maps each vocabulary term to its inverse document frequency,
	// computed with Lucene-style add-one smoothing: log((N+1)/(df+1))+1.
	idf map[string]float64
}

// BuildVectorizer computes IDF weights over a document corpus.
//
// Description:
//
//	Each document is one training utterance. Terms come from the shared
//	nlp.Terms preprocessing chain, deduplicated per document for the
//	document-frequency count. The +1 smoothing keeps unseen-term
//	division impossible and floors IDF at 1.
//
// Inputs:
//
//	docs - Training utterances. Empty input yields a vectorizer with an
//	empty vocabulary (all queries vectorize to zero).
//
// Outputs:
//
//	*Vectorizer - The constructed vectorizer. Never nil.
func BuildVectorizer(docs []string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range nlp.Terms(doc) {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	n := len(docs)
	idf := make(map[string]float64, len(df))
	for term, freq := range df {
		idf[term] = math.Log(float64(n+1)/float64(freq+1)) + 1.0
	}
	return &Vectorizer{idf: idf}
}

// Vectorize maps text to its L2-normalized TF-IDF vector.
//
// Description:
//
//	Term frequency is the raw in-document count; terms outside the
//	vocabulary are dropped (they carry no comparable weight). The zero
//	vector is returned as an empty map.
//
// Outputs:
//
//	Vector - The normalized sparse vector. Never nil.
func (v *Vectorizer) Vectorize(text string) Vector {
	tf := make(map[string]int)
	for _, term := range nlp.Terms(text) {
		if _, known := v.idf[term]; !known {
			continue
		}
		tf[term]++
	}

	vec := make(Vector, len(tf))
	for term, count := range tf {
		vec[term] = float64(count) * v.idf[term]
	}
	return normalize(vec)
}

// VocabularySize returns the number of weighted terms.
func (v *Vectorizer) VocabularySize() int {
	return len(v.idf)
}

// normalize scales vec to unit L2 length in place and returns it.
func normalize(vec Vector) Vector {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return vec
	}
	mag := math.Sqrt(sum)
	for term, w := range vec {
		vec[term] = w / mag
	}
	return vec
}

// =============================================================================
// Cosine Similarity
// =============================================================================

// Cosine computes dot(a,b) / (|a|·|b|).
//
// Description:
//
//	Defined as 0 when either vector has zero magnitude. For the
//	normalized vectors this package stores, the magnitudes are 1 and the
//	division is a no-op, but Cosine does not assume its inputs are
//	normalized — it is also the primitive the tests exercise directly.
//
// Outputs:
//
//	float64 - Similarity in [-1, 1]; [0, 1] for non-negative weights.
func Cosine(a, b Vector) float64 {
	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for term, wa := range a {
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	if dot == 0 {
		return 0
	}

	magA := magnitude(a)
	magB := magnitude(b)
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (magA * magB)
}

// magnitude returns the L2 norm of vec.
func magnitude(vec Vector) float64 {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Centroid computes the mean of a set of vectors, L2-normalized.
//
// Description:
//
//	Used as an intent's semantic "center" in the debug ranking and in
//	artifact summaries. Matching itself compares against every example,
//	not the centroid, to tolerate intents with diverse phrasing.
//
// Outputs:
//
//	Vector - The normalized mean vector. Empty for empty input.
func Centroid(vecs []Vector) Vector {
	if len(vecs) == 0 {
		return Vector{}
	}
	sum := make(Vector)
	for _, vec := range vecs {
		for term, w := range vec {
			sum[term] += w
		}
	}
	n := float64(len(vecs))
	for term := range sum {
		sum[term] /= n
	}
	return normalize(sum)
}
