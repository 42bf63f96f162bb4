// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianAssist/services/assist/engine"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	semanticMatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "semantic",
		Name:      "match_total",
		Help:      "Semantic layer outcomes: hit, below_threshold, or empty_query",
	}, []string{"outcome"})

	semanticTopSimilarity = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assist",
		Subsystem: "semantic",
		Name:      "top_similarity",
		Help:      "Best cosine similarity per query",
		Buckets:   prometheus.LinearBuckets(0.0, 0.1, 11),
	})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var semanticTracer = otel.Tracer("aleutian.assist.semantic")

// =============================================================================
// Corpus Artifact
// =============================================================================

// IntentExamples is one intent's training block in the corpus artifact.
type IntentExamples struct {
	Intent   string   `yaml:"intent" validate:"required"`
	Examples []string `yaml:"examples" validate:"required,min=1"`
}

// Corpus is the on-disk corpus artifact layout.
type Corpus struct {
	Intents []IntentExamples `yaml:"intents"`
}

// example is one vectorized training utterance.
type example struct {
	intent string
	text   string
	vec    Vector
}

// =============================================================================
// Matcher
// =============================================================================

// Matcher implements engine.SemanticLayer: it compares the query vector
// against every example vector and reports the best intent when the top
// similarity clears the match threshold.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Matcher struct {
	vectorizer *Vectorizer
	examples   []example
	threshold  float64
	logger     *slog.Logger
}

// NewMatcher builds a Matcher from a parsed corpus.
//
// Description:
//
//	The IDF table, example vectors, and per-intent bookkeeping are all
//	computed here, deterministically from the corpus text. There is no
//	separate training step; reloading the corpus file IS retraining.
//
// Inputs:
//
//	corpus - The parsed corpus. Must contain at least one intent.
//	threshold - Minimum cosine similarity for a match, typically from
//	config (0.75 by default).
//	logger - Logger instance. Nil falls back to slog.Default().
//
// Outputs:
//
//	*Matcher - The constructed matcher.
//	error - Non-nil when the corpus is empty or an intent has no examples.
func NewMatcher(corpus *Corpus, threshold float64, logger *slog.Logger) (*Matcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if corpus == nil || len(corpus.Intents) == 0 {
		return nil, fmt.Errorf("semantic: corpus has no intents")
	}

	var docs []string
	for _, block := range corpus.Intents {
		if block.Intent == "" {
			return nil, fmt.Errorf("semantic: corpus block with empty intent name")
		}
		if len(block.Examples) == 0 {
			return nil, fmt.Errorf("semantic: intent %q has no examples", block.Intent)
		}
		docs = append(docs, block.Examples...)
	}

	vectorizer := BuildVectorizer(docs)

	var examples []example
	for _, block := range corpus.Intents {
		for _, text := range block.Examples {
			vec := vectorizer.Vectorize(text)
			if len(vec) == 0 {
				// All terms were stopwords; the example can never match.
				logger.Warn("corpus example vectorized to zero, skipping",
					slog.String("intent", block.Intent),
					slog.String("example", text),
				)
				continue
			}
			examples = append(examples, example{intent: block.Intent, text: text, vec: vec})
		}
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("semantic: corpus produced no usable example vectors")
	}

	logger.Info("semantic corpus loaded",
		slog.Int("intents", len(corpus.Intents)),
		slog.Int("examples", len(examples)),
		slog.Int("vocabulary", vectorizer.VocabularySize()),
	)

	return &Matcher{
		vectorizer: vectorizer,
		examples:   examples,
		threshold:  threshold,
		logger:     logger,
	}, nil
}

// Match resolves text to the intent of its most similar example.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//	text - Raw segment text.
//
// Outputs:
//
//	engine.Interpretation - Intent, similarity as confidence, source
//	"semantic", and the matched example for explainability.
//	bool - False when the query vectorizes to zero or the best
//	similarity is below the threshold.
//
// Thread Safety: Safe for concurrent use.
func (m *Matcher) Match(ctx context.Context, text string) (engine.Interpretation, bool) {
	_, span := semanticTracer.Start(ctx, "semantic.Matcher.Match")
	defer span.End()

	query := m.vectorizer.Vectorize(text)
	if len(query) == 0 {
		semanticMatchTotal.WithLabelValues("empty_query").Inc()
		return engine.Interpretation{}, false
	}

	best := -1.0
	var bestEx example
	for _, ex := range m.examples {
		if sim := Cosine(query, ex.vec); sim > best {
			best = sim
			bestEx = ex
		}
	}
	semanticTopSimilarity.Observe(best)
	span.SetAttributes(
		attribute.Float64("top_similarity", best),
		attribute.String("top_intent", bestEx.intent),
	)

	if best < m.threshold {
		semanticMatchTotal.WithLabelValues("below_threshold").Inc()
		return engine.Interpretation{}, false
	}

	semanticMatchTotal.WithLabelValues("hit").Inc()
	return engine.Interpretation{
		Intent:         bestEx.intent,
		Confidence:     best,
		Source:         engine.SourceSemantic,
		MatchedExample: bestEx.text,
	}, true
}

// Rank returns every intent scored by its best example similarity, in
// descending order. This is the debug/interpret view; it ignores the
// match threshold on purpose so operators can see near misses.
//
// Thread Safety: Safe for concurrent use.
func (m *Matcher) Rank(text string) []engine.RankedCandidate {
	query := m.vectorizer.Vectorize(text)

	type bestHit struct {
		sim     float64
		example string
	}
	byIntent := make(map[string]bestHit)
	for _, ex := range m.examples {
		sim := Cosine(query, ex.vec)
		if cur, ok := byIntent[ex.intent]; !ok || sim > cur.sim {
			byIntent[ex.intent] = bestHit{sim: sim, example: ex.text}
		}
	}

	out := make([]engine.RankedCandidate, 0, len(byIntent))
	for intent, hit := range byIntent {
		out = append(out, engine.RankedCandidate{
			Intent:     intent,
			Similarity: hit.sim,
			Example:    hit.example,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Intent < out[j].Intent
	})
	return out
}

// Intents returns the distinct intent names the corpus covers, sorted.
func (m *Matcher) Intents() []string {
	seen := make(map[string]struct{})
	for _, ex := range m.examples {
		seen[ex.intent] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for intent := range seen {
		out = append(out, intent)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// Corpus Loading
// =============================================================================

// maxCorpusFileSize bounds corpus artifacts read from disk.
const maxCorpusFileSize = 1 << 20 // 1 MiB

// ParseCorpus decodes a YAML corpus document.
func ParseCorpus(data []byte) (*Corpus, error) {
	var corpus Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("semantic: failed to parse corpus: %w", err)
	}
	return &corpus, nil
}

// LoadCorpusFile reads and parses a corpus artifact from disk.
//
// Inputs:
//
//	path - Path to the YAML corpus file.
//
// Outputs:
//
//	*Corpus - The parsed corpus.
//	error - Non-nil when the file is missing, oversized, or malformed.
//	Callers treat any error as "layer disabled", not a startup failure.
func LoadCorpusFile(path string) (*Corpus, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("semantic: failed to stat corpus %s: %w", path, err)
	}
	if info.Size() > maxCorpusFileSize {
		return nil, fmt.Errorf("semantic: corpus %s exceeds %d bytes", path, maxCorpusFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("semantic: failed to read corpus %s: %w", path, err)
	}
	return ParseCorpus(data)
}
