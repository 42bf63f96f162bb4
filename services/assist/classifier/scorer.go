// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classifier

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianAssist/services/assist/engine"
	"github.com/AleutianAI/AleutianAssist/services/assist/nlp"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	classifierScoreTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "classifier",
		Name:      "score_total",
		Help:      "Classifier outcomes: hit or empty_input",
	}, []string{"outcome"})

	classifierTopProbability = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assist",
		Subsystem: "classifier",
		Name:      "top_probability",
		Help:      "Softmax probability of the winning label per query",
		Buckets:   prometheus.LinearBuckets(0.0, 0.1, 11),
	})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var classifierTracer = otel.Tracer("aleutian.assist.classifier")

// =============================================================================
// Scorer
// =============================================================================

// Scorer implements engine.ClassifierLayer with a single-hidden-layer
// feed-forward pass: binary bag-of-terms input, ReLU hidden layer,
// softmax output.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Scorer struct {
	model  *Model
	logger *slog.Logger
}

// NewScorer builds a Scorer from a validated model.
//
// Inputs:
//
//	model - The model. Must have passed Validate (ParseModel guarantees
//	this).
//	logger - Logger instance. Nil falls back to slog.Default().
//
// Outputs:
//
//	*Scorer - The constructed scorer. Never nil.
func NewScorer(model *Model, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("classifier model loaded",
		slog.Int("hidden_units", len(model.Hidden)),
		slog.Int("labels", len(model.Output)),
	)
	return &Scorer{model: model, logger: logger}
}

// Score runs the forward pass and returns the winning label.
//
// Description:
//
//	Input terms come from the shared nlp.Terms chain, as a binary
//	presence bag. Terms no hidden unit has a weight for are ignored.
//	When nothing in the utterance touches the model's vocabulary the
//	scorer declines instead of emitting a uniform softmax.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//	text - Raw segment text.
//
// Outputs:
//
//	engine.Interpretation - Winning label, softmax probability as
//	confidence, source "classifier".
//	bool - False when no input term is in the model vocabulary.
//
// Thread Safety: Safe for concurrent use.
func (s *Scorer) Score(ctx context.Context, text string) (engine.Interpretation, bool) {
	_, span := classifierTracer.Start(ctx, "classifier.Scorer.Score")
	defer span.End()

	present := make(map[string]struct{})
	for _, term := range nlp.Terms(text) {
		present[term] = struct{}{}
	}

	// Hidden layer: ReLU over sparse weighted presence.
	hidden := make(map[string]float64, len(s.model.Hidden))
	touched := false
	for _, h := range s.model.Hidden {
		sum := h.Bias
		for term, w := range h.Weights {
			if _, ok := present[term]; ok {
				sum += w
				touched = true
			}
		}
		if sum > 0 {
			hidden[h.Name] = sum
		}
	}
	if !touched {
		classifierScoreTotal.WithLabelValues("empty_input").Inc()
		return engine.Interpretation{}, false
	}

	// Output layer and numerically stable softmax.
	logits := make([]float64, len(s.model.Output))
	maxLogit := math.Inf(-1)
	for i, o := range s.model.Output {
		sum := o.Bias
		for name, w := range o.Weights {
			sum += w * hidden[name]
		}
		logits[i] = sum
		if sum > maxLogit {
			maxLogit = sum
		}
	}

	var denom float64
	for _, l := range logits {
		denom += math.Exp(l - maxLogit)
	}

	bestIdx, bestProb := 0, 0.0
	for i, l := range logits {
		p := math.Exp(l-maxLogit) / denom
		if p > bestProb {
			bestIdx, bestProb = i, p
		}
	}

	label := s.model.Output[bestIdx].Label
	classifierScoreTotal.WithLabelValues("hit").Inc()
	classifierTopProbability.Observe(bestProb)
	span.SetAttributes(
		attribute.String("label", label),
		attribute.Float64("probability", bestProb),
	)

	return engine.Interpretation{
		Intent:     label,
		Confidence: bestProb,
		Source:     engine.SourceClassifier,
	}, true
}

// Labels returns the model's output labels, sorted.
func (s *Scorer) Labels() []string {
	out := make([]string, 0, len(s.model.Output))
	for _, o := range s.model.Output {
		out = append(out, o.Label)
	}
	sort.Strings(out)
	return out
}
