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
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianAssist/services/assist/nlp"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	pipelineLayerHitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "pipeline",
		Name:      "layer_hit_total",
		Help:      "Layer outcomes: hit or miss per layer",
	}, []string{"layer", "outcome"})

	pipelineLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assist",
		Subsystem: "pipeline",
		Name:      "latency_seconds",
		Help:      "End-to-end interpretation latency per segment",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	pipelineSegmentsTotal = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assist",
		Subsystem: "pipeline",
		Name:      "segments_per_turn",
		Help:      "Segments produced by the multi-intent segmenter per turn",
		Buckets:   []float64{1, 2},
	})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var pipelineTracer = otel.Tracer("aleutian.assist.engine")

// =============================================================================
// Pipeline
// =============================================================================

// Pipeline runs the three matching layers over one utterance segment and
// merges their candidates into a Decision.
//
// Description:
//
//	The rule layer runs first and short-circuits the others on a hit
//	(rules are exact, confidence 1.0, and always win the merge anyway).
//	Semantic and classifier layers otherwise both run, and the Decider
//	applies the priority arithmetic. Layers are nil-tolerant: a missing
//	layer (e.g. no model artifact shipped) simply never produces a
//	candidate.
//
// Thread Safety: Safe for concurrent use; all fields are read-only after
// construction and the layers are themselves concurrency-safe.
type Pipeline struct {
	rules      RuleLayer
	semantic   SemanticLayer
	classifier ClassifierLayer
	decider    *Decider
	logger     *slog.Logger
}

// NewPipeline wires the interpretation layers to a Decider.
//
// Inputs:
//
//	rules - The rule layer. May be nil (layer disabled).
//	semantic - The semantic layer. May be nil (layer disabled).
//	classifier - The classifier layer. May be nil (layer disabled).
//	decider - The decision merger. Must not be nil.
//	logger - Logger instance. Nil falls back to slog.Default().
//
// Outputs:
//
//	*Pipeline - The constructed pipeline. Never nil.
func NewPipeline(rules RuleLayer, semantic SemanticLayer, classifier ClassifierLayer, decider *Decider, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		rules:      rules,
		semantic:   semantic,
		classifier: classifier,
		decider:    decider,
		logger:     logger,
	}
}

// Interpret resolves one utterance segment to a Decision.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//	text - The (possibly pronoun-rewritten) segment text.
//	sig - Signals extracted from the segment.
//
// Outputs:
//
//	Decision - The merged decision. Never an error; the worst case is
//	Kind Unknown.
//
// Thread Safety: Safe for concurrent use.
func (p *Pipeline) Interpret(ctx context.Context, text string, sig nlp.Signals) Decision {
	start := time.Now()
	ctx, span := pipelineTracer.Start(ctx, "engine.Pipeline.Interpret",
		trace.WithAttributes(attribute.Int("text_len", len(text))),
	)
	defer span.End()

	var rule, semantic, classifier *Interpretation

	if p.rules != nil {
		if in, ok := p.rules.Match(ctx, text, sig); ok {
			rule = &in
			pipelineLayerHitTotal.WithLabelValues("rules", "hit").Inc()
		} else {
			pipelineLayerHitTotal.WithLabelValues("rules", "miss").Inc()
		}
	}

	// An exact rule match short-circuits the statistical layers.
	if rule == nil {
		if p.semantic != nil {
			if in, ok := p.semantic.Match(ctx, text); ok {
				semantic = &in
				pipelineLayerHitTotal.WithLabelValues("semantic", "hit").Inc()
			} else {
				pipelineLayerHitTotal.WithLabelValues("semantic", "miss").Inc()
			}
		}
		if p.classifier != nil {
			if in, ok := p.classifier.Score(ctx, text); ok {
				classifier = &in
				pipelineLayerHitTotal.WithLabelValues("classifier", "hit").Inc()
			} else {
				pipelineLayerHitTotal.WithLabelValues("classifier", "miss").Inc()
			}
		}
	}

	// Merge signal entities into the winner's view: layer-extracted
	// entities win, signal entities fill the gaps.
	for _, cand := range []*Interpretation{rule, semantic, classifier} {
		if cand == nil {
			continue
		}
		if cand.Entities == nil {
			cand.Entities = make(map[string]string, len(sig.Entities))
		}
		for k, v := range sig.Entities {
			if _, exists := cand.Entities[k]; !exists {
				cand.Entities[k] = v
			}
		}
	}

	dec := p.decider.Decide(rule, semantic, classifier)
	elapsed := time.Since(start)
	pipelineLatency.Observe(elapsed.Seconds())

	span.SetAttributes(
		attribute.String("decision.kind", dec.Kind.String()),
		attribute.String("decision.intent", dec.Intent),
		attribute.Float64("decision.confidence", dec.Confidence),
		attribute.String("decision.source", string(dec.Source)),
	)

	p.logger.Debug("segment interpreted",
		slog.String("kind", dec.Kind.String()),
		slog.String("intent", dec.Intent),
		slog.Float64("confidence", dec.Confidence),
		slog.String("source", string(dec.Source)),
		slog.Duration("duration", elapsed),
	)

	return dec
}

// Decider exposes the pipeline's decision merger, for callers that need
// to band a synthetic candidate (context follow-ups) the same way.
func (p *Pipeline) Decider() *Decider {
	return p.decider
}

// ObserveSegments records the segmenter fan-out for one turn.
func ObserveSegments(n int) {
	pipelineSegmentsTotal.Observe(float64(n))
}

// Rank exposes the semantic layer's full debug ranking, or nil when the
// semantic layer is disabled.
func (p *Pipeline) Rank(text string) []RankedCandidate {
	if p.semantic == nil {
		return nil
	}
	return p.semantic.Rank(text)
}
