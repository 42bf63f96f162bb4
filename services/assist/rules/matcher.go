// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules implements the highest-priority interpretation layer: an
// ordered set of independently pluggable pattern functions. The first
// matching rule wins with confidence 1.0 and short-circuits the
// statistical layers.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

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
	ruleMatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "rules",
		Name:      "match_total",
		Help:      "Rule matches by rule name",
	}, []string{"rule"})

	rulePanicTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "rules",
		Name:      "panic_total",
		Help:      "Rules skipped due to a recovered panic, by rule name",
	}, []string{"rule"})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var rulesTracer = otel.Tracer("aleutian.assist.rules")

// =============================================================================
// Rule Types
// =============================================================================

// MatchFunc inspects an utterance and either claims it or declines.
//
// Description:
//
//	A false return is an ordinary miss. A panic inside a MatchFunc is
//	recovered by the matcher and treated as a skip — one faulty rule can
//	never break the pipeline — but it is logged and counted separately
//	so a broken rule does not hide behind the miss statistics.
type MatchFunc func(text string, sig nlp.Signals) (engine.Interpretation, bool)

// Rule is one named, domain-tagged pattern function.
type Rule struct {
	// Name uniquely identifies the rule ("greeting.hello").
	Name string

	// Domain groups rules for inventory ("greetings", "files", "media",
	// "devtools", "ambiguity").
	Domain string

	// Match is the pattern function.
	Match MatchFunc
}

// =============================================================================
// Matcher
// =============================================================================

// Matcher holds the ordered rule list and implements engine.RuleLayer.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Matcher struct {
	rules  []Rule
	logger *slog.Logger
}

// NewMatcher builds a Matcher from an explicit rule list.
//
// Description:
//
//	Rules are tried in the given order; load order is priority order.
//	Duplicate rule names are a construction error — rule sets are meant
//	to be independently addable and a silent shadow would make that
//	untrustworthy.
//
// Inputs:
//
//	rules - The ordered rule list. May be empty.
//	logger - Logger instance. Nil falls back to slog.Default().
//
// Outputs:
//
//	*Matcher - The constructed matcher.
//	error - Non-nil on a duplicate rule name or a rule without a Match func.
func NewMatcher(rules []Rule, logger *slog.Logger) (*Matcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[string]struct{}, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rules: rule %d has no name", i)
		}
		if r.Match == nil {
			return nil, fmt.Errorf("rules: rule %q has no match function", r.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("rules: duplicate rule name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return &Matcher{rules: rules, logger: logger}, nil
}

// Match tries each rule in order and returns the first hit.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//	text - Raw segment text.
//	sig - Extracted signals for the segment.
//
// Outputs:
//
//	engine.Interpretation - The winning interpretation, confidence 1.0,
//	source "rules".
//	bool - False when no rule matched.
//
// Thread Safety: Safe for concurrent use.
func (m *Matcher) Match(ctx context.Context, text string, sig nlp.Signals) (engine.Interpretation, bool) {
	_, span := rulesTracer.Start(ctx, "rules.Matcher.Match")
	defer span.End()

	for _, rule := range m.rules {
		in, ok := m.tryRule(rule, text, sig)
		if !ok {
			continue
		}

		in.Confidence = 1.0
		in.Source = engine.SourceRules

		ruleMatchTotal.WithLabelValues(rule.Name).Inc()
		span.SetAttributes(
			attribute.String("rule", rule.Name),
			attribute.String("intent", in.Intent),
		)
		m.logger.Debug("rule matched",
			slog.String("rule", rule.Name),
			slog.String("intent", in.Intent),
		)
		return in, true
	}

	return engine.Interpretation{}, false
}

// tryRule invokes one rule with panic isolation.
func (m *Matcher) tryRule(rule Rule, text string, sig nlp.Signals) (in engine.Interpretation, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 2048)
			n := runtime.Stack(buf, false)
			m.logger.Error("rule panicked, skipping",
				slog.String("rule", rule.Name),
				slog.Any("panic", r),
				slog.String("stack", string(buf[:n])),
			)
			rulePanicTotal.WithLabelValues(rule.Name).Inc()
			in, ok = engine.Interpretation{}, false
		}
	}()
	return rule.Match(text, sig)
}

// Rules returns the rule inventory (name and domain only), for the
// plugin/rule listing endpoint.
func (m *Matcher) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}
