// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assist composes the intent resolution engine into one service:
// pipeline construction, artifact loading, the per-turn command flow,
// and the HTTP surface that exposes it.
package assist

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianAssist/services/assist/classifier"
	"github.com/AleutianAI/AleutianAssist/services/assist/config"
	"github.com/AleutianAI/AleutianAssist/services/assist/engine"
	"github.com/AleutianAI/AleutianAssist/services/assist/nlp"
	"github.com/AleutianAI/AleutianAssist/services/assist/plugins"
	"github.com/AleutianAI/AleutianAssist/services/assist/rules"
	"github.com/AleutianAI/AleutianAssist/services/assist/semantic"
	"github.com/AleutianAI/AleutianAssist/services/assist/session"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	commandTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "service",
		Name:      "command_total",
		Help:      "Commands handled end to end",
	})

	commandLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assist",
		Subsystem: "service",
		Name:      "command_latency_seconds",
		Help:      "End-to-end command handling latency",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	reloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "service",
		Name:      "reload_total",
		Help:      "Artifact reloads by outcome",
	}, []string{"outcome"})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var serviceTracer = otel.Tracer("aleutian.assist")

// =============================================================================
// Service
// =============================================================================

// CommandResult is the engine's answer to one utterance.
type CommandResult struct {
	// SessionID identifies the session, generated when the request
	// carried none.
	SessionID string `json:"session_id"`

	// Response is the user-facing reply, segment replies joined.
	Response string `json:"response"`

	// Decisions holds the per-segment decisions, in execution order.
	Decisions []engine.Decision `json:"decisions"`

	// Segments are the independently interpreted clauses.
	Segments []string `json:"segments"`
}

// Service owns the interpretation pipeline, session store, and plugin
// router, with a defined lifecycle: construct, Start, Reload, Shutdown.
//
// Thread Safety: Safe for concurrent use. The pipeline pointer is
// swapped wholesale under the lock on reload; request paths take a
// read-lock snapshot.
type Service struct {
	cfg    *config.AssistConfig
	logger *slog.Logger

	mu       sync.RWMutex
	pipeline *engine.Pipeline

	registry *plugins.Registry
	router   *plugins.Router
	store    *session.Store

	started time.Time
}

// NewService builds a fully wired Service.
//
// Description:
//
//	Rule, semantic, and classifier layers are constructed here. Missing
//	or corrupt semantic/classifier artifacts disable the affected layer
//	and log a warning; they never fail construction. A broken rule set
//	or plugin registry bug is a programming error and does fail.
//
// Inputs:
//
//	cfg - Loaded configuration. Must not be nil.
//	exec - Side-effect executor for the built-in skills. Must not be nil.
//	logger - Logger instance. Nil falls back to slog.Default().
//
// Outputs:
//
//	*Service - The constructed service. Call Start to begin sweeps.
//	error - Non-nil on rule or plugin wiring failures.
func NewService(cfg *config.AssistConfig, exec plugins.Executor, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	matcher, err := rules.NewMatcher(rules.DefaultRules(), logger)
	if err != nil {
		return nil, fmt.Errorf("assist: rule matcher: %w", err)
	}

	store := session.NewStore(cfg.Session, logger)

	registry := plugins.NewRegistry(logger)
	if errs := registry.RegisterAll(plugins.BuiltinPlugins(exec)); len(errs) > 0 {
		// Built-in skills are compiled in; any rejection is a bug.
		return nil, fmt.Errorf("assist: built-in plugin rejected: %w", errs[0])
	}

	s := &Service{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		store:    store,
		router:   plugins.NewRouter(registry, store, logger),
		started:  time.Now(),
	}
	s.pipeline = s.buildPipeline(context.Background(), matcher)
	return s, nil
}

// buildPipeline loads the statistical artifacts and assembles a
// Pipeline. The semantic and classifier loads run in parallel; either
// failing leaves its layer nil (disabled).
func (s *Service) buildPipeline(ctx context.Context, matcher engine.RuleLayer) *engine.Pipeline {
	var (
		sem *semantic.Matcher
		clf *classifier.Scorer
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		corpus, err := s.loadCorpus()
		if err != nil {
			s.logger.Warn("semantic layer disabled", slog.Any("error", err))
			return nil
		}
		m, err := semantic.NewMatcher(corpus, s.cfg.Thresholds.SemanticMatch, s.logger)
		if err != nil {
			s.logger.Warn("semantic layer disabled", slog.Any("error", err))
			return nil
		}
		sem = m
		return nil
	})
	g.Go(func() error {
		model, err := s.loadModel()
		if err != nil {
			s.logger.Warn("classifier layer disabled", slog.Any("error", err))
			return nil
		}
		clf = classifier.NewScorer(model, s.logger)
		return nil
	})
	_ = g.Wait() // loaders absorb their own errors

	// Interface values must stay nil when the loaders failed; a typed
	// nil pointer would defeat the pipeline's nil checks.
	var semLayer engine.SemanticLayer
	if sem != nil {
		semLayer = sem
	}
	var clfLayer engine.ClassifierLayer
	if clf != nil {
		clfLayer = clf
	}

	return engine.NewPipeline(matcher, semLayer, clfLayer, engine.NewDecider(s.cfg), s.logger)
}

// loadCorpus prefers the artifact directory, falling back to the
// embedded corpus when none is configured.
func (s *Service) loadCorpus() (*semantic.Corpus, error) {
	if s.cfg.ArtifactDir != "" {
		return semantic.LoadCorpusFile(filepath.Join(s.cfg.ArtifactDir, "intents.yaml"))
	}
	return semantic.DefaultCorpus()
}

// loadModel mirrors loadCorpus for the classifier artifact.
func (s *Service) loadModel() (*classifier.Model, error) {
	if s.cfg.ArtifactDir != "" {
		return classifier.LoadModelFile(filepath.Join(s.cfg.ArtifactDir, "model.yaml"))
	}
	return classifier.DefaultModel()
}

// Start launches the session store's background sweep.
func (s *Service) Start(ctx context.Context) {
	s.store.Start(ctx)
	s.logger.Info("assist service started",
		slog.Int("plugins", len(s.registry.List())),
		slog.Int("intents", s.registry.IntentCount()),
	)
}

// Shutdown stops background work. Safe to call more than once.
func (s *Service) Shutdown() {
	s.store.Stop()
	s.logger.Info("assist service stopped")
}

// Reload rebuilds the statistical layers from their artifacts and swaps
// the pipeline wholesale. Rules and plugins are compiled in and do not
// reload. In-flight requests keep the old pipeline snapshot.
func (s *Service) Reload(ctx context.Context) {
	matcher, err := rules.NewMatcher(rules.DefaultRules(), s.logger)
	if err != nil {
		// DefaultRules is static; this cannot fail outside of a bug.
		s.logger.Error("reload kept previous pipeline", slog.Any("error", err))
		reloadTotal.WithLabelValues("failed").Inc()
		return
	}
	p := s.buildPipeline(ctx, matcher)

	s.mu.Lock()
	s.pipeline = p
	s.mu.Unlock()

	reloadTotal.WithLabelValues("ok").Inc()
	s.logger.Info("artifacts reloaded")
}

// currentPipeline snapshots the pipeline pointer.
func (s *Service) currentPipeline() *engine.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

// =============================================================================
// Command Flow
// =============================================================================

// HandleCommand resolves one utterance end to end.
//
// Description:
//
//	The turn order is fixed: (1) a pending confirmation consumes the
//	turn as yes/no; (2) the follow-up table may answer from context
//	without the pipeline; (3) pronouns are rewritten from history;
//	(4) the segmenter splits conjoined commands; (5) each segment is
//	interpreted and routed independently, responses joined in order.
//	Every segment is recorded in session history afterwards.
//
// Inputs:
//
//	ctx - Request context for tracing and handler execution.
//	text - Raw utterance text.
//	sessionID - Session key; empty generates a fresh session.
//
// Outputs:
//
//	CommandResult - Response plus decision metadata. Never an error:
//	internal failures surface as apologetic response text.
func (s *Service) HandleCommand(ctx context.Context, text, sessionID string) CommandResult {
	start := time.Now()
	ctx, span := serviceTracer.Start(ctx, "assist.Service.HandleCommand")
	defer span.End()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("session", sessionID))
	commandTotal.Inc()
	defer func() { commandLatency.Observe(time.Since(start).Seconds()) }()

	// A pending confirmation owns the turn.
	if resp, handled := s.router.RespondToPending(ctx, text, sessionID); handled {
		s.store.Record(sessionID, session.ContextEntry{
			Intent:   "confirmation_response",
			Input:    text,
			Response: resp,
		})
		return CommandResult{
			SessionID: sessionID,
			Response:  resp,
			Segments:  []string{text},
		}
	}

	history := s.store.History(sessionID)
	pipeline := s.currentPipeline()

	// Context follow-ups bypass the pipeline but not the safety bands.
	if in, ok := session.DetectFollowUp(text, history); ok {
		dec := pipeline.Decider().Band(in, fmt.Sprintf("follow-up of %q", history[len(history)-1].Intent))
		resp := s.router.Execute(ctx, dec, text, sessionID)
		s.store.Record(sessionID, session.ContextEntry{
			Intent:   dec.Intent,
			Entities: dec.Entities,
			Input:    text,
			Response: resp,
		})
		return CommandResult{
			SessionID: sessionID,
			Response:  resp,
			Decisions: []engine.Decision{dec},
			Segments:  []string{text},
		}
	}

	resolved, rewritten := session.ResolvePronouns(text, history)
	if rewritten {
		span.SetAttributes(attribute.String("rewritten", resolved))
	}

	segments := engine.Segment(resolved)
	engine.ObserveSegments(len(segments))

	result := CommandResult{
		SessionID: sessionID,
		Segments:  segments,
		Decisions: make([]engine.Decision, 0, len(segments)),
	}
	responses := make([]string, 0, len(segments))

	for _, seg := range segments {
		sig := nlp.Extract(seg)
		dec := pipeline.Interpret(ctx, seg, sig)
		resp := s.router.Execute(ctx, dec, seg, sessionID)

		result.Decisions = append(result.Decisions, dec)
		responses = append(responses, resp)

		s.store.Record(sessionID, session.ContextEntry{
			Intent:   dec.Intent,
			Entities: dec.Entities,
			Input:    seg,
			Response: resp,
		})
	}

	result.Response = strings.Join(responses, " ")
	return result
}

// =============================================================================
// Introspection
// =============================================================================

// InterpretResult is the debug view of one utterance: decisions without
// execution, plus the semantic layer's full ranking.
type InterpretResult struct {
	Segments  []string                 `json:"segments"`
	Decisions []engine.Decision        `json:"decisions"`
	Ranking   []engine.RankedCandidate `json:"ranking,omitempty"`
}

// Interpret resolves text without executing anything. Session state is
// neither read nor written; this is a stateless debugging view.
func (s *Service) Interpret(ctx context.Context, text string) InterpretResult {
	pipeline := s.currentPipeline()
	segments := engine.Segment(text)

	out := InterpretResult{
		Segments: segments,
		Ranking:  pipeline.Rank(text),
	}
	for _, seg := range segments {
		out.Decisions = append(out.Decisions, pipeline.Interpret(ctx, seg, nlp.Extract(seg)))
	}
	return out
}

// Sessions lists resident sessions.
func (s *Service) Sessions() []session.SessionInfo {
	return s.store.List()
}

// DestroySession removes one session immediately.
func (s *Service) DestroySession(id string) bool {
	return s.store.Destroy(id)
}

// Plugins lists the registered plugins.
func (s *Service) Plugins() []plugins.PluginInfo {
	return s.registry.List()
}

// Uptime reports time since construction, for the health endpoint.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.started)
}
