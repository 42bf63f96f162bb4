// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package plugins

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
	"github.com/AleutianAI/AleutianAssist/services/assist/session"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	routerExecuteTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "router",
		Name:      "execute_total",
		Help:      "Handler invocations by intent and outcome",
	}, []string{"intent", "outcome"})

	routerConfirmationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "router",
		Name:      "confirmation_total",
		Help:      "Pending-confirmation resolutions: confirmed, cancelled, expired",
	}, []string{"outcome"})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var routerTracer = otel.Tracer("aleutian.assist.plugins")

// =============================================================================
// Canned Responses
// =============================================================================

const (
	respUnknown       = "I didn't understand that. Could you rephrase?"
	respCancelled     = "Okay, I won't do that."
	respHandlerFailed = "Sorry, something went wrong while doing that."
	respPluginMissing = "I understood what you want, but no skill is installed for %q."
)

// yesWords are the affirmations that confirm a pending action. Anything
// else cancels it.
var yesWords = map[string]struct{}{
	"yes": {}, "yeah": {}, "yep": {}, "yup": {}, "sure": {},
	"ok": {}, "okay": {}, "do it": {}, "go ahead": {}, "confirm": {}, "y": {},
}

// =============================================================================
// Router
// =============================================================================

// Router is the confirmation state machine between a Decision and the
// final response string.
//
// Description:
//
//	Execute decisions invoke the registered handler (with panic and
//	error absorption). Confirm and Clarify decisions stash the candidate
//	action in the session's pending slot and return the generated
//	prompt. A turn arriving while a confirmation is pending is consumed
//	as a yes/no/other answer to that pending action, never as fresh
//	input.
//
// Thread Safety: Safe for concurrent use across sessions; a session
// serializes its own turns at the service layer.
type Router struct {
	registry *Registry
	store    *session.Store
	logger   *slog.Logger
}

// NewRouter wires the registry and session store.
//
// Inputs:
//
//	registry - The plugin registry. Must not be nil.
//	store - The session store holding pending slots. Must not be nil.
//	logger - Logger instance. Nil falls back to slog.Default().
//
// Outputs:
//
//	*Router - The constructed router. Never nil.
func NewRouter(registry *Registry, store *session.Store, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{registry: registry, store: store, logger: logger}
}

// RespondToPending consumes the turn as an answer to a pending
// confirmation, if one is waiting.
//
// Description:
//
//	The pending slot is consumed either way; an expired slot reports
//	absent and the turn falls through to normal interpretation. "Yes"-
//	like input executes the stored action, anything else cancels it.
//
// Inputs:
//
//	ctx - Context for tracing and handler execution.
//	rawText - The raw utterance.
//	sessionID - The session with the (possible) pending slot.
//
// Outputs:
//
//	string - The response when the turn was consumed here.
//	bool - False when nothing was pending; interpret the turn normally.
func (r *Router) RespondToPending(ctx context.Context, rawText, sessionID string) (string, bool) {
	if !r.store.HasPending(sessionID) {
		return "", false
	}
	pending, ok := r.store.TakePending(sessionID)
	if !ok {
		// Expired between the check and the take; treat as fresh input.
		routerConfirmationTotal.WithLabelValues("expired").Inc()
		return "", false
	}

	norm := nlp.Normalize(rawText)
	if _, yes := yesWords[norm]; !yes {
		routerConfirmationTotal.WithLabelValues("cancelled").Inc()
		r.logger.Debug("pending action cancelled",
			slog.String("session", sessionID),
			slog.String("intent", pending.Intent),
		)
		return respCancelled, true
	}

	routerConfirmationTotal.WithLabelValues("confirmed").Inc()
	return r.invoke(ctx, pending.Intent, Invocation{
		Intent:    pending.Intent,
		Entities:  pending.Entities,
		RawText:   rawText,
		SessionID: sessionID,
	}), true
}

// Execute turns a Decision into the final response string.
//
// Inputs:
//
//	ctx - Context for tracing and handler execution.
//	dec - The decision from the interpretation pipeline.
//	rawText - The (post-rewrite) utterance the decision came from.
//	sessionID - The owning session.
//
// Outputs:
//
//	string - The user-facing response. Never empty; internal failures
//	surface as an apology, not an error.
func (r *Router) Execute(ctx context.Context, dec engine.Decision, rawText, sessionID string) string {
	ctx, span := routerTracer.Start(ctx, "plugins.Router.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("kind", dec.Kind.String()),
		attribute.String("intent", dec.Intent),
	)

	switch dec.Kind {
	case engine.Execute:
		spec, _, found := r.registry.Lookup(dec.Intent)
		if found && spec.RequiresConfirmation {
			// The plugin insists on a yes/no even above the execute band.
			return r.askFirst(dec, sessionID)
		}
		return r.invoke(ctx, dec.Intent, Invocation{
			Intent:    dec.Intent,
			Entities:  dec.Entities,
			RawText:   rawText,
			SessionID: sessionID,
		})

	case engine.Confirm, engine.Clarify:
		return r.askFirst(dec, sessionID)

	case engine.Unknown:
		return respUnknown

	default:
		// Unreachable with the closed DecisionKind set.
		r.logger.Error("unhandled decision kind", slog.Int("kind", int(dec.Kind)))
		return respUnknown
	}
}

// askFirst stashes the candidate action and returns the prompt.
func (r *Router) askFirst(dec engine.Decision, sessionID string) string {
	r.store.SetPending(sessionID, session.Pending{
		Intent:   dec.Intent,
		Entities: dec.Entities,
		Prompt:   dec.Prompt,
	})
	if dec.Prompt != "" {
		return dec.Prompt
	}
	return fmt.Sprintf("Did you want me to %s?", dec.Intent)
}

// invoke runs the handler for intent with panic and error absorption.
func (r *Router) invoke(ctx context.Context, intent string, inv Invocation) (resp string) {
	spec, owner, found := r.registry.Lookup(intent)
	if !found {
		routerExecuteTotal.WithLabelValues(intent, "missing").Inc()
		return fmt.Sprintf(respPluginMissing, intent)
	}

	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			r.logger.Error("handler panicked",
				slog.String("plugin", owner),
				slog.String("intent", intent),
				slog.Any("panic", rec),
				slog.String("stack", string(buf[:n])),
			)
			routerExecuteTotal.WithLabelValues(intent, "panic").Inc()
			resp = respHandlerFailed
		}
	}()

	out, err := spec.Handler(ctx, inv)
	if err != nil {
		r.logger.Error("handler failed",
			slog.String("plugin", owner),
			slog.String("intent", intent),
			slog.Any("error", err),
		)
		routerExecuteTotal.WithLabelValues(intent, "error").Inc()
		return respHandlerFailed
	}

	routerExecuteTotal.WithLabelValues(intent, "ok").Inc()
	return out
}
