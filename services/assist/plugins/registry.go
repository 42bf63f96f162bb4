// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package plugins holds the intent handler registry and the skill
// router: the confirmation state machine that turns a Decision into a
// user-facing response by invoking the right handler, or asking first.
package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	pluginRegisteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assist",
		Subsystem: "plugins",
		Name:      "registered_total",
		Help:      "Plugin registration outcomes",
	}, []string{"outcome"})

	pluginIntents = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "assist",
		Subsystem: "plugins",
		Name:      "intents",
		Help:      "Intent handlers currently registered",
	})
)

// =============================================================================
// Plugin Contract
// =============================================================================

// Invocation carries everything a handler may need about the turn.
type Invocation struct {
	// Intent is the resolved intent name.
	Intent string

	// Entities are the slot values attached to the decision.
	Entities map[string]string

	// RawText is the original utterance (post pronoun rewrite).
	RawText string

	// SessionID identifies the conversational session.
	SessionID string
}

// Handler executes one intent and returns the user-facing response.
// Errors and panics are absorbed by the router, never shown raw.
type Handler func(ctx context.Context, inv Invocation) (string, error)

// IntentSpec declares one intent a plugin can handle.
type IntentSpec struct {
	// Handler is the action implementation. Required.
	Handler Handler `validate:"required"`

	// Confidence is the plugin's self-declared reliability in [0,1].
	Confidence float64 `validate:"gte=0,lte=1"`

	// RequiresConfirmation forces a yes/no round-trip even when the
	// decision engine would execute outright.
	RequiresConfirmation bool
}

// Plugin bundles a named set of intent handlers.
type Plugin struct {
	// Name uniquely identifies the plugin ("media", "files").
	Name string `validate:"required"`

	// Description is a one-line summary for the listing endpoint.
	Description string

	// Intents maps intent names to their specs. Intent names must be
	// globally unique across all registered plugins.
	Intents map[string]IntentSpec `validate:"required,min=1,dive"`
}

// PluginInfo is the read-only listing view of one registered plugin.
type PluginInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Intents     []string `json:"intents"`
}

// =============================================================================
// Registry
// =============================================================================

// Registry validates and indexes intent handlers by intent name.
//
// Description:
//
//	Registration happens once at startup (or wholesale on reload);
//	lookups at request time are read-only. A plugin that fails
//	validation is rejected individually — the registry and the other
//	plugins stay usable. A duplicate intent name is refused with an
//	error naming the plugin that already claimed it.
//
// Thread Safety: Register is not safe concurrently with Lookup; finish
// registration before serving, as the service lifecycle does.
type Registry struct {
	validate *validator.Validate
	logger   *slog.Logger

	plugins map[string]Plugin
	// byIntent maps an intent name to the owning plugin name.
	byIntent map[string]string
}

// NewRegistry creates an empty registry.
//
// Inputs:
//
//	logger - Logger instance. Nil falls back to slog.Default().
//
// Outputs:
//
//	*Registry - The constructed registry. Never nil.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		plugins:  make(map[string]Plugin),
		byIntent: make(map[string]string),
	}
}

// Register validates and indexes one plugin.
//
// Description:
//
//	The whole plugin is accepted or rejected atomically: if any intent
//	spec is invalid or any intent name is already claimed, none of the
//	plugin's intents are registered.
//
// Inputs:
//
//	p - The plugin to register.
//
// Outputs:
//
//	error - Non-nil on contract violation or duplicate intent name; the
//	duplicate error names the conflicting plugin.
func (r *Registry) Register(p Plugin) error {
	if err := r.validate.Struct(p); err != nil {
		pluginRegisteredTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("plugins: plugin %q failed validation: %w", p.Name, err)
	}
	if _, dup := r.plugins[p.Name]; dup {
		pluginRegisteredTotal.WithLabelValues("duplicate_plugin").Inc()
		return fmt.Errorf("plugins: plugin %q already registered", p.Name)
	}
	for intent := range p.Intents {
		if owner, claimed := r.byIntent[intent]; claimed {
			pluginRegisteredTotal.WithLabelValues("duplicate_intent").Inc()
			return fmt.Errorf("plugins: intent %q in plugin %q already claimed by plugin %q",
				intent, p.Name, owner)
		}
	}

	r.plugins[p.Name] = p
	for intent := range p.Intents {
		r.byIntent[intent] = p.Name
	}
	pluginRegisteredTotal.WithLabelValues("ok").Inc()
	pluginIntents.Set(float64(len(r.byIntent)))

	r.logger.Info("plugin registered",
		slog.String("plugin", p.Name),
		slog.Int("intents", len(p.Intents)),
	)
	return nil
}

// RegisterAll registers each plugin independently.
//
// Description:
//
//	A failing plugin is logged and skipped; the rest still load. This
//	is the startup path — one bad skill must not take down the
//	assistant.
//
// Outputs:
//
//	[]error - One entry per rejected plugin. Empty when all loaded.
func (r *Registry) RegisterAll(ps []Plugin) []error {
	var errs []error
	for _, p := range ps {
		if err := r.Register(p); err != nil {
			r.logger.Error("plugin rejected", slog.String("plugin", p.Name), slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errs
}

// Lookup resolves an intent name to its handler spec and owning plugin.
//
// Outputs:
//
//	IntentSpec - The handler spec.
//	string - The owning plugin name.
//	bool - False when no plugin claims the intent.
func (r *Registry) Lookup(intent string) (IntentSpec, string, bool) {
	owner, ok := r.byIntent[intent]
	if !ok {
		return IntentSpec{}, "", false
	}
	return r.plugins[owner].Intents[intent], owner, true
}

// List returns the registered plugins sorted by name, intents sorted
// within each.
func (r *Registry) List() []PluginInfo {
	out := make([]PluginInfo, 0, len(r.plugins))
	for _, p := range r.plugins {
		intents := make([]string, 0, len(p.Intents))
		for intent := range p.Intents {
			intents = append(intents, intent)
		}
		sort.Strings(intents)
		out = append(out, PluginInfo{Name: p.Name, Description: p.Description, Intents: intents})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IntentCount returns the number of registered intent handlers.
func (r *Registry) IntentCount() int {
	return len(r.byIntent)
}
