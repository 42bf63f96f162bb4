// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the externally supplied constants for the assist
// engine: confidence thresholds, the destructive intent list, and the
// session TTL/sweep settings. All values are data, not behavior — the
// engine never derives them.
package config

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Default Configuration
// =============================================================================

//go:embed assist_config.yaml
var defaultConfigYAML []byte

// MaxYAMLFileSize caps any YAML artifact read by the assist service (1 MiB).
// Oversized files are rejected rather than parsed.
const MaxYAMLFileSize = 1 << 20

// =============================================================================
// OTel Tracer
// =============================================================================

var configTracer = otel.Tracer("aleutian.assist.config")

// =============================================================================
// Configuration Types
// =============================================================================

// Thresholds defines the confidence bands for the decision engine.
//
// Description:
//
//	Execute >= Confirm >= Clarify must hold, and Destructive must be at
//	least Execute. Values were tuned empirically on the training corpus;
//	they are deliberately configuration, not code.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Thresholds struct {
	// Execute is the minimum confidence to run a handler without asking.
	Execute float64 `yaml:"execute" validate:"gt=0,lte=1"`

	// Confirm is the minimum confidence to propose the action for a yes/no.
	Confirm float64 `yaml:"confirm" validate:"gt=0,lte=1"`

	// Clarify is the minimum confidence to name the best guess in a
	// clarification prompt. Below it the decision is Unknown.
	Clarify float64 `yaml:"clarify" validate:"gt=0,lte=1"`

	// Destructive is the stricter execute floor for destructive intents.
	Destructive float64 `yaml:"destructive" validate:"gt=0,lte=1"`

	// SemanticMatch is the minimum cosine similarity for the semantic
	// matcher to report a candidate at all.
	SemanticMatch float64 `yaml:"semantic_match" validate:"gt=0,lte=1"`

	// SemanticMargin is the band within which a semantic candidate is
	// preferred over a classifier candidate of higher confidence.
	SemanticMargin float64 `yaml:"semantic_margin" validate:"gte=0,lte=1"`
}

// Duration wraps time.Duration so YAML can carry human-readable values
// ("5m", "30s"). Bare integers are interpreted as seconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration node: %w", err)
	}
	// Bare integers are seconds; everything else goes through
	// time.ParseDuration ("5m", "30s").
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		d.Duration = time.Duration(secs) * time.Second
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// SessionConfig defines the short-term memory TTLs and sweep cadence.
type SessionConfig struct {
	// HistorySize is the ContextEntry ring buffer capacity per session.
	HistorySize int `yaml:"history_size" validate:"gt=0"`

	// ContextTTL is how long a ContextEntry stays usable.
	ContextTTL Duration `yaml:"context_ttl"`

	// ConfirmationTTL bounds a pending yes/no confirmation.
	ConfirmationTTL Duration `yaml:"confirmation_ttl"`

	// IdleTTL is how long an untouched session survives before the sweep
	// reclaims it.
	IdleTTL Duration `yaml:"idle_ttl"`

	// SweepInterval is the cadence of the background cleanup sweep.
	SweepInterval Duration `yaml:"sweep_interval"`
}

// AssistConfig is the full configuration for the assist service.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type AssistConfig struct {
	// Thresholds are the decision confidence bands.
	Thresholds Thresholds `yaml:"thresholds" validate:"required"`

	// Session holds the context store TTL settings.
	Session SessionConfig `yaml:"session" validate:"required"`

	// DestructiveIntents lists intent names that require the stricter
	// Destructive floor before executing without confirmation.
	DestructiveIntents []string `yaml:"destructive_intents"`

	// ArtifactDir optionally overrides the embedded semantic/classifier
	// artifacts with files from disk. Empty means embedded only.
	ArtifactDir string `yaml:"artifact_dir"`
}

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultExecuteThreshold is the ordinary execute floor.
	DefaultExecuteThreshold = 0.80

	// DefaultConfirmThreshold is the confirm floor.
	DefaultConfirmThreshold = 0.55

	// DefaultClarifyThreshold is the clarify floor.
	DefaultClarifyThreshold = 0.35

	// DefaultDestructiveThreshold is the execute floor for destructive intents.
	DefaultDestructiveThreshold = 0.95

	// DefaultSemanticThreshold is the minimum cosine similarity for a
	// semantic match.
	DefaultSemanticThreshold = 0.75

	// DefaultSemanticMargin is the semantic-vs-classifier preference band.
	DefaultSemanticMargin = 0.10

	// DefaultHistorySize is the per-session context ring capacity.
	DefaultHistorySize = 5

	// DefaultContextTTL is the context entry lifetime.
	DefaultContextTTL = 5 * time.Minute

	// DefaultConfirmationTTL is the pending confirmation lifetime.
	DefaultConfirmationTTL = 30 * time.Second

	// DefaultIdleTTL is the idle session lifetime.
	DefaultIdleTTL = 5 * time.Minute

	// DefaultSweepInterval is the cleanup sweep cadence.
	DefaultSweepInterval = time.Minute
)

// Default returns the built-in configuration.
//
// Outputs:
//
//	*AssistConfig - A fresh config populated with the default constants.
//	Never nil. Callers may mutate the returned value before wiring.
func Default() *AssistConfig {
	return &AssistConfig{
		Thresholds: Thresholds{
			Execute:        DefaultExecuteThreshold,
			Confirm:        DefaultConfirmThreshold,
			Clarify:        DefaultClarifyThreshold,
			Destructive:    DefaultDestructiveThreshold,
			SemanticMatch:  DefaultSemanticThreshold,
			SemanticMargin: DefaultSemanticMargin,
		},
		Session: SessionConfig{
			HistorySize:     DefaultHistorySize,
			ContextTTL:      Duration{DefaultContextTTL},
			ConfirmationTTL: Duration{DefaultConfirmationTTL},
			IdleTTL:         Duration{DefaultIdleTTL},
			SweepInterval:   Duration{DefaultSweepInterval},
		},
		DestructiveIntents: []string{
			"delete_file",
			"shutdown",
			"restart",
			"git_force_push",
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load parses and validates an AssistConfig from YAML bytes.
//
// Description:
//
//	Parses the YAML, fills missing fields from the defaults, and
//	validates the result. The embedded default config always loads; a
//	parse or validation failure therefore indicates an operator-supplied
//	override is broken and should fail startup loudly.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//	data - Raw YAML bytes.
//
// Outputs:
//
//	*AssistConfig - The validated configuration.
//	error - Non-nil if parsing or validation fails.
func Load(ctx context.Context, data []byte) (*AssistConfig, error) {
	_, span := configTracer.Start(ctx, "config.Load")
	defer span.End()

	if len(data) == 0 {
		return nil, fmt.Errorf("config.Load: empty YAML data")
	}
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("config.Load: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parsing YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: validation: %w", err)
	}
	if err := checkOrdering(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	span.SetAttributes(
		attribute.Float64("thresholds.execute", cfg.Thresholds.Execute),
		attribute.Float64("thresholds.destructive", cfg.Thresholds.Destructive),
		attribute.Int("destructive_intents", len(cfg.DestructiveIntents)),
	)

	slog.Info("assist config loaded",
		slog.Float64("execute", cfg.Thresholds.Execute),
		slog.Float64("confirm", cfg.Thresholds.Confirm),
		slog.Float64("clarify", cfg.Thresholds.Clarify),
		slog.Int("destructive_intents", len(cfg.DestructiveIntents)),
	)

	return cfg, nil
}

// LoadDefault loads the embedded default configuration.
//
// Outputs:
//
//	*AssistConfig - The validated embedded config.
//	error - Non-nil only if the embedded YAML itself is broken, which is
//	a build defect rather than a runtime condition.
func LoadDefault(ctx context.Context) (*AssistConfig, error) {
	return Load(ctx, defaultConfigYAML)
}

// LoadFile loads a configuration override from disk.
//
// Inputs:
//
//	ctx - Context for tracing.
//	path - Path to the YAML file.
//
// Outputs:
//
//	*AssistConfig - The validated configuration.
//	error - Non-nil if reading, parsing, or validation fails.
func LoadFile(ctx context.Context, path string) (*AssistConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.LoadFile: reading %s: %w", path, err)
	}
	return Load(ctx, data)
}

// applyDefaults fills zero-valued fields so partial overrides stay sane.
func applyDefaults(cfg *AssistConfig) {
	t := &cfg.Thresholds
	if t.Execute <= 0 {
		t.Execute = DefaultExecuteThreshold
	}
	if t.Confirm <= 0 {
		t.Confirm = DefaultConfirmThreshold
	}
	if t.Clarify <= 0 {
		t.Clarify = DefaultClarifyThreshold
	}
	if t.Destructive <= 0 {
		t.Destructive = DefaultDestructiveThreshold
	}
	if t.SemanticMatch <= 0 {
		t.SemanticMatch = DefaultSemanticThreshold
	}
	if t.SemanticMargin <= 0 {
		t.SemanticMargin = DefaultSemanticMargin
	}

	s := &cfg.Session
	if s.HistorySize <= 0 {
		s.HistorySize = DefaultHistorySize
	}
	if s.ContextTTL.Duration <= 0 {
		s.ContextTTL = Duration{DefaultContextTTL}
	}
	if s.ConfirmationTTL.Duration <= 0 {
		s.ConfirmationTTL = Duration{DefaultConfirmationTTL}
	}
	if s.IdleTTL.Duration <= 0 {
		s.IdleTTL = Duration{DefaultIdleTTL}
	}
	if s.SweepInterval.Duration <= 0 {
		s.SweepInterval = Duration{DefaultSweepInterval}
	}
}

// checkOrdering enforces the band ordering the decision engine assumes.
func checkOrdering(cfg *AssistConfig) error {
	t := cfg.Thresholds
	if t.Clarify > t.Confirm {
		return fmt.Errorf("thresholds: clarify (%.2f) must not exceed confirm (%.2f)", t.Clarify, t.Confirm)
	}
	if t.Confirm > t.Execute {
		return fmt.Errorf("thresholds: confirm (%.2f) must not exceed execute (%.2f)", t.Confirm, t.Execute)
	}
	if t.Destructive < t.Execute {
		return fmt.Errorf("thresholds: destructive (%.2f) must not be below execute (%.2f)", t.Destructive, t.Execute)
	}
	return nil
}

// IsDestructive reports whether intent is on the destructive list.
//
// Thread Safety: Safe for concurrent use (the list is read-only).
func (c *AssistConfig) IsDestructive(intent string) bool {
	for _, name := range c.DestructiveIntents {
		if name == intent {
			return true
		}
	}
	return false
}
