// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classifier implements the statistical fallback layer: a small
// feed-forward network over a bag-of-terms input. The model lives in a
// YAML artifact with named hidden units so its weights stay auditable;
// replacing the artifact is retraining.
package classifier

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// maxModelFileSize bounds model artifacts read from disk.
const maxModelFileSize = 1 << 20 // 1 MiB

// =============================================================================
// Model Artifact
// =============================================================================

// HiddenUnit is one named detector in the hidden layer. Weights are
// sparse over input terms; unnamed terms contribute nothing.
type HiddenUnit struct {
	Name    string             `yaml:"name" validate:"required"`
	Bias    float64            `yaml:"bias"`
	Weights map[string]float64 `yaml:"weights" validate:"required,min=1"`
}

// OutputUnit maps hidden activations to one intent logit. Weights are
// keyed by hidden unit name.
type OutputUnit struct {
	Label   string             `yaml:"label" validate:"required"`
	Bias    float64            `yaml:"bias"`
	Weights map[string]float64 `yaml:"weights" validate:"required,min=1"`
}

// Model is the on-disk model artifact layout.
type Model struct {
	Hidden []HiddenUnit `yaml:"hidden"`
	Output []OutputUnit `yaml:"output"`
}

// Validate checks the model's internal consistency.
//
// Description:
//
//	Hidden unit names must be unique, output labels must be unique, and
//	every output weight must reference an existing hidden unit. A model
//	that fails validation disables the layer; it never half-loads.
//
// Outputs:
//
//	error - Non-nil with the first inconsistency found.
func (m *Model) Validate() error {
	if len(m.Hidden) == 0 {
		return fmt.Errorf("classifier: model has no hidden units")
	}
	if len(m.Output) == 0 {
		return fmt.Errorf("classifier: model has no output units")
	}

	hidden := make(map[string]struct{}, len(m.Hidden))
	for i, h := range m.Hidden {
		if h.Name == "" {
			return fmt.Errorf("classifier: hidden unit %d has no name", i)
		}
		if len(h.Weights) == 0 {
			return fmt.Errorf("classifier: hidden unit %q has no weights", h.Name)
		}
		if _, dup := hidden[h.Name]; dup {
			return fmt.Errorf("classifier: duplicate hidden unit %q", h.Name)
		}
		hidden[h.Name] = struct{}{}
	}

	labels := make(map[string]struct{}, len(m.Output))
	for i, o := range m.Output {
		if o.Label == "" {
			return fmt.Errorf("classifier: output unit %d has no label", i)
		}
		if _, dup := labels[o.Label]; dup {
			return fmt.Errorf("classifier: duplicate output label %q", o.Label)
		}
		labels[o.Label] = struct{}{}
		for name := range o.Weights {
			if _, ok := hidden[name]; !ok {
				return fmt.Errorf("classifier: output %q references unknown hidden unit %q", o.Label, name)
			}
		}
	}
	return nil
}

// =============================================================================
// Model Loading
// =============================================================================

//go:embed model.yaml
var defaultModelYAML []byte

// ParseModel decodes and validates a YAML model document.
func ParseModel(data []byte) (*Model, error) {
	var model Model
	if err := yaml.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("classifier: failed to parse model: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &model, nil
}

// DefaultModel parses the model compiled into the binary.
func DefaultModel() (*Model, error) {
	return ParseModel(defaultModelYAML)
}

// LoadModelFile reads, parses, and validates a model artifact from disk.
//
// Outputs:
//
//	*Model - The validated model.
//	error - Non-nil when the file is missing, oversized, or malformed.
//	Callers treat any error as "layer disabled", not a startup failure.
func LoadModelFile(path string) (*Model, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: failed to stat model %s: %w", path, err)
	}
	if info.Size() > maxModelFileSize {
		return nil, fmt.Errorf("classifier: model %s exceeds %d bytes", path, maxModelFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: failed to read model %s: %w", path, err)
	}
	return ParseModel(data)
}
