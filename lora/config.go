// Package lora injects trainable low-rank adapters into frozen base models.
// A wrapped model keeps its original parameters bit for bit; only the
// injected factors receive gradient updates, and their contribution can be
// suppressed through a scoped gate or folded permanently into the base
// weights.
package lora

import "fmt"

// Config selects the modules that receive adapters and the adapter
// hyperparameters. It is immutable once applied.
type Config struct {
	// TargetModules names the submodules that receive adapters.
	TargetModules []string `json:"target_modules" yaml:"targets"`

	// R is the adapter rank.
	R int `json:"r" yaml:"rank"`

	// Alpha scales the adapter contribution by Alpha/R.
	Alpha float64 `json:"alpha" yaml:"alpha"`

	// InitWeights selects the identity-preserving initialization: the
	// zero-initialized factor makes a fresh adapter contribute nothing.
	// When false both factors start random, which merge checks need.
	// Embedding adapters keep their zero factor either way; see the
	// embedding note in newEmbedding.
	InitWeights bool `json:"init_weights" yaml:"init_weights"`

	// Seed drives the factor initialization.
	Seed int64 `json:"seed" yaml:"seed"`
}

func (c Config) scale() float64 { return c.Alpha / float64(c.R) }

// Validate reports whether the config can be applied at all.
func (c Config) Validate() error {
	if len(c.TargetModules) == 0 {
		return &ConfigError{Reason: "empty target module set"}
	}
	if c.R < 1 {
		return &ConfigError{Reason: fmt.Sprintf("rank must be at least 1, got %d", c.R)}
	}
	if c.Alpha <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("alpha must be positive, got %g", c.Alpha)}
	}
	return nil
}
