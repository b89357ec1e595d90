// Package models provides the small deterministic fixture networks the
// verification harness trains against. Every factory takes a seed and builds
// the same weights for the same seed; there is no global state.
package models

import (
	"github.com/lowrank/peft/layer"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

// Model ids accepted by New and Input.
const (
	MLPID       = "MLP"
	EmbConv1DID = "EmbConv1D"
	Conv2dID    = "Conv2d"
)

// IDs lists every fixture model id.
func IDs() []string {
	return []string{MLPID, EmbConv1DID, Conv2dID}
}

// New constructs a fixture model by id with seed-deterministic weights.
func New(id string, seed int64) (layer.Model, error) {
	switch id {
	case MLPID:
		return NewMLP(seed), nil
	case EmbConv1DID:
		return NewEmbConv1D(seed), nil
	case Conv2dID:
		return NewConv2d(seed), nil
	}
	return nil, errors.Errorf("models: unknown model id %q", id)
}

type base struct {
	g     *G.ExprGraph
	input *G.Node
	mods  map[string]layer.Module
}

func (b *base) Modules() map[string]layer.Module { return b.mods }

func (b *base) Replace(name string, m layer.Module) error {
	if _, ok := b.mods[name]; !ok {
		return errors.Errorf("models: no module named %q", name)
	}
	b.mods[name] = m
	return nil
}

func (b *base) Graph() *G.ExprGraph { return b.g }

func (b *base) Input() *G.Node { return b.input }
