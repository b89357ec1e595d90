package lora

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/lowrank/peft/layer"
	"github.com/lowrank/peft/layer/conv1d"
	"github.com/lowrank/peft/layer/conv2d"
	"github.com/lowrank/peft/layer/embedding"
	"github.com/lowrank/peft/layer/linear"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Adapter is an injected module: it wraps a frozen base module and owns the
// trainable low-rank factors.
type Adapter interface {
	layer.Module

	// AdapterParams returns only the injected factor nodes keyed by local
	// name ("lora_A", "lora_B").
	AdapterParams() map[string]*G.Node

	// Merge folds the learned contribution into the wrapped base weights.
	Merge(scale float64) error
}

// Model is a base model with adapters injected into its targeted modules.
// It implements layer.Model, so it is trainable the same way the base was;
// Trainable exposes only the injected factors, which is what freezes the
// base parameters.
type Model struct {
	base     layer.Model
	cfg      Config
	gate     *G.Node
	gateVal  float64
	adapters map[string]Adapter
	disabled bool
	merged   bool
}

// Apply wraps the targeted modules of m with low-rank adapters. The model is
// modified in place and must not have been forwarded yet: the adapters
// become part of the graph when the forward pass is first built.
func Apply(m layer.Model, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	g := m.Graph()
	gate := G.NewScalar(g, tensor.Float64, G.WithName("lora_gate"))
	out := &Model{
		base:     m,
		cfg:      cfg,
		gate:     gate,
		gateVal:  1,
		adapters: make(map[string]Adapter),
	}
	// All targets are vetted before the first Replace so a bad one cannot
	// leave the model partially wrapped.
	mods := m.Modules()
	seen := make(map[string]bool, len(cfg.TargetModules))
	for _, tgt := range cfg.TargetModules {
		if seen[tgt] {
			return nil, &ConfigError{Target: tgt, Reason: "target listed twice"}
		}
		seen[tgt] = true
		mod, ok := mods[tgt]
		if !ok {
			return nil, &ConfigError{Target: tgt, Reason: "no such module on base model"}
		}
		switch mod.(type) {
		case *linear.Layer, *conv1d.Layer, *embedding.Layer, *conv2d.Layer:
		default:
			return nil, &ConfigError{Target: tgt, Reason: "module kind does not support adapters"}
		}
	}
	for _, tgt := range cfg.TargetModules {
		var ad Adapter
		switch l := mods[tgt].(type) {
		case *linear.Layer:
			ad = newMatmul(g, tgt, l, cfg, gate, rng, cfg.InitWeights)
		case *conv1d.Layer:
			ad = newMatmul(g, tgt, l, cfg, gate, rng, cfg.InitWeights)
		case *embedding.Layer:
			ad = newEmbedding(g, tgt, l, cfg, gate, rng)
		case *conv2d.Layer:
			ad = newConv2d(g, tgt, l, cfg, gate, rng)
		default:
			return nil, &ConfigError{Target: tgt, Reason: "module kind does not support adapters"}
		}
		if err := m.Replace(tgt, ad); err != nil {
			return nil, errors.Wrapf(err, "injecting adapter into %q", tgt)
		}
		out.adapters[tgt] = ad
	}
	return out, nil
}

// Forward builds the forward pass of the wrapped model.
func (m *Model) Forward(x *G.Node) (*G.Node, error) { return m.base.Forward(x) }

// Modules returns the base model's modules, with adapters in place of the
// targeted originals.
func (m *Model) Modules() map[string]layer.Module { return m.base.Modules() }

// Replace delegates to the base model.
func (m *Model) Replace(name string, mod layer.Module) error { return m.base.Replace(name, mod) }

// Graph returns the shared expression graph.
func (m *Model) Graph() *G.ExprGraph { return m.base.Graph() }

// Input returns the model input node.
func (m *Model) Input() *G.Node { return m.base.Input() }

// Config returns the applied adapter configuration.
func (m *Model) Config() Config { return m.cfg }

// NamedParams returns every parameter keyed by "<module>.<param>". Injected
// factors carry "lora_" in their local name; everything else is a frozen
// base parameter.
func (m *Model) NamedParams() map[string]*G.Node {
	return layer.NamedParams(m.base)
}

// IsAdapter reports whether a NamedParams key names an injected factor.
func IsAdapter(name string) bool {
	return strings.Contains(name, "lora_")
}

// Trainable returns the injected factor nodes in deterministic name order.
// Base parameters are frozen by never reaching a solver.
func (m *Model) Trainable() G.Nodes {
	params := m.NamedParams()
	names := make([]string, 0, len(params))
	for name := range params {
		if IsAdapter(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make(G.Nodes, 0, len(names))
	for _, name := range names {
		out = append(out, params[name])
	}
	return out
}

// Gate returns the adapter gate node. The trainer binds its value before
// every run: 1 while adapters are active, 0 inside a disable scope.
func (m *Model) Gate() *G.Node { return m.gate }

// GateValue returns the current gate binding.
func (m *Model) GateValue() float64 { return m.gateVal }

// Merge folds every adapter's learned contribution into its base weights and
// permanently suppresses the adapter path, leaving the behavior of a plain
// model with updated weights.
func (m *Model) Merge() error {
	if m.disabled {
		return errors.New("lora: cannot merge while adapters are disabled")
	}
	if m.merged {
		return errors.New("lora: adapters already merged")
	}
	for name, ad := range m.adapters {
		if err := ad.Merge(m.cfg.scale()); err != nil {
			return errors.Wrapf(err, "merging adapter %q", name)
		}
	}
	m.gateVal = 0
	m.merged = true
	return nil
}

// Merged reports whether Merge has run.
func (m *Model) Merged() bool { return m.merged }
