// Package layer defines the module and model interfaces shared by all layers
package layer

import G "gorgonia.org/gorgonia"

// Module is a single named computation with zero or more parameter nodes.
type Module interface {

	// Forward applies the module to the input node, extending the
	// expression graph.
	Forward(x *G.Node) (*G.Node, error)

	// Params returns the parameter nodes of this module keyed by local
	// name, for example "weight" or "bias". The returned map is a fresh
	// copy the caller may modify.
	Params() map[string]*G.Node
}

// Model is a named collection of modules callable on a single input node.
type Model interface {

	// Forward builds the forward pass over the input node. The graph is
	// static once built, so Forward must be called exactly once per model.
	Forward(x *G.Node) (*G.Node, error)

	// Modules returns the direct submodules keyed by attribute name.
	Modules() map[string]Module

	// Replace swaps the named submodule for another one, keeping the name.
	Replace(name string, m Module) error

	// Graph returns the expression graph the model builds onto.
	Graph() *G.ExprGraph

	// Input returns the model input node.
	Input() *G.Node
}

// NamedParams flattens a model's parameters into "<module>.<param>" names.
func NamedParams(m Model) map[string]*G.Node {
	out := make(map[string]*G.Node)
	for name, mod := range m.Modules() {
		for pname, p := range mod.Params() {
			out[name+"."+pname] = p
		}
	}
	return out
}
