// Package conv1d implements the GPT-style 1D convolution, a linear layer
// with gaussian-initialized weights applied position-wise.
package conv1d

import (
	"math/rand"

	"github.com/lowrank/peft/layer"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer computes y = x*W + b where x carries one position per row.
type Layer struct {
	w   *G.Node
	b   *G.Node
	in  int
	out int
}

// New creates a conv1d layer. Weights start at N(0, 0.02), the bias at zero.
func New(g *G.ExprGraph, name string, in, out int, rng *rand.Rand) *Layer {
	wT := tensor.New(tensor.WithShape(in, out), tensor.WithBacking(layer.Normal(rng, 0.02, in*out)))
	bT := tensor.New(tensor.WithShape(1, out), tensor.WithBacking(layer.Zeros(out)))
	return &Layer{
		w:   G.NewMatrix(g, tensor.Float64, G.WithShape(in, out), G.WithName(name+".weight"), G.WithValue(wT)),
		b:   G.NewMatrix(g, tensor.Float64, G.WithShape(1, out), G.WithName(name+".bias"), G.WithValue(bT)),
		in:  in,
		out: out,
	}
}

// Forward applies the layer, broadcasting the bias over the position axis.
func (l *Layer) Forward(x *G.Node) (*G.Node, error) {
	xw, err := G.Mul(x, l.w)
	if err != nil {
		return nil, err
	}
	return G.BroadcastAdd(xw, l.b, nil, []byte{0})
}

// Params returns the weight and bias nodes.
func (l *Layer) Params() map[string]*G.Node {
	return map[string]*G.Node{"weight": l.w, "bias": l.b}
}

// Weight returns the weight node.
func (l *Layer) Weight() *G.Node { return l.w }

// In returns the input width.
func (l *Layer) In() int { return l.in }

// Out returns the output width.
func (l *Layer) Out() int { return l.out }
