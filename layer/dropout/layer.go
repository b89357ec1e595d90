// Package dropout implements inverted dropout with an externally driven mask
package dropout

import (
	"math/rand"

	"github.com/lowrank/peft/layer"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer multiplies its input elementwise with a mask value node. The trainer
// resamples the mask before each training step; evaluation sets it to ones,
// so evaluation forwards are fully deterministic.
type Layer struct {
	mask    *G.Node
	backing []float64
	p       float64
}

// New creates a dropout layer for activations of the given shape, starting
// in evaluation mode.
func New(g *G.ExprGraph, name string, p float64, rows, cols int) *Layer {
	backing := layer.Ones(rows * cols)
	mT := tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))
	return &Layer{
		mask:    G.NewMatrix(g, tensor.Float64, G.WithShape(rows, cols), G.WithName(name+".mask"), G.WithValue(mT)),
		backing: backing,
		p:       p,
	}
}

// Forward applies the current mask.
func (l *Layer) Forward(x *G.Node) (*G.Node, error) {
	return G.HadamardProd(x, l.mask)
}

// Params returns no parameters; the mask is noise, not a weight.
func (l *Layer) Params() map[string]*G.Node {
	return map[string]*G.Node{}
}

// Resample draws a fresh inverted-scale bernoulli mask.
func (l *Layer) Resample(rng *rand.Rand) {
	keep := 1 / (1 - l.p)
	for i := range l.backing {
		if rng.Float64() < l.p {
			l.backing[i] = 0
		} else {
			l.backing[i] = keep
		}
	}
}

// Eval sets the mask to ones.
func (l *Layer) Eval() {
	for i := range l.backing {
		l.backing[i] = 1
	}
}
