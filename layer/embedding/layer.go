// Package embedding implements a lookup table layer driven by one-hot rows
package embedding

import (
	"math/rand"

	"github.com/lowrank/peft/layer"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer stores a vocab x dim table; the input is a batch of one-hot rows so
// the lookup is a plain matrix product and stays differentiable.
type Layer struct {
	w     *G.Node
	vocab int
	dim   int
}

// New creates an embedding layer with N(0, 1) initialized weights.
func New(g *G.ExprGraph, name string, vocab, dim int, rng *rand.Rand) *Layer {
	wT := tensor.New(tensor.WithShape(vocab, dim), tensor.WithBacking(layer.Normal(rng, 1, vocab*dim)))
	return &Layer{
		w:     G.NewMatrix(g, tensor.Float64, G.WithShape(vocab, dim), G.WithName(name+".weight"), G.WithValue(wT)),
		vocab: vocab,
		dim:   dim,
	}
}

// Forward multiplies the one-hot batch with the table.
func (l *Layer) Forward(x *G.Node) (*G.Node, error) {
	return G.Mul(x, l.w)
}

// Params returns the table node.
func (l *Layer) Params() map[string]*G.Node {
	return map[string]*G.Node{"weight": l.w}
}

// Weight returns the table node.
func (l *Layer) Weight() *G.Node { return l.w }

// In returns the vocabulary size.
func (l *Layer) In() int { return l.vocab }

// Out returns the embedding width.
func (l *Layer) Out() int { return l.dim }
