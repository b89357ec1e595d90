// Package conv2d implements a 2D convolution layer over NCHW tensors
package conv2d

import (
	"math"
	"math/rand"

	"github.com/lowrank/peft/layer"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer convolves with a square kernel, no padding, stride one. The layer
// carries no bias term.
type Layer struct {
	w    *G.Node
	inC  int
	outC int
	k    int
}

// New creates a conv2d layer with weights drawn uniformly from
// [-1/sqrt(fanin), 1/sqrt(fanin)] where fanin = in*k*k.
func New(g *G.ExprGraph, name string, in, out, k int, rng *rand.Rand) *Layer {
	fanin := in * k * k
	b := 1 / math.Sqrt(float64(fanin))
	wT := tensor.New(tensor.WithShape(out, in, k, k), tensor.WithBacking(layer.Uniform(rng, b, out*fanin)))
	return &Layer{
		w:    G.NewTensor(g, tensor.Float64, 4, G.WithShape(out, in, k, k), G.WithName(name+".weight"), G.WithValue(wT)),
		inC:  in,
		outC: out,
		k:    k,
	}
}

// Forward convolves the input batch with the kernel.
func (l *Layer) Forward(x *G.Node) (*G.Node, error) {
	return G.Conv2d(x, l.w, tensor.Shape{l.k, l.k}, []int{0, 0}, []int{1, 1}, []int{1, 1})
}

// Params returns the kernel node.
func (l *Layer) Params() map[string]*G.Node {
	return map[string]*G.Node{"weight": l.w}
}

// Weight returns the kernel node.
func (l *Layer) Weight() *G.Node { return l.w }

// InC returns the input channel count.
func (l *Layer) InC() int { return l.inC }

// OutC returns the output channel count.
func (l *Layer) OutC() int { return l.outC }

// Kernel returns the kernel side length.
func (l *Layer) Kernel() int { return l.k }
