package models

import (
	"math/rand"

	"github.com/lowrank/peft/layer"
	"github.com/lowrank/peft/layer/conv1d"
	"github.com/lowrank/peft/layer/embedding"
	"github.com/lowrank/peft/layer/linear"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// EmbConv1D combines an embedding with a GPT-style conv1d:
// emb(100,5) -> conv1d(5,1) -> relu -> reshape(9,10) -> lin0(10,2).
// The input is the token batch pre-encoded as 90 one-hot rows; the lookup is
// then a matrix product, which keeps it differentiable end to end.
type EmbConv1D struct {
	base
}

// NewEmbConv1D builds the EmbConv1D fixture.
func NewEmbConv1D(seed int64) *EmbConv1D {
	rng := rand.New(rand.NewSource(seed))
	g := G.NewGraph()
	x := G.NewMatrix(g, tensor.Float64, G.WithShape(embPositions, embVocab), G.WithName("x"))
	m := &EmbConv1D{base{g: g, input: x, mods: make(map[string]layer.Module)}}
	m.mods["emb"] = embedding.New(g, "emb", embVocab, 5, rng)
	m.mods["conv1d"] = conv1d.New(g, "conv1d", 5, 1, rng)
	m.mods["lin0"] = linear.New(g, "lin0", 10, 2, rng)
	return m
}

// Forward builds the forward pass.
func (m *EmbConv1D) Forward(x *G.Node) (*G.Node, error) {
	h, err := m.mods["emb"].Forward(x)
	if err != nil {
		return nil, err
	}
	if h, err = m.mods["conv1d"].Forward(h); err != nil {
		return nil, err
	}
	if h, err = layer.Rectify(h); err != nil {
		return nil, err
	}
	if h, err = G.Reshape(h, tensor.Shape{9, 10}); err != nil {
		return nil, err
	}
	return m.mods["lin0"].Forward(h)
}

const (
	embPositions = 90
	embVocab     = 100
)
