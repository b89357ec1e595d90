package models

import (
	"math/rand"

	"github.com/lowrank/peft/layer"
	"github.com/lowrank/peft/layer/dropout"
	"github.com/lowrank/peft/layer/linear"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP is a plain feedforward network:
// lin0(10,20) -> relu -> dropout(0.5) -> lin1(20,2) -> log softmax.
type MLP struct {
	base
}

// NewMLP builds the MLP fixture for a 9x10 input batch.
func NewMLP(seed int64) *MLP {
	rng := rand.New(rand.NewSource(seed))
	g := G.NewGraph()
	x := G.NewMatrix(g, tensor.Float64, G.WithShape(mlpRows, mlpCols), G.WithName("x"))
	m := &MLP{base{g: g, input: x, mods: make(map[string]layer.Module)}}
	m.mods["lin0"] = linear.New(g, "lin0", 10, 20, rng)
	m.mods["drop"] = dropout.New(g, "drop", 0.5, mlpRows, 20)
	m.mods["lin1"] = linear.New(g, "lin1", 20, 2, rng)
	return m
}

// Forward builds the forward pass.
func (m *MLP) Forward(x *G.Node) (*G.Node, error) {
	h, err := m.mods["lin0"].Forward(x)
	if err != nil {
		return nil, err
	}
	if h, err = layer.Rectify(h); err != nil {
		return nil, err
	}
	if h, err = m.mods["drop"].Forward(h); err != nil {
		return nil, err
	}
	if h, err = m.mods["lin1"].Forward(h); err != nil {
		return nil, err
	}
	return layer.LogSoftMax(h)
}

const (
	mlpRows = 9
	mlpCols = 10
)
