package models

import (
	"math/rand"

	"github.com/lowrank/peft/layer"
	"github.com/lowrank/peft/layer/conv2d"
	"github.com/lowrank/peft/layer/linear"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Conv2dNet is a tiny convolutional network:
// conv2d(5,10,3) -> relu -> reshape(2,10) -> lin0(10,2).
type Conv2dNet struct {
	base
}

// NewConv2d builds the Conv2dNet fixture for a 2x5x3x3 input batch.
func NewConv2d(seed int64) *Conv2dNet {
	rng := rand.New(rand.NewSource(seed))
	g := G.NewGraph()
	x := G.NewTensor(g, tensor.Float64, 4, G.WithShape(2, 5, 3, 3), G.WithName("x"))
	m := &Conv2dNet{base{g: g, input: x, mods: make(map[string]layer.Module)}}
	m.mods["conv2d"] = conv2d.New(g, "conv2d", 5, 10, 3, rng)
	m.mods["lin0"] = linear.New(g, "lin0", 10, 2, rng)
	return m
}

// Forward builds the forward pass.
func (m *Conv2dNet) Forward(x *G.Node) (*G.Node, error) {
	h, err := m.mods["conv2d"].Forward(x)
	if err != nil {
		return nil, err
	}
	if h, err = layer.Rectify(h); err != nil {
		return nil, err
	}
	if h, err = G.Reshape(h, tensor.Shape{2, 10}); err != nil {
		return nil, err
	}
	return m.mods["lin0"].Forward(h)
}
