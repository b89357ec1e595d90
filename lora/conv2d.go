package lora

import (
	"math"
	"math/rand"

	"github.com/lowrank/peft/layer"
	"github.com/lowrank/peft/layer/conv2d"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// conv2dAdapter augments a conv2d layer with a rank-r delta: a convolution
// with r filters of the base kernel size followed by a 1x1 convolution back
// to the base channel count.
type conv2dAdapter struct {
	base  *conv2d.Layer
	a     *G.Node // (r, inC, k, k)
	b     *G.Node // (outC, r, 1, 1)
	gate  *G.Node
	scale float64
	r     int
}

func newConv2d(g *G.ExprGraph, name string, base *conv2d.Layer, cfg Config, gate *G.Node, rng *rand.Rand) *conv2dAdapter {
	inC, outC, k := base.InC(), base.OutC(), base.Kernel()
	fanin := inC * k * k
	bound := 1 / math.Sqrt(float64(fanin))
	aBack := layer.Uniform(rng, bound, cfg.R*fanin)
	var bBack []float64
	if cfg.InitWeights {
		bBack = layer.Zeros(outC * cfg.R)
	} else {
		bBack = layer.Uniform(rng, bound, outC*cfg.R)
	}
	aT := tensor.New(tensor.WithShape(cfg.R, inC, k, k), tensor.WithBacking(aBack))
	bT := tensor.New(tensor.WithShape(outC, cfg.R, 1, 1), tensor.WithBacking(bBack))
	return &conv2dAdapter{
		base:  base,
		a:     G.NewTensor(g, tensor.Float64, 4, G.WithShape(cfg.R, inC, k, k), G.WithName(name+".lora_A"), G.WithValue(aT)),
		b:     G.NewTensor(g, tensor.Float64, 4, G.WithShape(outC, cfg.R, 1, 1), G.WithName(name+".lora_B"), G.WithValue(bT)),
		gate:  gate,
		scale: cfg.scale(),
		r:     cfg.R,
	}
}

// Forward adds the gated low-rank delta to the base convolution.
func (ad *conv2dAdapter) Forward(x *G.Node) (*G.Node, error) {
	baseOut, err := ad.base.Forward(x)
	if err != nil {
		return nil, err
	}
	k := ad.base.Kernel()
	h, err := G.Conv2d(x, ad.a, tensor.Shape{k, k}, []int{0, 0}, []int{1, 1}, []int{1, 1})
	if err != nil {
		return nil, err
	}
	delta, err := G.Conv2d(h, ad.b, tensor.Shape{1, 1}, []int{0, 0}, []int{1, 1}, []int{1, 1})
	if err != nil {
		return nil, err
	}
	if delta, err = G.Mul(delta, G.NewConstant(ad.scale)); err != nil {
		return nil, err
	}
	if delta, err = G.Mul(ad.gate, delta); err != nil {
		return nil, err
	}
	return G.Add(baseOut, delta)
}

// Params returns the base kernel plus the injected factors.
func (ad *conv2dAdapter) Params() map[string]*G.Node {
	out := ad.base.Params()
	out["lora_A"] = ad.a
	out["lora_B"] = ad.b
	return out
}

// AdapterParams returns only the injected factors.
func (ad *conv2dAdapter) AdapterParams() map[string]*G.Node {
	return map[string]*G.Node{"lora_A": ad.a, "lora_B": ad.b}
}

// Merge folds the composed delta kernel into the base kernel:
// W[o,c,i,j] += scale * sum_q B[o,q] * A[q,c,i,j].
func (ad *conv2dAdapter) Merge(scale float64) error {
	w := ad.base.Weight().Value().Data().([]float64)
	a := ad.a.Value().Data().([]float64)
	b := ad.b.Value().Data().([]float64)
	inC, outC, k := ad.base.InC(), ad.base.OutC(), ad.base.Kernel()
	patch := inC * k * k
	for o := 0; o < outC; o++ {
		for p := 0; p < patch; p++ {
			var acc float64
			for q := 0; q < ad.r; q++ {
				acc += b[o*ad.r+q] * a[q*patch+p]
			}
			w[o*patch+p] += scale * acc
		}
	}
	return nil
}
