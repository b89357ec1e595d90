package lora

import (
	"math"
	"math/rand"

	"github.com/lowrank/peft/layer"
	"github.com/lowrank/peft/layer/embedding"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// matmulLayer is satisfied by the dense layer kinds that compute x*W (+b)
// with an (in, out) weight: linear, conv1d and the one-hot embedding.
type matmulLayer interface {
	layer.Module
	Weight() *G.Node
	In() int
	Out() int
}

// matmulAdapter augments a dense layer with the rank-r delta x*A*B, scaled
// by alpha/r and gated by the shared gate scalar.
type matmulAdapter struct {
	base  matmulLayer
	a     *G.Node
	b     *G.Node
	gate  *G.Node
	scale float64
	r     int
}

// newMatmul injects an adapter into a linear or conv1d layer. A starts
// uniform in [-1/sqrt(in), 1/sqrt(in)]; B starts at zero when identity is
// requested, so the wrapped layer initially equals the base layer.
func newMatmul(g *G.ExprGraph, name string, base matmulLayer, cfg Config, gate *G.Node, rng *rand.Rand, identity bool) *matmulAdapter {
	in, out := base.In(), base.Out()
	k := 1 / math.Sqrt(float64(in))
	aBack := layer.Uniform(rng, k, in*cfg.R)
	var bBack []float64
	if identity {
		bBack = layer.Zeros(cfg.R * out)
	} else {
		bBack = layer.Uniform(rng, k, cfg.R*out)
	}
	return &matmulAdapter{
		base:  base,
		a:     factorNode(g, name+".lora_A", tensor.Shape{in, cfg.R}, aBack),
		b:     factorNode(g, name+".lora_B", tensor.Shape{cfg.R, out}, bBack),
		gate:  gate,
		scale: cfg.scale(),
		r:     cfg.R,
	}
}

// newEmbedding injects an adapter into an embedding layer. Embeddings keep
// the zero factor on the A side and it stays zero even when InitWeights is
// false: an embedding adapter always starts at the identity. Checks that
// rely on a non-identity start
// (merge, disable divergence) therefore skip embedding-only targets.
func newEmbedding(g *G.ExprGraph, name string, base *embedding.Layer, cfg Config, gate *G.Node, rng *rand.Rand) *matmulAdapter {
	vocab, dim := base.In(), base.Out()
	return &matmulAdapter{
		base:  base,
		a:     factorNode(g, name+".lora_A", tensor.Shape{vocab, cfg.R}, layer.Zeros(vocab*cfg.R)),
		b:     factorNode(g, name+".lora_B", tensor.Shape{cfg.R, dim}, layer.Normal(rng, 1, cfg.R*dim)),
		gate:  gate,
		scale: cfg.scale(),
		r:     cfg.R,
	}
}

func factorNode(g *G.ExprGraph, name string, shape tensor.Shape, backing []float64) *G.Node {
	t := tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing))
	return G.NewMatrix(g, tensor.Float64, G.WithShape(shape...), G.WithName(name), G.WithValue(t))
}

// Forward adds the gated low-rank delta to the base output.
func (ad *matmulAdapter) Forward(x *G.Node) (*G.Node, error) {
	baseOut, err := ad.base.Forward(x)
	if err != nil {
		return nil, err
	}
	xa, err := G.Mul(x, ad.a)
	if err != nil {
		return nil, err
	}
	delta, err := G.Mul(xa, ad.b)
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

// Params returns the base parameters plus the injected factors.
func (ad *matmulAdapter) Params() map[string]*G.Node {
	out := ad.base.Params()
	out["lora_A"] = ad.a
	out["lora_B"] = ad.b
	return out
}

// AdapterParams returns only the injected factors.
func (ad *matmulAdapter) AdapterParams() map[string]*G.Node {
	return map[string]*G.Node{"lora_A": ad.a, "lora_B": ad.b}
}

// Merge folds scale*A*B into the base weight in place.
func (ad *matmulAdapter) Merge(scale float64) error {
	w := ad.base.Weight().Value().Data().([]float64)
	a := ad.a.Value().Data().([]float64)
	b := ad.b.Value().Data().([]float64)
	in, out := ad.base.In(), ad.base.Out()
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			var acc float64
			for q := 0; q < ad.r; q++ {
				acc += a[i*ad.r+q] * b[q*out+j]
			}
			w[i*out+j] += scale * acc
		}
	}
	return nil
}
