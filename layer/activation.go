package layer

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Rectify applies the ReLU activation.
func Rectify(x *G.Node) (*G.Node, error) {
	return G.Rectify(x)
}

// LogSoftMax computes a log softmax along the last axis of a rank 2 node.
// The log-sum-exp is accumulated pairwise over columns with the max trick,
// so large logits neither overflow nor collapse to -Inf.
func LogSoftMax(x *G.Node) (*G.Node, error) {
	shp := x.Shape()
	if len(shp) != 2 {
		return nil, errors.Errorf("layer: log softmax wants a matrix, got shape %v", shp)
	}
	rows, cols := shp[0], shp[1]
	lse, err := G.Slice(x, nil, G.S(0))
	if err != nil {
		return nil, err
	}
	for j := 1; j < cols; j++ {
		col, err := G.Slice(x, nil, G.S(j))
		if err != nil {
			return nil, err
		}
		if lse, err = logAddExp(lse, col); err != nil {
			return nil, err
		}
	}
	keep, err := G.Reshape(lse, tensor.Shape{rows, 1})
	if err != nil {
		return nil, err
	}
	return G.BroadcastSub(x, keep, nil, []byte{1})
}

// logAddExp builds the stable pairwise log(exp(u)+exp(v)):
// max(u,v) + log(1+exp(-|u-v|)), with max expressed through |u-v|.
func logAddExp(u, v *G.Node) (*G.Node, error) {
	d, err := G.Sub(u, v)
	if err != nil {
		return nil, err
	}
	ad, err := G.Abs(d)
	if err != nil {
		return nil, err
	}
	sum, err := G.Add(u, v)
	if err != nil {
		return nil, err
	}
	half := G.NewConstant(0.5)
	mean, err := G.Mul(sum, half)
	if err != nil {
		return nil, err
	}
	spread, err := G.Mul(ad, half)
	if err != nil {
		return nil, err
	}
	max, err := G.Add(mean, spread)
	if err != nil {
		return nil, err
	}
	neg, err := G.Neg(ad)
	if err != nil {
		return nil, err
	}
	e, err := G.Exp(neg)
	if err != nil {
		return nil, err
	}
	onePlus, err := G.Add(G.NewConstant(1.0), e)
	if err != nil {
		return nil, err
	}
	l, err := G.Log(onePlus)
	if err != nil {
		return nil, err
	}
	return G.Add(max, l)
}
