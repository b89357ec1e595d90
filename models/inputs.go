package models

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Input returns the deterministic fixture input for a model id: the values
// 0..89 shaped or encoded the way the model expects them.
func Input(id string) (tensor.Tensor, error) {
	switch id {
	case MLPID:
		return tensor.New(tensor.WithShape(9, 10), tensor.WithBacking(arange(90))), nil
	case EmbConv1DID:
		// token i maps to one-hot row i
		backing := make([]float64, embPositions*embVocab)
		for i := 0; i < embPositions; i++ {
			backing[i*embVocab+i] = 1
		}
		return tensor.New(tensor.WithShape(embPositions, embVocab), tensor.WithBacking(backing)), nil
	case Conv2dID:
		return tensor.New(tensor.WithShape(2, 5, 3, 3), tensor.WithBacking(arange(90))), nil
	}
	return nil, errors.Errorf("models: unknown model id %q", id)
}

func arange(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}
