// Package inference runs evaluation forward passes and screens their outputs
package inference

import (
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// Evaluator produces outputs for an input tensor without updating any
// parameter. *trainer.Session satisfies it.
type Evaluator interface {
	Eval(x tensor.Tensor) (tensor.Tensor, error)
}

// NumericError reports a NaN or Inf in a captured tensor. Non-finite values
// are never tolerance-compared; they fail a check immediately.
type NumericError struct {
	Name  string
	Index int
	Value float64
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("inference: non-finite value %v at %s[%d]", e.Value, e.Name, e.Index)
}

// Infer evaluates x through e and rejects non-finite outputs.
func Infer(e Evaluator, x tensor.Tensor) (tensor.Tensor, error) {
	out, err := e.Eval(x)
	if err != nil {
		return nil, err
	}
	if err := CheckFinite("output", out.Data().([]float64)); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckFinite scans values for NaN or Inf.
func CheckFinite(name string, data []float64) error {
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &NumericError{Name: name, Index: i, Value: v}
		}
	}
	return nil
}
