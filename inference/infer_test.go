package inference_test

import (
	"math"
	"testing"

	"github.com/lowrank/peft/inference"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

type fixedEvaluator struct {
	out tensor.Tensor
	err error
}

func (f fixedEvaluator) Eval(x tensor.Tensor) (tensor.Tensor, error) { return f.out, f.err }

func TestCheckFinite(t *testing.T) {
	if err := inference.CheckFinite("ok", []float64{0, -1.5, 1e300}); err != nil {
		t.Fatalf("finite data rejected: %v", err)
	}
	err := inference.CheckFinite("bad", []float64{1, math.NaN(), 2})
	var ne *inference.NumericError
	if !errors.As(err, &ne) {
		t.Fatalf("got %v, want a numeric error", err)
	}
	if ne.Name != "bad" || ne.Index != 1 {
		t.Errorf("got %q index %d, want %q index 1", ne.Name, ne.Index, "bad")
	}
	if err := inference.CheckFinite("inf", []float64{math.Inf(-1)}); err == nil {
		t.Fatal("infinity accepted")
	}
}

func TestInfer(t *testing.T) {
	good := tensor.New(tensor.WithShape(2), tensor.WithBacking([]float64{1, 2}))
	out, err := inference.Infer(fixedEvaluator{out: good}, nil)
	if err != nil {
		t.Fatalf("finite output rejected: %v", err)
	}
	if out != good {
		t.Fatal("output was not passed through")
	}

	bad := tensor.New(tensor.WithShape(2), tensor.WithBacking([]float64{1, math.Inf(1)}))
	var ne *inference.NumericError
	if _, err := inference.Infer(fixedEvaluator{out: bad}, nil); !errors.As(err, &ne) {
		t.Fatalf("got %v, want a numeric error", err)
	}

	wantErr := errors.New("boom")
	if _, err := inference.Infer(fixedEvaluator{err: wantErr}, nil); err != wantErr {
		t.Fatalf("got %v, want the evaluator error", err)
	}
}
