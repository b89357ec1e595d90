package embedding_test

import (
	"math/rand"
	"testing"

	"github.com/lowrank/peft/layer/embedding"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// A one-hot row must select exactly its table row.
func TestForwardSelectsRows(t *testing.T) {
	g := G.NewGraph()
	l := embedding.New(g, "emb", 5, 3, rand.New(rand.NewSource(4)))
	x := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 5), G.WithName("x"))
	y, err := l.Forward(x)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}

	oneHot := make([]float64, 10)
	oneHot[0*5+3] = 1
	oneHot[1*5+1] = 1
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := G.Let(x, tensor.New(tensor.WithShape(2, 5), tensor.WithBacking(oneHot))); err != nil {
		t.Fatalf("binding input: %v", err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatalf("running machine: %v", err)
	}

	w := l.Weight().Value().Data().([]float64)
	got := y.Value().Data().([]float64)
	for c := 0; c < 3; c++ {
		if got[0*3+c] != w[3*3+c] {
			t.Errorf("row 0 col %d: got %v want table row 3 value %v", c, got[0*3+c], w[3*3+c])
		}
		if got[1*3+c] != w[1*3+c] {
			t.Errorf("row 1 col %d: got %v want table row 1 value %v", c, got[1*3+c], w[1*3+c])
		}
	}
	if l.In() != 5 || l.Out() != 3 {
		t.Fatalf("dims: got (%d, %d)", l.In(), l.Out())
	}
}
