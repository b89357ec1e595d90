package linear_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lowrank/peft/layer/linear"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestForward(t *testing.T) {
	g := G.NewGraph()
	l := linear.New(g, "lin", 3, 2, rand.New(rand.NewSource(1)))
	x := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 3), G.WithName("x"))
	y, err := l.Forward(x)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}

	in := []float64{1, 2, 3, -1, 0.5, 2}
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := G.Let(x, tensor.New(tensor.WithShape(2, 3), tensor.WithBacking(in))); err != nil {
		t.Fatalf("binding input: %v", err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatalf("running machine: %v", err)
	}

	w := l.Params()["weight"].Value().Data().([]float64)
	b := l.Params()["bias"].Value().Data().([]float64)
	got := y.Value().Data().([]float64)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			want := b[c]
			for k := 0; k < 3; k++ {
				want += in[r*3+k] * w[k*2+c]
			}
			if d := math.Abs(got[r*2+c] - want); d > 1e-12 {
				t.Errorf("row %d col %d: got %v want %v", r, c, got[r*2+c], want)
			}
		}
	}
}

func TestSeededInit(t *testing.T) {
	a := linear.New(G.NewGraph(), "lin", 4, 3, rand.New(rand.NewSource(2)))
	b := linear.New(G.NewGraph(), "lin", 4, 3, rand.New(rand.NewSource(2)))
	wa := a.Params()["weight"].Value().Data().([]float64)
	wb := b.Params()["weight"].Value().Data().([]float64)
	for i := range wa {
		if wa[i] != wb[i] {
			t.Fatalf("weight element %d differs for equal seeds", i)
		}
	}
	k := 1 / math.Sqrt(4)
	for i, v := range wa {
		if v < -k || v >= k {
			t.Errorf("weight element %d is %v, outside [-%v, %v)", i, v, k, k)
		}
	}
}

func TestParamsCopy(t *testing.T) {
	l := linear.New(G.NewGraph(), "lin", 2, 2, rand.New(rand.NewSource(3)))
	p := l.Params()
	delete(p, "weight")
	if _, ok := l.Params()["weight"]; !ok {
		t.Fatal("mutating the returned map reached the layer")
	}
	if l.In() != 2 || l.Out() != 2 {
		t.Fatalf("dims: got (%d, %d)", l.In(), l.Out())
	}
}
