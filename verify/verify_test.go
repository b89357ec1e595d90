package verify_test

import (
	"math"
	"strings"
	"testing"

	"github.com/lowrank/peft/inference"
	"github.com/lowrank/peft/lora"
	"github.com/lowrank/peft/models"
	"github.com/lowrank/peft/suite"
	"github.com/lowrank/peft/trainer"
	"github.com/lowrank/peft/verify"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

func build(c suite.Case, identity bool, seed int64) (*lora.Model, tensor.Tensor, error) {
	base, err := models.New(c.Model, seed)
	if err != nil {
		return nil, nil, err
	}
	input, err := models.Input(c.Model)
	if err != nil {
		return nil, nil, err
	}
	m, err := lora.Apply(base, lora.Config{
		TargetModules: c.Targets,
		R:             c.R,
		Alpha:         c.Alpha,
		InitWeights:   identity,
		Seed:          seed + 1,
	})
	if err != nil {
		return nil, nil, err
	}
	return m, input, nil
}

func prepare(t *testing.T, c suite.Case, identity bool, seed int64) (*lora.Model, tensor.Tensor) {
	t.Helper()
	m, input, err := build(c, identity, seed)
	if err != nil {
		t.Fatal(err)
	}
	return m, input
}

func hyper(c suite.Case) trainer.Hyperparameters {
	hp := trainer.Defaults()
	hp.LearnRate = c.LearnRate
	return hp
}

// Every stock scenario must satisfy every applicable invariant. Each check
// runs on a fresh model so nothing leaks between them.
func TestStockScenarios(t *testing.T) {
	const seed = 23
	for _, c := range suite.Defaults() {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			t.Run("isolation", func(t *testing.T) {
				m, x := prepare(t, c, true, seed)
				hp := hyper(c)
				hp.LearnRate = verify.IsolationLearnRate
				if err := verify.ParameterIsolation(m, hp, x, seed); err != nil {
					t.Error(err)
				}
			})
			t.Run("idempotence", func(t *testing.T) {
				m, x := prepare(t, c, true, seed)
				if err := verify.DisableIdempotence(m, hyper(c), x, seed); err != nil {
					t.Error(err)
				}
			})
			if c.EmbeddingOnly() {
				return
			}
			t.Run("disable", func(t *testing.T) {
				m, x := prepare(t, c, true, seed)
				if err := verify.DisableRoundTrip(m, hyper(c), x, seed); err != nil {
					t.Error(err)
				}
			})
			t.Run("merge", func(t *testing.T) {
				m, x := prepare(t, c, false, seed)
				if err := verify.MergeRoundTrip(m, hyper(c), x, seed); err != nil {
					t.Error(err)
				}
				if !m.Merged() {
					t.Error("model not marked merged after the round trip")
				}
			})
		})
	}
}

// The rank-1 scenario with a large step size makes the movement asymmetry
// easy to measure directly: both factors escape the tolerance, every base
// parameter stays bit identical.
func TestRankOneMovement(t *testing.T) {
	c := suite.Case{Model: models.MLPID, Targets: []string{"lin0"}, R: 1, Alpha: 1, LearnRate: 0.5}
	m, x := prepare(t, c, true, 23)
	hp := hyper(c)

	sess, err := trainer.NewSession(m, hp, 23)
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()
	before, err := verify.Capture(m.NamedParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Train(x, hp.Steps); err != nil {
		t.Fatal(err)
	}
	after, err := verify.Capture(m.NamedParams())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range before.Names() {
		var max float64
		for i := range before[name] {
			if d := math.Abs(after[name][i] - before[name][i]); d > max {
				max = d
			}
		}
		if lora.IsAdapter(name) {
			if max <= hp.Tolerance {
				t.Errorf("factor %q moved only %g", name, max)
			}
		} else if max != 0 {
			t.Errorf("base parameter %q moved %g", name, max)
		}
	}
}

// The embedding adapter is the worst case for the movement invariant: its
// zero factor sees gradient only through the other factor's updates, so at
// small step sizes it stays inside the tolerance. At the isolation rate both
// factors must escape it.
func TestEmbeddingFactorsMove(t *testing.T) {
	c := suite.Case{Model: models.EmbConv1DID, Targets: []string{"emb"}, R: 8, Alpha: 8}
	m, x := prepare(t, c, true, 23)
	hp := trainer.Defaults()
	hp.LearnRate = verify.IsolationLearnRate

	sess, err := trainer.NewSession(m, hp, 23)
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()
	before, err := verify.Capture(m.NamedParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Train(x, hp.Steps); err != nil {
		t.Fatal(err)
	}
	after, err := verify.Capture(m.NamedParams())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"emb.lora_A", "emb.lora_B"} {
		var max float64
		for i := range before[name] {
			if d := math.Abs(after[name][i] - before[name][i]); d > max {
				max = d
			}
		}
		if max <= hp.Tolerance {
			t.Errorf("factor %q moved only %g", name, max)
		}
	}
}

// Folding a freshly wrapped non-identity model is pure arithmetic over the
// initial factors; the merged outputs must match the factored path almost to
// the last bit, far inside the stock tolerance.
func TestMergeFoldIsTight(t *testing.T) {
	for _, c := range []suite.Case{
		{Name: "mlp", Model: models.MLPID, Targets: []string{"lin0", "lin1"}, R: 8, Alpha: 8, LearnRate: 0.01},
		{Name: "rank1", Model: models.MLPID, Targets: []string{"lin0"}, R: 1, Alpha: 1, LearnRate: 0.5},
		{Name: "conv2d", Model: models.Conv2dID, Targets: []string{"conv2d", "lin0"}, R: 8, Alpha: 8, LearnRate: 0.01},
	} {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			m, x := prepare(t, c, false, 23)
			hp := hyper(c)
			hp.Tolerance = 1e-10
			if err := verify.MergeRoundTrip(m, hp, x, 23); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestCaptureRejectsNonFinite(t *testing.T) {
	c := suite.Case{Model: models.MLPID, Targets: []string{"lin0"}, R: 8, Alpha: 8, LearnRate: 0.01}
	m, x := prepare(t, c, true, 23)
	params := m.NamedParams()
	params["lin0.weight"].Value().Data().([]float64)[0] = math.NaN()

	var ne *inference.NumericError
	if _, err := verify.Capture(params); !errors.As(err, &ne) {
		t.Fatalf("capture: got %v, want a numeric error", err)
	}
	if ne.Name != "lin0.weight" || ne.Index != 0 {
		t.Errorf("got %q index %d", ne.Name, ne.Index)
	}
	if err := verify.ParameterIsolation(m, hyper(c), x, 23); !errors.As(err, &ne) {
		t.Errorf("isolation: got %v, want a numeric error", err)
	}
}

func TestSnapshotHelpers(t *testing.T) {
	a := verify.Snapshot{"b": {1}, "a": {2}}
	b := verify.Snapshot{"a": {9}, "b": {8}}
	if names := a.Names(); names[0] != "a" || names[1] != "b" {
		t.Errorf("names not sorted: %v", names)
	}
	if !verify.SameKeys(a, b) {
		t.Error("equal key sets reported different")
	}
	if verify.SameKeys(a, verify.Snapshot{"a": {1}}) {
		t.Error("different key sets reported equal")
	}
}

func TestViolationMessage(t *testing.T) {
	v := &verify.Violation{Kind: verify.KindBaseDrift, Param: "lin0.weight", Delta: 0.25}
	msg := v.Error()
	for _, want := range []string{verify.KindBaseDrift, "lin0.weight", "0.25"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
