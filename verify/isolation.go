package verify

import (
	"github.com/lowrank/peft/lora"
	"github.com/lowrank/peft/parallel"
	"github.com/lowrank/peft/trainer"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// IsolationLearnRate is the step size isolation checks should train with.
// The identity initialization keeps one factor at zero, and with small steps
// the zero factor of an embedding adapter moves less than the tolerance
// within the three stock steps. A large step makes the movement measurable
// for every layer kind.
const IsolationLearnRate = 0.5

// ParameterIsolation trains m briefly and asserts optimization touched only
// the injected adapter factors: every base parameter stays within tolerance,
// every adapter factor escapes it in at least one element. A violation names
// the offending parameter; a stuck adapter signals dead gradient flow, a
// moved base parameter signals a leak.
func ParameterIsolation(m *lora.Model, hp trainer.Hyperparameters, input tensor.Tensor, seed int64) error {
	sess, err := trainer.NewSession(m, hp, seed)
	if err != nil {
		return err
	}
	defer sess.Close()

	before, err := Capture(m.NamedParams())
	if err != nil {
		return err
	}
	if err := sess.Train(input, hp.Steps); err != nil {
		return err
	}
	after, err := Capture(m.NamedParams())
	if err != nil {
		return err
	}
	if !SameKeys(before, after) {
		return errors.New("verify: parameter set changed across training")
	}

	names := before.Names()
	violations := make([]*Violation, len(names))
	parallel.ForEach(len(names), hp.Threads, func(i int) {
		name := names[i]
		within, max := withinTolerance(after[name], before[name], hp.Tolerance)
		if lora.IsAdapter(name) {
			if within {
				violations[i] = &Violation{Kind: KindDeadAdapter, Param: name, Delta: max}
			}
		} else if !within {
			violations[i] = &Violation{Kind: KindBaseDrift, Param: name, Delta: max}
		}
	})
	for _, v := range violations {
		if v != nil {
			return v
		}
	}
	return nil
}
