package verify

import (
	"github.com/lowrank/peft/inference"
	"github.com/lowrank/peft/lora"
	"github.com/lowrank/peft/trainer"
	"gorgonia.org/tensor"
)

// DisableRoundTrip verifies the disable scope removes the entire learned
// contribution, not merely some of it: training changes outputs, disabling
// reproduces the exact pre-training behavior, and the scope restores itself
// on every exit path.
//
// Callers should not run this for embedding-only target sets: embedding
// adapters always start at the identity, so the divergence half of the check
// is not meaningful there. See lora's embedding adapter notes.
func DisableRoundTrip(m *lora.Model, hp trainer.Hyperparameters, input tensor.Tensor, seed int64) error {
	sess, err := trainer.NewSession(m, hp, seed)
	if err != nil {
		return err
	}
	defer sess.Close()

	outBefore, err := inference.Infer(sess, input)
	if err != nil {
		return err
	}
	if err := sess.Train(input, hp.Steps); err != nil {
		return err
	}
	outAfter, err := inference.Infer(sess, input)
	if err != nil {
		return err
	}
	outDisabled, err := func() (tensor.Tensor, error) {
		guard, err := m.DisableAdapters()
		if err != nil {
			return nil, err
		}
		defer guard.Restore()
		return inference.Infer(sess, input)
	}()
	if err != nil {
		return err
	}
	if m.GateValue() != 1 {
		return &Violation{Kind: KindRestore, Param: "lora_gate", Delta: m.GateValue()}
	}

	if same, max := tensorsClose(outAfter, outBefore, hp.Tolerance); same {
		return &Violation{Kind: KindNoEffect, Param: "output", Delta: max}
	}
	if same, max := tensorsClose(outDisabled, outBefore, hp.Tolerance); !same {
		return &Violation{Kind: KindDisable, Param: "output", Delta: max}
	}
	return nil
}

// DisableIdempotence checks that entering and leaving a disable scope
// without training in between leaves evaluation outputs untouched.
func DisableIdempotence(m *lora.Model, hp trainer.Hyperparameters, input tensor.Tensor, seed int64) error {
	sess, err := trainer.NewSession(m, hp, seed)
	if err != nil {
		return err
	}
	defer sess.Close()

	before, err := inference.Infer(sess, input)
	if err != nil {
		return err
	}
	guard, err := m.DisableAdapters()
	if err != nil {
		return err
	}
	if _, err := inference.Infer(sess, input); err != nil {
		guard.Restore()
		return err
	}
	guard.Restore()
	after, err := inference.Infer(sess, input)
	if err != nil {
		return err
	}
	if same, max := tensorsClose(after, before, hp.Tolerance); !same {
		return &Violation{Kind: KindDisable, Param: "output", Delta: max}
	}
	return nil
}
