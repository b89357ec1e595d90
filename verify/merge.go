package verify

import (
	"github.com/lowrank/peft/inference"
	"github.com/lowrank/peft/lora"
	"github.com/lowrank/peft/trainer"
	"gorgonia.org/tensor"
)

// MergeRoundTrip folds the adapters into the base weights and checks the
// merged model reproduces the adapter outputs. The wrapped model should use
// a non-identity initialization so the fold is exercised with a nonzero
// delta. No training happens first: the fold is compared at the initial
// factor values, where the host-side product and the graph's factored path
// agree to rounding error.
//
// Embedding-only target sets are excluded for the same reason as in
// DisableRoundTrip: their adapters ignore the non-identity request.
func MergeRoundTrip(m *lora.Model, hp trainer.Hyperparameters, input tensor.Tensor, seed int64) error {
	sess, err := trainer.NewSession(m, hp, seed)
	if err != nil {
		return err
	}
	defer sess.Close()

	withAdapters, err := inference.Infer(sess, input)
	if err != nil {
		return err
	}
	if err := m.Merge(); err != nil {
		return err
	}
	merged, err := inference.Infer(sess, input)
	if err != nil {
		return err
	}
	if same, max := tensorsClose(merged, withAdapters, hp.Tolerance); !same {
		return &Violation{Kind: KindMerge, Param: "output", Delta: max}
	}
	return nil
}
