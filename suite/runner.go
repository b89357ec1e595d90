package suite

import (
	"github.com/google/uuid"
	"github.com/lowrank/peft/lora"
	"github.com/lowrank/peft/models"
	"github.com/lowrank/peft/trainer"
	"github.com/lowrank/peft/verify"
	"go.uber.org/zap"
	"gorgonia.org/tensor"
)

// Check names, as reported in results and logs.
const (
	CheckIsolation   = "parameter-isolation"
	CheckIdempotence = "disable-idempotence"
	CheckDisable     = "disable-round-trip"
	CheckMerge       = "merge-round-trip"
)

// Result is the outcome of one check of one case. Err is nil on success.
type Result struct {
	ID    string
	Case  Case
	Check string
	Err   error
}

// Runner executes verification cases. Each check gets a fresh seeded model,
// so checks never observe each other's training.
type Runner struct {
	Log  *zap.Logger
	HP   trainer.Hyperparameters
	Seed int64
}

// Run executes every check for every case and returns all results.
func (r *Runner) Run(cases []Case) []Result {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	var results []Result
	for _, c := range cases {
		results = append(results, r.runCase(log, c)...)
	}
	return results
}

// Failed filters results down to the failures.
func Failed(results []Result) []Result {
	var out []Result
	for _, res := range results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// check pairs a named verification routine with the initialization mode its
// wrapped model needs and the step size it trains with.
type check struct {
	name     string
	identity bool
	lr       float64
	run      func(m *lora.Model, hp trainer.Hyperparameters, input tensor.Tensor, seed int64) error
}

func (r *Runner) runCase(log *zap.Logger, c Case) []Result {
	// Isolation trains at its own step size; the output round-trips use
	// the per-case rate. See verify.IsolationLearnRate.
	checks := []check{
		{CheckIsolation, true, verify.IsolationLearnRate, verify.ParameterIsolation},
		{CheckIdempotence, true, c.LearnRate, verify.DisableIdempotence},
	}
	if !c.EmbeddingOnly() {
		checks = append(checks,
			check{CheckDisable, true, c.LearnRate, verify.DisableRoundTrip},
			check{CheckMerge, false, c.LearnRate, verify.MergeRoundTrip},
		)
	}

	results := make([]Result, 0, len(checks))
	for _, ck := range checks {
		id := uuid.NewString()
		clog := log.With(
			zap.String("run_id", id),
			zap.String("case", c.Name),
			zap.String("check", ck.name),
		)
		hp := r.HP
		hp.LearnRate = ck.lr
		m, input, err := r.prepare(c, ck.identity)
		if err == nil {
			err = ck.run(m, hp, input, r.Seed)
		}
		if err != nil {
			clog.Error("check failed", zap.Error(err))
		} else {
			clog.Info("check passed")
		}
		results = append(results, Result{ID: id, Case: c, Check: ck.name, Err: err})
	}
	return results
}

// prepare builds a fresh fixture model for the case and wraps it.
func (r *Runner) prepare(c Case, identity bool) (*lora.Model, tensor.Tensor, error) {
	base, err := models.New(c.Model, r.Seed)
	if err != nil {
		return nil, nil, err
	}
	input, err := models.Input(c.Model)
	if err != nil {
		return nil, nil, err
	}
	cfg := lora.Config{
		TargetModules: c.Targets,
		R:             c.R,
		Alpha:         c.Alpha,
		InitWeights:   identity,
		Seed:          r.Seed + 1,
	}
	m, err := lora.Apply(base, cfg)
	if err != nil {
		return nil, nil, err
	}
	return m, input, nil
}
