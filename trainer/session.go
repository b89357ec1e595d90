package trainer

import (
	"math/rand"

	"github.com/lowrank/peft/layer"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// trainable is satisfied by wrapped models that expose parameters to the
// solver. Plain models without it can still be evaluated.
type trainable interface {
	Trainable() G.Nodes
}

// gated is satisfied by wrapped models whose adapter path is controlled by a
// gate scalar bound on every run.
type gated interface {
	Gate() *G.Node
	GateValue() float64
}

// Session owns the compiled graph machinery for one model. A model builds
// its graph exactly once, so it belongs to exactly one session.
type Session struct {
	m     layer.Model
	hp    Hyperparameters
	out   *G.Node
	loss  *G.Node
	vm    G.VM
	solv  G.Solver
	nodes G.Nodes
	stoch []layer.Stochastic
	rng   *rand.Rand
}

// NewSession builds the forward pass and, for models with trainable
// parameters, the gradients of a sum-of-outputs loss.
func NewSession(m layer.Model, hp Hyperparameters, seed int64) (*Session, error) {
	out, err := m.Forward(m.Input())
	if err != nil {
		return nil, errors.Wrap(err, "building forward pass")
	}
	loss, err := G.Sum(out)
	if err != nil {
		return nil, errors.Wrap(err, "building loss")
	}
	s := &Session{
		m:    m,
		hp:   hp,
		out:  out,
		loss: loss,
		solv: G.NewVanillaSolver(G.WithLearnRate(hp.LearnRate)),
		rng:  rand.New(rand.NewSource(seed)),
	}
	if t, ok := m.(trainable); ok {
		s.nodes = t.Trainable()
	}
	if len(s.nodes) > 0 {
		if _, err := G.Grad(loss, s.nodes...); err != nil {
			return nil, errors.Wrap(err, "building gradients")
		}
		s.vm = G.NewTapeMachine(m.Graph(), G.BindDualValues(s.nodes...))
	} else {
		s.vm = G.NewTapeMachine(m.Graph())
	}
	for _, mod := range m.Modules() {
		if st, ok := mod.(layer.Stochastic); ok {
			s.stoch = append(s.stoch, st)
		}
	}
	return s, nil
}

// run binds the input and gate, executes the machine and clones the output.
// Callers reset the machine once they are done with this run's values.
func (s *Session) run(x tensor.Tensor) (tensor.Tensor, error) {
	if err := G.Let(s.m.Input(), x); err != nil {
		return nil, errors.Wrap(err, "binding input")
	}
	if g, ok := s.m.(gated); ok {
		if err := G.Let(g.Gate(), g.GateValue()); err != nil {
			return nil, errors.Wrap(err, "binding gate")
		}
	}
	if err := s.vm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "running machine")
	}
	data := s.out.Value().Data().([]float64)
	cp := make([]float64, len(data))
	copy(cp, data)
	return tensor.New(tensor.WithShape(s.out.Shape()...), tensor.WithBacking(cp)), nil
}

// Eval runs a forward pass in evaluation mode: deterministic stochastic
// layers, no parameter update.
func (s *Session) Eval(x tensor.Tensor) (tensor.Tensor, error) {
	for _, st := range s.stoch {
		st.Eval()
	}
	out, err := s.run(x)
	s.vm.Reset()
	return out, err
}

// Step performs one training iteration: fresh stochastic noise, forward,
// backward, one SGD update.
func (s *Session) Step(x tensor.Tensor) error {
	if len(s.nodes) == 0 {
		return errors.New("trainer: model has no trainable parameters")
	}
	for _, st := range s.stoch {
		st.Resample(s.rng)
	}
	if _, err := s.run(x); err != nil {
		s.vm.Reset()
		return err
	}
	err := s.solv.Step(G.NodesToValueGrads(s.nodes))
	s.vm.Reset()
	return errors.Wrap(err, "solver step")
}

// Train runs n training steps.
func (s *Session) Train(x tensor.Tensor, n int) error {
	if n < 1 {
		return errors.Errorf("trainer: steps must be at least 1, got %d", n)
	}
	for i := 0; i < n; i++ {
		if err := s.Step(x); err != nil {
			return errors.Wrapf(err, "step %d", i)
		}
	}
	return nil
}

// Hyperparameters returns the session settings.
func (s *Session) Hyperparameters() Hyperparameters { return s.hp }

// Close releases the underlying virtual machine.
func (s *Session) Close() error { return s.vm.Close() }
