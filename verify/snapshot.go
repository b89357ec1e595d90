package verify

import (
	"sort"

	"github.com/lowrank/peft/inference"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

// Snapshot is an immutable deep copy of a named parameter mapping, captured
// before and after a training run and discarded after comparison.
type Snapshot map[string][]float64

// Capture deep copies every parameter value. It fails on non-finite values:
// a poisoned snapshot would make every later comparison meaningless.
func Capture(params map[string]*G.Node) (Snapshot, error) {
	out := make(Snapshot, len(params))
	for name, p := range params {
		v := p.Value()
		if v == nil {
			return nil, errors.Errorf("verify: parameter %q has no value", name)
		}
		data, ok := v.Data().([]float64)
		if !ok {
			return nil, errors.Errorf("verify: parameter %q is not float64 backed", name)
		}
		if err := inference.CheckFinite(name, data); err != nil {
			return nil, err
		}
		cp := make([]float64, len(data))
		copy(cp, data)
		out[name] = cp
	}
	return out, nil
}

// Names returns the snapshot's parameter names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SameKeys reports whether two snapshots cover the same parameter set.
func SameKeys(a, b Snapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for name := range a {
		if _, ok := b[name]; !ok {
			return false
		}
	}
	return true
}
