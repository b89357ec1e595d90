package lora

import "github.com/pkg/errors"

// Guard is a scoped adapter suppression. The caller must Restore it,
// typically via defer, so the model is re-enabled on every exit path
// including error paths.
type Guard struct {
	m    *Model
	done bool
}

// DisableAdapters suppresses the adapter contribution until the returned
// guard is restored. Nested disables are rejected rather than refcounted so
// a forgotten Restore cannot hide behind an outer scope.
func (m *Model) DisableAdapters() (*Guard, error) {
	if m.merged {
		return nil, errors.New("lora: adapters were merged, nothing to disable")
	}
	if m.disabled {
		return nil, errors.New("lora: adapters already disabled")
	}
	m.disabled = true
	m.gateVal = 0
	return &Guard{m: m}, nil
}

// Restore re-enables the adapter contribution. Restoring twice is a no-op.
func (g *Guard) Restore() {
	if g.done {
		return
	}
	g.done = true
	g.m.disabled = false
	g.m.gateVal = 1
}
