package lora

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

type adapterState struct {
	Config  Config                 `json:"config"`
	Tensors map[string]tensorState `json:"tensors"`
}

type tensorState struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// WriteAdapterJSONToFile writes the adapter factors to a json file.
func (m *Model) WriteAdapterJSONToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = m.WriteAdapterJSON(file)
	file.Close()
	return err
}

// WriteAdapterJSON writes the adapter config and factor tensors to a writer.
// Base parameters are not saved; the adapter state is the whole checkpoint.
func (m *Model) WriteAdapterJSON(w io.Writer) error {
	st := adapterState{Config: m.cfg, Tensors: make(map[string]tensorState)}
	for name, p := range m.NamedParams() {
		if !IsAdapter(name) {
			continue
		}
		data := p.Value().Data().([]float64)
		cp := make([]float64, len(data))
		copy(cp, data)
		st.Tensors[name] = tensorState{Shape: []int(p.Shape()), Data: cp}
	}
	return json.NewEncoder(w).Encode(st)
}

// ReadAdapterJSONFromFile reads adapter factors from a json file.
func (m *Model) ReadAdapterJSONFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	err = m.ReadAdapterJSON(file)
	file.Close()
	return err
}

// ReadAdapterJSON loads factors saved by WriteAdapterJSON into a model that
// was wrapped with an equivalent config. Unknown names, non-adapter names
// and shape mismatches are configuration errors.
func (m *Model) ReadAdapterJSON(r io.Reader) error {
	var st adapterState
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return errors.Wrap(err, "decoding adapter state")
	}
	params := m.NamedParams()
	for name, ts := range st.Tensors {
		p, ok := params[name]
		if !ok {
			return &ConfigError{Target: name, Reason: "saved factor has no parameter on this model"}
		}
		if !IsAdapter(name) {
			return &ConfigError{Target: name, Reason: "saved state names a base parameter"}
		}
		shape := []int(p.Shape())
		if !sameShape(shape, ts.Shape) {
			return &ConfigError{
				Target: name,
				Reason: fmt.Sprintf("shape mismatch: saved %v, model has %v", ts.Shape, shape),
			}
		}
		dst := p.Value().Data().([]float64)
		if len(dst) != len(ts.Data) {
			return &ConfigError{Target: name, Reason: "data length does not match shape"}
		}
		copy(dst, ts.Data)
	}
	return nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
