// Package suite enumerates and runs the stock adapter verification cases
package suite

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Case is one adapter verification scenario: a fixture model, the modules to
// adapt, and the optimization settings.
type Case struct {
	Name      string   `yaml:"name"`
	Model     string   `yaml:"model"`
	Targets   []string `yaml:"targets"`
	R         int      `yaml:"rank"`
	Alpha     float64  `yaml:"alpha"`
	LearnRate float64  `yaml:"learn_rate"`
}

// EmbeddingOnly reports whether every target of the case is an embedding.
// Such cases skip the disable and merge round-trips: embedding adapters
// always start at the identity, so a non-identity start cannot be arranged.
func (c Case) EmbeddingOnly() bool {
	for _, t := range c.Targets {
		if t != "emb" {
			return false
		}
	}
	return len(c.Targets) > 0
}

// Defaults enumerates the stock scenarios: each fixture model with every
// sensible target combination, plus the rank-1 scenario trained with a
// large step size.
func Defaults() []Case {
	return []Case{
		{Name: "mlp-lin0", Model: "MLP", Targets: []string{"lin0"}, R: 8, Alpha: 8, LearnRate: 0.01},
		{Name: "mlp-lin1", Model: "MLP", Targets: []string{"lin1"}, R: 8, Alpha: 8, LearnRate: 0.01},
		{Name: "mlp-lin0-lin1", Model: "MLP", Targets: []string{"lin0", "lin1"}, R: 8, Alpha: 8, LearnRate: 0.01},
		{Name: "embconv1d-conv1d", Model: "EmbConv1D", Targets: []string{"conv1d"}, R: 8, Alpha: 8, LearnRate: 0.01},
		{Name: "embconv1d-emb", Model: "EmbConv1D", Targets: []string{"emb"}, R: 8, Alpha: 8, LearnRate: 0.01},
		{Name: "embconv1d-emb-conv1d", Model: "EmbConv1D", Targets: []string{"emb", "conv1d"}, R: 8, Alpha: 8, LearnRate: 0.01},
		{Name: "conv2d", Model: "Conv2d", Targets: []string{"conv2d"}, R: 8, Alpha: 8, LearnRate: 0.01},
		{Name: "conv2d-lin0", Model: "Conv2d", Targets: []string{"conv2d", "lin0"}, R: 8, Alpha: 8, LearnRate: 0.01},
		{Name: "mlp-lin0-rank1", Model: "MLP", Targets: []string{"lin0"}, R: 1, Alpha: 1, LearnRate: 0.5},
	}
}

// Load reads a custom suite from a YAML file. Missing optimization fields
// fall back to the stock values.
func Load(path string) ([]Case, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading suite file")
	}
	var cases []Case
	if err := yaml.Unmarshal(b, &cases); err != nil {
		return nil, errors.Wrap(err, "parsing suite file")
	}
	for i := range cases {
		c := &cases[i]
		if c.Name == "" {
			return nil, errors.Errorf("suite: case %d has no name", i)
		}
		if c.Model == "" {
			return nil, errors.Errorf("suite: case %q has no model", c.Name)
		}
		if len(c.Targets) == 0 {
			return nil, errors.Errorf("suite: case %q has no targets", c.Name)
		}
		if c.R == 0 {
			c.R = 8
		}
		if c.Alpha == 0 {
			c.Alpha = float64(c.R)
		}
		if c.LearnRate == 0 {
			c.LearnRate = 0.01
		}
	}
	return cases, nil
}
