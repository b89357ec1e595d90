package main

import (
	"testing"

	"github.com/lowrank/peft/suite"
)

func TestRunFlags(t *testing.T) {
	for _, name := range []string{"config", "steps", "tol", "lr", "seed", "verbose"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("run command is missing the --%s flag", name)
		}
	}
}

func TestOverrideLearnRate(t *testing.T) {
	cases := []suite.Case{{Name: "a", LearnRate: 0.01}, {Name: "b", LearnRate: 0.5}}

	out := overrideLearnRate(cases, 0)
	if out[0].LearnRate != 0.01 || out[1].LearnRate != 0.5 {
		t.Errorf("zero rate must keep per-case rates, got %v and %v", out[0].LearnRate, out[1].LearnRate)
	}

	out = overrideLearnRate(cases, 0.25)
	for i, c := range out {
		if c.LearnRate != 0.25 {
			t.Errorf("case %d: got rate %v, want 0.25", i, c.LearnRate)
		}
	}
}
