package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lowrank/peft/suite"
	"github.com/lowrank/peft/trainer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	steps   int
	tol     float64
	lr      float64
	seed    int64
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "verify_adapters",
		Short: "Verify low-rank adapter injection on the fixture models",
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the verification suite",
		RunE:  run,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the stock cases",
		RunE:  list,
	}
)

func init() {
	runCmd.Flags().StringVar(&cfgFile, "config", "", "YAML suite file (default: stock cases)")
	runCmd.Flags().IntVar(&steps, "steps", 0, "training steps per check (default 3)")
	runCmd.Flags().Float64Var(&tol, "tol", 0, "comparison tolerance (default 1e-4)")
	runCmd.Flags().Float64Var(&lr, "lr", 0, "learning rate for every case (default: per-case rate)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "model and adapter seed")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "log passing checks too")
	rootCmd.AddCommand(runCmd, listCmd)
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cases := suite.Defaults()
	if cfgFile != "" {
		if cases, err = suite.Load(cfgFile); err != nil {
			return err
		}
	}
	cases = overrideLearnRate(cases, lr)
	hp := trainer.Defaults()
	if steps > 0 {
		hp.Steps = steps
	}
	if tol > 0 {
		hp.Tolerance = tol
	}

	r := suite.Runner{Log: logger, HP: hp, Seed: seed}
	results := r.Run(cases)
	failed := suite.Failed(results)
	fmt.Printf("%d checks, %d failed\n", len(results), len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
	}
	return nil
}

func list(cmd *cobra.Command, args []string) error {
	for _, c := range suite.Defaults() {
		fmt.Printf("%-22s model=%-10s targets=%-16s rank=%d alpha=%g lr=%g\n",
			c.Name, c.Model, strings.Join(c.Targets, ","), c.R, c.Alpha, c.LearnRate)
	}
	return nil
}

func overrideLearnRate(cases []suite.Case, rate float64) []suite.Case {
	if rate <= 0 {
		return cases
	}
	for i := range cases {
		cases[i].LearnRate = rate
	}
	return cases
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
