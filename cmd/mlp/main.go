// Command mlp runs maximum-likelihood threshold estimation blocks.
//
// Usage:
//
//	mlp <command> [flags]
//
// Commands:
//
//	simulate   run a block against a synthetic listener
//	run        run an interactive console block and log it
//	replay     rebuild estimates from a trial log
//	target     print the tracking target for a configuration
//	stimulus   synthesize a pitch or anisochrony stimulus
//
// Estimator flags default to the MLP_* environment variables, which may be
// set in the file named by MLP_ENV (default .env).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-mlp/internal/config"
	"github.com/cwbudde/algo-mlp/mlp"
)

func main() {
	_ = config.Load()

	logger, err := config.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(logger).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	est := &estimatorFlags{}

	rootCmd := &cobra.Command{
		Use:           "mlp",
		Short:         "Maximum-likelihood procedure for psychophysical thresholds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	est.bind(rootCmd)

	rootCmd.AddCommand(
		newSimulateCmd(logger, est),
		newRunCmd(logger, est),
		newReplayCmd(est),
		newTargetCmd(est),
		newStimulusCmd(),
	)
	return rootCmd
}

// estimatorFlags are shared by every command that builds an estimator.
type estimatorFlags struct {
	slope  float64
	hypMin float64
	hypMax float64
	hypN   int
	rates  []float64
	seed   uint64
}

func (f *estimatorFlags) bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.Float64Var(&f.slope, "slope", config.Slope(), "psychometric curve slope k (MLP_SLOPE)")
	pf.Float64Var(&f.hypMin, "hyp-min", config.HypMin(), "lowest hypothesised midpoint (MLP_HYP_MIN)")
	pf.Float64Var(&f.hypMax, "hyp-max", config.HypMax(), "highest hypothesised midpoint (MLP_HYP_MAX)")
	pf.IntVar(&f.hypN, "hyp-n", config.HypN(), "number of midpoints (MLP_HYP_N)")
	pf.Float64SliceVar(&f.rates, "false-alarm-rates", config.FalseAlarmRates(), "hypothesised false alarm rates (MLP_FALSE_ALARM_RATES)")
	pf.Uint64Var(&f.seed, "seed", config.Seed(), "random seed for tie-breaking and shuffling (MLP_SEED)")
}

func (f *estimatorFlags) config() mlp.Config {
	return mlp.Config{
		Slope:           f.slope,
		HypMin:          f.hypMin,
		HypMax:          f.hypMax,
		HypN:            f.hypN,
		FalseAlarmRates: f.rates,
	}
}

func (f *estimatorFlags) estimator() (*mlp.Estimator, error) {
	return mlp.New(f.config(), mlp.WithSeed(f.seed))
}
