package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-mlp/internal/config"
	"github.com/cwbudde/algo-mlp/observer"
	"github.com/cwbudde/algo-mlp/trial"
)

func newSimulateCmd(logger *zap.Logger, est *estimatorFlags) *cobra.Command {
	var (
		trials, catch int
		falseAlarm    float64
		midpoint      float64
		listenerSlope float64
		logPath       string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a block against a synthetic listener",
		Long: `Run a full block against a listener whose answers follow a known
psychometric curve, then print the estimator summary.

Example: mlp simulate --midpoint 50 --fa 0.1 --trials 60 --catch 8 --log sim.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := est.estimator()
			if err != nil {
				return err
			}

			plan, err := trial.Plan(trials, catch, rand.New(rand.NewPCG(est.seed, est.seed)))
			if err != nil {
				return err
			}

			opts := []trial.Option{trial.WithLogger(logger), trial.WithParticipant("simulated"), trial.WithTask("simulation")}
			if logPath != "" {
				f, err := os.Create(logPath)
				if err != nil {
					return fmt.Errorf("create trial log: %w", err)
				}
				defer f.Close()
				opts = append(opts, trial.WithSink(trial.NewCSVLog(f)))
			}

			listener := observer.NewSimulated(falseAlarm, midpoint, listenerSlope, est.seed)
			res, err := trial.NewRunner(e, listener, opts...).Run(cmd.Context(), plan)
			if err != nil {
				return err
			}

			return printResult(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().IntVar(&trials, "trials", 60, "adaptive trials in the block")
	cmd.Flags().IntVar(&catch, "catch", 8, "catch trials in the block")
	cmd.Flags().Float64Var(&falseAlarm, "fa", 0.1, "listener false alarm rate")
	cmd.Flags().Float64Var(&midpoint, "midpoint", 50, "listener threshold")
	cmd.Flags().Float64Var(&listenerSlope, "listener-slope", 0.1, "listener psychometric slope")
	cmd.Flags().StringVar(&logPath, "log", "", "write the trial log to this CSV file")

	return cmd
}

func newRunCmd(logger *zap.Logger, est *estimatorFlags) *cobra.Command {
	var (
		participant   string
		task          string
		trials, catch int
		practice      int
		dataDir       string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an interactive block on the console",
		Long: `Run a block for one participant. Each stimulus level is announced on the
console and answered with 1 (change heard), 0 (no change) or r (replay).
The trial log is written to the data directory as it goes.

Example: mlp run --participant p01 --task pitch --trials 30 --catch 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if participant == "" {
				return errors.New("--participant is required")
			}

			e, err := est.estimator()
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewPCG(est.seed, est.seed))
			plan, err := trial.Plan(trials, catch, rng)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			console := trial.NewConsole(cmd.InOrStdin(), out, nil)

			if practice > 0 {
				kinds := make([]trial.PracticeKind, 0, 2*practice)
				for range practice {
					kinds = append(kinds, trial.PracticeMax, trial.PracticeMin)
				}
				fmt.Fprintln(out, "Practice trials")
				_, err := trial.Practice(cmd.Context(), console, e.Config(), kinds, rng, func(r trial.PracticeResult) {
					if r.Correct {
						fmt.Fprintln(out, "Correct.")
					} else {
						fmt.Fprintln(out, "Incorrect.")
					}
				})
				if err != nil {
					return err
				}
			}

			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}
			path := filepath.Join(dataDir, trial.LogFileName(participant, task, time.Now()))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create trial log: %w", err)
			}
			defer f.Close()

			logger.Info("trial log", zap.String("path", path))
			fmt.Fprintln(out, "Experiment trials")

			res, err := trial.NewRunner(e, console,
				trial.WithLogger(logger),
				trial.WithSink(trial.NewCSVLog(f)),
				trial.WithParticipant(participant),
				trial.WithTask(task),
			).Run(cmd.Context(), plan)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Trial log written to %s\n", path)
			return printResult(out, res)
		},
	}

	cmd.Flags().StringVar(&participant, "participant", "", "participant code")
	cmd.Flags().StringVar(&task, "task", "mlp", "task name used in the log file name")
	cmd.Flags().IntVar(&trials, "trials", 30, "adaptive trials in the block")
	cmd.Flags().IntVar(&catch, "catch", 5, "catch trials in the block")
	cmd.Flags().IntVar(&practice, "practice", 2, "practice pairs (one maximum and one minimum trial each)")
	cmd.Flags().StringVar(&dataDir, "data-dir", config.DataDir(), "directory for trial logs (MLP_DATA_DIR)")

	return cmd
}

func printResult(w io.Writer, res trial.Result) error {
	if _, err := fmt.Fprintln(w, res.Summary); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Threshold estimate: %.3f\nFalse alarm estimate: %.3f\nUnderflow warnings: %d\n",
		res.Midpoint, res.FalseAlarm, res.Underflows)
	return err
}
