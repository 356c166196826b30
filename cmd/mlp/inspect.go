package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-mlp/psychometric"
	"github.com/cwbudde/algo-mlp/stimulus"
	"github.com/cwbudde/algo-mlp/trial"
)

func newReplayCmd(est *estimatorFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <log.csv>",
		Short: "Rebuild estimates from a trial log",
		Long: `Feed every trial of a log into a fresh estimator and print its summary.
The estimator flags must match the ones used when the block was run.

Example: mlp replay data/p01-pitch-20240131-142501.csv --hyp-max 300 --slope 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := trial.ReadLog(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			e, err := trial.Replay(est.config(), records)
			if err != nil {
				return err
			}

			mid, err := e.MidpointEstimate()
			if err != nil {
				return err
			}
			fa, err := e.FalseAlarmEstimate()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, e.Summary())
			fmt.Fprintf(out, "Replayed trials: %d\nThreshold estimate: %.3f\nFalse alarm estimate: %.3f\n", len(records), mid, fa)
			return nil
		},
	}
}

func newTargetCmd(est *estimatorFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "target",
		Short: "Print the optimal tracking probabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := est.estimator()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "FA rate\tOptimal p\n")
			fmt.Fprintf(tw, "-------\t---------\n")
			for _, a := range e.Config().FalseAlarmRates {
				fmt.Fprintf(tw, "%.3f\t%.4f\n", a, psychometric.OptimalP(a))
			}
			fmt.Fprintf(tw, "target\t%.4f\n", e.CalculateTarget())
			return tw.Flush()
		},
	}
}

func newStimulusCmd() *cobra.Command {
	var (
		task  string
		level float64
	)

	cmd := &cobra.Command{
		Use:   "stimulus",
		Short: "Synthesize a stimulus and report its properties",
		Long: `Render the five-tone sequence for a task at one level and report its
length and the measured frequency and onset of the deviant tone.

Example: mlp stimulus --task pitch --level 35`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := stimulus.New()
			if err != nil {
				return err
			}

			var (
				seq   []float64
				gap   time.Duration
				shift int
			)
			switch task {
			case "pitch":
				seq, err = s.PitchSequence(level)
				gap = stimulus.PitchGap
			case "anisochrony":
				seq, err = s.AnisochronySequence(level)
				gap = stimulus.AnisochronyGap
				shift = s.DelaySamples(level)
			default:
				return fmt.Errorf("unknown task %q (want pitch or anisochrony)", task)
			}
			if err != nil {
				return err
			}

			sr := s.Config().SampleRate
			on := s.Onset(stimulus.DeviantIndex, gap) + shift
			freq, err := stimulus.DominantFrequency(seq[on:on+s.ToneSamples()], sr)
			if err != nil {
				return err
			}

			lvl := stimulus.MeasureLevel(seq)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "task: %s level: %g\n", task, level)
			fmt.Fprintf(out, "samples: %d (%.3f s at %g Hz)\n", len(seq), float64(len(seq))/sr, sr)
			fmt.Fprintf(out, "peak: %.2f dBFS, rms: %.2f dBFS\n", lvl.PeakDB, lvl.RMSDB)
			fmt.Fprintf(out, "deviant onset: %.1f ms, frequency: %.1f Hz\n", 1000*float64(on)/sr, freq)
			return nil
		},
	}

	cmd.Flags().StringVar(&task, "task", "pitch", "pitch (level in cents) or anisochrony (level in ms)")
	cmd.Flags().Float64Var(&level, "level", 0, "deviation of the fourth tone")

	return cmd
}
