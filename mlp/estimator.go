// Package mlp implements the Maximum Likelihood Procedure for adaptive
// threshold tracking (Green 1993; Gu and Green 1994) with a false-alarm
// dimension in the hypothesis space so that catch trials can correct for
// response bias (Leek et al. 2000).
//
// An Estimator keeps a grid of candidate logistic psychometric curves, one per
// (false-alarm rate, threshold) pair. Every response reweights the grid by its
// likelihood, and the next stimulus is the point where the most likely curve
// crosses the bias-corrected tracking target.
//
// # Usage
//
//	est, err := mlp.New(mlp.DefaultConfig(), mlp.WithSeed(7))
//	if err != nil {
//	    return err
//	}
//	x := 200.0
//	for i := 0; i < 30; i++ {
//	    detected := present(x)
//	    _ = est.Update(x, detected)
//	    if x, err = est.NextStimulus(); err != nil {
//	        return err
//	    }
//	}
//	m, _ := est.MidpointEstimate()
//
// An Estimator is not safe for concurrent use. Track simultaneous conditions
// with one Estimator each.
package mlp

import (
	"slices"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-mlp/psychometric"
)

// TrialRecord is one presented stimulus and the response it received.
type TrialRecord struct {
	Stimulus float64
	Response bool
}

// Estimator runs the maximum likelihood procedure over one block of trials.
type Estimator struct {
	cfg     Config
	grid    *Grid
	rng     Rand
	history []TrialRecord
}

// New validates cfg and builds an estimator with a fresh grid of weight 1.
func New(cfg Config, opts ...Option) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	cfg = cfg.clone()

	grid := NewGrid(cfg.FalseAlarmRates, psychometric.Linspace(cfg.HypMin, cfg.HypMax, cfg.HypN), cfg.Slope)
	grid.tieTolerance = o.tieTolerance
	grid.renormalize = !o.noRenormalize

	return &Estimator{
		cfg:  cfg,
		grid: grid,
		rng:  o.rng,
	}, nil
}

// Config returns a copy of the estimator configuration.
func (e *Estimator) Config() Config {
	return e.cfg.clone()
}

// CalculateTarget returns the tracking probability: the mean of the optimal
// target probabilities of every configured false-alarm rate.
func (e *Estimator) CalculateTarget() float64 {
	var sum float64
	for _, a := range e.cfg.FalseAlarmRates {
		sum += psychometric.OptimalP(a)
	}
	return sum / float64(len(e.cfg.FalseAlarmRates))
}

// SweetPoint returns the stimulus at which the curve of h reaches targetP.
// It fails with ErrInvalidTarget when targetP does not exceed the curve's
// false-alarm rate.
func (e *Estimator) SweetPoint(h Hypothesis, targetP float64) (float64, error) {
	return psychometric.Inverse(targetP, h.FalseAlarmRate, h.Threshold, e.cfg.Slope)
}

// NextStimulus picks one maximum-likelihood curve, breaking ties with the
// random source, and returns its sweet point at the tracking target.
// Calling it does not change the grid.
func (e *Estimator) NextStimulus() (float64, error) {
	h, err := e.grid.SampleMaxLikelihood(e.rng)
	if err != nil {
		return 0, err
	}
	return e.SweetPoint(h, e.CalculateTarget())
}

// Update records the response to stimulus x and reweights the grid.
//
// ErrWeightsUnderflow is a warning: the trial stays in the history, the
// weights keep their previous values, and the estimator remains usable.
// ErrInvalidStimulus leaves both history and weights untouched.
func (e *Estimator) Update(x float64, response bool) error {
	if !isFinite(x) {
		return ErrInvalidStimulus
	}
	e.history = append(e.history, TrialRecord{Stimulus: x, Response: response})
	return e.grid.Update(x, response)
}

// History returns a copy of the recorded trials.
func (e *Estimator) History() []TrialRecord {
	return slices.Clone(e.history)
}

// Hypotheses returns a copy of the current grid.
func (e *Estimator) Hypotheses() []Hypothesis {
	return e.grid.Hypotheses()
}

// MaxLikelihood returns every hypothesis tied for the highest weight.
func (e *Estimator) MaxLikelihood() ([]Hypothesis, error) {
	return e.grid.MaxLikelihood()
}

// MidpointEstimate returns the mean threshold of the maximum-likelihood set.
func (e *Estimator) MidpointEstimate() (float64, error) {
	return e.meanOverMax(func(h Hypothesis) float64 { return h.Threshold })
}

// FalseAlarmEstimate returns the mean false-alarm rate of the
// maximum-likelihood set.
func (e *Estimator) FalseAlarmEstimate() (float64, error) {
	return e.meanOverMax(func(h Hypothesis) float64 { return h.FalseAlarmRate })
}

func (e *Estimator) meanOverMax(field func(Hypothesis) float64) (float64, error) {
	best, err := e.grid.MaxLikelihood()
	if err != nil {
		return 0, err
	}

	vals := make(stats.Float64Data, len(best))
	for i, h := range best {
		vals[i] = field(h)
	}
	return stats.Mean(vals)
}

// ProportionYes returns the fraction of recorded trials answered "yes", or 0
// without history.
func (e *Estimator) ProportionYes() float64 {
	if len(e.history) == 0 {
		return 0
	}

	yes := make(stats.Float64Data, len(e.history))
	for i, r := range e.history {
		if r.Response {
			yes[i] = 1
		}
	}
	p, _ := stats.Mean(yes)
	return p
}

// TrendSentinel is the value RecentStimulusTrend reports before two non-catch
// trials exist: a descent over the whole hypothesis range in one trial.
func (e *Estimator) TrendSentinel() float64 {
	return -(e.cfg.HypMax - e.cfg.HypMin)
}

// RecentStimulusTrend returns the least-squares slope of the last window
// non-catch stimuli against their trial index. Stimuli equal to HypMin are
// treated as catch trials and skipped. With fewer than two points it returns
// TrendSentinel. A slope near zero means the track has settled.
func (e *Estimator) RecentStimulusTrend(window int) float64 {
	if window < 2 {
		return e.TrendSentinel()
	}

	xs := make([]float64, 0, window)
	ys := make([]float64, 0, window)
	for i := len(e.history) - 1; i >= 0 && len(ys) < window; i-- {
		if e.history[i].Stimulus == e.cfg.HypMin {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, e.history[i].Stimulus)
	}
	if len(ys) < 2 {
		return e.TrendSentinel()
	}

	slices.Reverse(xs)
	slices.Reverse(ys)
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}

// WeightMap returns the grid weights as a matrix with one row per false-alarm
// rate and one column per threshold, scaled so the maximum is 1. It is meant
// for heat-map style plotting.
func (e *Estimator) WeightMap() [][]float64 {
	rows := len(e.cfg.FalseAlarmRates)
	cols := e.cfg.HypN
	maxW := e.grid.MaxWeight()

	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, cols)
		for c := range out[r] {
			w := e.grid.weights[r*cols+c]
			if maxW > 0 {
				w /= maxW
			}
			out[r][c] = w
		}
	}
	return out
}
