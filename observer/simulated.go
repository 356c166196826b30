// Package observer provides synthetic listeners whose responses follow a
// known psychometric curve. They stand in for a participant when checking
// that a block converges or when sizing a protocol.
package observer

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-mlp/psychometric"
	"github.com/cwbudde/algo-mlp/trial"
)

// Simulated answers "yes" with probability PYes(x, FalseAlarmRate, Midpoint,
// Slope). Draws are reproducible for a given seed.
type Simulated struct {
	FalseAlarmRate float64
	Midpoint       float64
	Slope          float64

	src       rand.Source
	presented int
}

// NewSimulated returns a listener with the given curve parameters.
func NewSimulated(falseAlarmRate, midpoint, slope float64, seed uint64) *Simulated {
	return &Simulated{
		FalseAlarmRate: falseAlarmRate,
		Midpoint:       midpoint,
		Slope:          slope,
		src:            rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
}

// Present draws one response for stimulus x.
func (s *Simulated) Present(ctx context.Context, x float64) (trial.Response, error) {
	if err := ctx.Err(); err != nil {
		return trial.Response{}, err
	}

	s.presented++
	d := distuv.Bernoulli{P: s.P(x), Src: s.src}
	return trial.Response{Detected: d.Rand() == 1, Presentations: 1}, nil
}

// P returns the probability of a "yes" at x.
func (s *Simulated) P(x float64) float64 {
	return psychometric.PYes(x, s.FalseAlarmRate, s.Midpoint, s.Slope)
}

// Presented reports how many stimuli have been answered.
func (s *Simulated) Presented() int {
	return s.presented
}
