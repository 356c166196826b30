package mlp

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-mlp/psychometric"
)

// Hypothesis is one candidate psychometric curve and its current likelihood
// weight. Weights are relative: only their ordering matters.
type Hypothesis struct {
	FalseAlarmRate float64
	Threshold      float64
	Weight         float64
}

// Grid holds the hypotheses entertained during one block. Cells are stored
// false-alarm rate major, threshold minor, and never reordered.
//
// Weights live in a flat slice so that a trial update is a single block
// multiply by the observation likelihoods.
type Grid struct {
	slope      float64
	rates      []float64
	thresholds []float64
	weights    []float64

	likelihood []float64
	next       []float64

	tieTolerance float64
	renormalize  bool
}

// NewGrid returns the cross product of rates and thresholds with every weight
// set to 1. Renormalization after updates is enabled.
func NewGrid(rates, thresholds []float64, slope float64) *Grid {
	n := len(rates) * len(thresholds)
	g := &Grid{
		slope:       slope,
		rates:       make([]float64, 0, n),
		thresholds:  make([]float64, 0, n),
		weights:     make([]float64, n),
		likelihood:  make([]float64, n),
		next:        make([]float64, n),
		renormalize: true,
	}

	for _, a := range rates {
		for _, m := range thresholds {
			g.rates = append(g.rates, a)
			g.thresholds = append(g.thresholds, m)
		}
	}
	for i := range g.weights {
		g.weights[i] = 1
	}

	return g
}

// Len returns the number of hypotheses.
func (g *Grid) Len() int {
	return len(g.weights)
}

// At returns hypothesis i.
func (g *Grid) At(i int) Hypothesis {
	return Hypothesis{FalseAlarmRate: g.rates[i], Threshold: g.thresholds[i], Weight: g.weights[i]}
}

// Hypotheses returns a copy of every hypothesis in grid order.
func (g *Grid) Hypotheses() []Hypothesis {
	out := make([]Hypothesis, g.Len())
	for i := range out {
		out[i] = g.At(i)
	}
	return out
}

// Update multiplies each weight by the likelihood of the observed answer to
// stimulus x under that hypothesis: PYes for a "yes", 1-PYes for a "no".
//
// When renormalization is on, the weights are then divided by their maximum.
// If the observation has zero likelihood under every hypothesis the weights
// are left unchanged and ErrWeightsUnderflow is returned.
func (g *Grid) Update(x float64, answer bool) error {
	if !isFinite(x) {
		return ErrInvalidStimulus
	}
	if g.Len() == 0 {
		return nil
	}

	for i := range g.likelihood {
		p := psychometric.PYes(x, g.rates[i], g.thresholds[i], g.slope)
		if !answer {
			p = 1 - p
		}
		g.likelihood[i] = p
	}

	vecmath.MulBlock(g.next, g.weights, g.likelihood)

	maxW := maxOf(g.next)
	if !(maxW > 0) {
		return ErrWeightsUnderflow
	}

	if g.renormalize {
		if scale := 1 / maxW; !math.IsInf(scale, 0) {
			vecmath.ScaleBlock(g.weights, g.next, scale)
		} else {
			// subnormal maximum: the reciprocal overflows
			for i, w := range g.next {
				g.weights[i] = w / maxW
			}
		}
	} else {
		copy(g.weights, g.next)
	}

	return nil
}

// MaxWeight returns the largest weight, or 0 for an empty grid.
func (g *Grid) MaxWeight() float64 {
	return maxOf(g.weights)
}

// MaxLikelihood returns every hypothesis whose weight equals the maximum, in
// grid order. With a tie tolerance configured, weights within that relative
// distance of the maximum also qualify.
func (g *Grid) MaxLikelihood() ([]Hypothesis, error) {
	idx, err := g.maxIndices()
	if err != nil {
		return nil, err
	}

	out := make([]Hypothesis, len(idx))
	for i, j := range idx {
		out[i] = g.At(j)
	}
	return out, nil
}

// SampleMaxLikelihood picks one maximum-likelihood hypothesis uniformly at
// random using rng.
func (g *Grid) SampleMaxLikelihood(rng Rand) (Hypothesis, error) {
	idx, err := g.maxIndices()
	if err != nil {
		return Hypothesis{}, err
	}

	if len(idx) == 1 {
		return g.At(idx[0]), nil
	}
	return g.At(idx[rng.IntN(len(idx))]), nil
}

func (g *Grid) maxIndices() ([]int, error) {
	if g.Len() == 0 {
		return nil, ErrEmptyGrid
	}

	maxW := maxOf(g.weights)
	idx := make([]int, 0, 8)
	for i, w := range g.weights {
		if w == maxW || (g.tieTolerance > 0 && nearlyEqual(w, maxW, g.tieTolerance)) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: maximum weight %g", ErrInvalidWeights, maxW)
	}
	return idx, nil
}

func maxOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// nearlyEqual reports whether a and b agree within the relative tolerance eps.
func nearlyEqual(a, b, eps float64) bool {
	diff := math.Abs(a - b)
	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}
	return diff/largest <= eps
}
