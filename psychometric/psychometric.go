// Package psychometric implements the logistic psychometric function with a
// false-alarm floor used by the maximum likelihood procedure, together with
// its inverse and the bias-corrected tracking target of Green (1993).
//
// The curve is
//
//	PYes(x) = a + (1-a) / (1 + exp(-k*(x-m)))
//
// where x is the stimulus intensity, a the false-alarm rate, m the threshold
// (curve midpoint) and k the slope.
package psychometric

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTarget is returned when a target probability cannot be reached by
// a curve, i.e. when it does not lie strictly between the false-alarm floor
// and 1.
var ErrInvalidTarget = errors.New("target probability outside curve range")

// PYes returns the probability of a "yes" response to stimulus x for the
// curve with false-alarm rate a, threshold m and slope k.
func PYes(x, a, m, k float64) float64 {
	return a + (1-a)/(1+math.Exp(-k*(x-m)))
}

// OptimalP returns the target probability on a curve with false-alarm rate a
// at which threshold tracking is unbiased by guessing (Green 1993, eq. 6).
// For a in [0,1) the result lies in (0.5, 1).
func OptimalP(a float64) float64 {
	r := math.Sqrt(1 + 8*a)
	return (2*a + 1 + r) / (3 + r)
}

// Inverse returns the stimulus intensity at which the curve (a, m, k) reaches
// probability p. This is the "sweet point" of the curve for target p.
//
// p must satisfy a < p < 1; otherwise no finite stimulus exists and an error
// wrapping ErrInvalidTarget is returned.
func Inverse(p, a, m, k float64) (float64, error) {
	if !(p > a) {
		return 0, fmt.Errorf("%w: p=%g <= a=%g", ErrInvalidTarget, p, a)
	}

	y := (1-a)/(p-a) - 1
	if !(y > 0) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: p=%g a=%g gives log argument %g", ErrInvalidTarget, p, a, y)
	}

	x := math.Log(y)/(-k) + m
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: p=%g a=%g k=%g", ErrInvalidTarget, p, a, k)
	}

	return x, nil
}

// Curve samples PYes at each abscissa in xs and returns the values.
func Curve(xs []float64, a, m, k float64) []float64 {
	if len(xs) == 0 {
		return nil
	}

	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = PYes(x, a, m, k)
	}

	return out
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
// For n == 1 it returns []float64{lo}; for n <= 0 it returns nil.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}

	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	// Pin the last point so rounding never moves it off hi.
	out[n-1] = hi

	return out
}
