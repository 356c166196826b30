// Package testutil holds assertion helpers shared by the package tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	require.Len(t, got, len(want), "length mismatch")
	for i := range got {
		require.InDelta(t, want[i], got[i], eps, "index %d", i)
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireProbabilities fails t unless every element lies in [0, 1].
func RequireProbabilities(t testing.TB, data []float64) {
	t.Helper()
	RequireFinite(t, data)
	for i, v := range data {
		if v < 0 || v > 1 {
			t.Fatalf("index %d: %v is not a probability", i, v)
		}
	}
}

// MaxAbs returns the largest absolute value in data, or 0 when empty.
func MaxAbs(data []float64) float64 {
	m := 0.0
	for _, v := range data {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
