package mlp

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyGrid(t *testing.T) {
	g := NewGrid(nil, []float64{0, 1, 2}, 1)
	require.Zero(t, g.Len())

	_, err := g.MaxLikelihood()
	assert.ErrorIs(t, err, ErrEmptyGrid)

	_, err = g.SampleMaxLikelihood(rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, ErrEmptyGrid)

	assert.NoError(t, g.Update(1, true))
	assert.Zero(t, g.MaxWeight())
}

func TestGridOrderIsRateMajor(t *testing.T) {
	g := NewGrid([]float64{0, 0.2}, []float64{10, 20, 30}, 0.5)
	require.Equal(t, 6, g.Len())

	want := []Hypothesis{
		{0, 10, 1}, {0, 20, 1}, {0, 30, 1},
		{0.2, 10, 1}, {0.2, 20, 1}, {0.2, 30, 1},
	}
	assert.Equal(t, want, g.Hypotheses())
	assert.Equal(t, want[4], g.At(4))
}

func TestSampleMaxLikelihoodCoversTies(t *testing.T) {
	g := NewGrid([]float64{0, 0.1}, []float64{1, 2, 3, 4}, 1)
	rng := rand.New(rand.NewPCG(11, 12))

	seen := make(map[Hypothesis]int)
	for i := 0; i < 800; i++ {
		h, err := g.SampleMaxLikelihood(rng)
		require.NoError(t, err)
		seen[h]++
	}

	require.Len(t, seen, 8)
	for h, n := range seen {
		assert.Greater(t, n, 50, "hypothesis %+v sampled %d times", h, n)
	}
}

func TestSampleMaxLikelihoodSingleWinner(t *testing.T) {
	g := NewGrid([]float64{0}, []float64{0, 50, 100}, 0.1)
	require.NoError(t, g.Update(100, false))
	require.NoError(t, g.Update(0, true))

	best, err := g.MaxLikelihood()
	require.NoError(t, err)
	require.Len(t, best, 1)

	h, err := g.SampleMaxLikelihood(panicRand{})
	require.NoError(t, err)
	assert.Equal(t, best[0], h)
}

// panicRand fails the test if a tie-break draw is requested.
type panicRand struct{}

func (panicRand) IntN(int) int { panic("unexpected tie-break draw") }

func TestMaxLikelihoodRejectsNaNWeights(t *testing.T) {
	g := NewGrid([]float64{0}, []float64{0, 1}, 1)
	g.weights[0] = math.NaN()

	_, err := g.MaxLikelihood()
	require.ErrorIs(t, err, ErrInvalidWeights)

	_, err = g.SampleMaxLikelihood(panicRand{})
	require.ErrorIs(t, err, ErrInvalidWeights)
}

func TestNearlyEqual(t *testing.T) {
	assert.True(t, nearlyEqual(1, 1, 0))
	assert.True(t, nearlyEqual(1, 0.99, 0.02))
	assert.False(t, nearlyEqual(1, 0.9, 0.02))
	assert.True(t, nearlyEqual(0, 0, 0.1))

	// purely relative: tiny weights do not tie just by being close to zero
	assert.False(t, nearlyEqual(1e-300, 0, 0.1))
	assert.False(t, nearlyEqual(1e-300, 5e-301, 0.1))
}
