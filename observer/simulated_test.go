package observer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedFollowsCurve(t *testing.T) {
	tests := []struct {
		name string
		x    float64
	}{
		{name: "far below", x: -100},
		{name: "midpoint", x: 50},
		{name: "above", x: 70},
		{name: "far above", x: 500},
	}

	const n = 4000
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSimulated(0.1, 50, 0.1, 3)
			yes := 0
			for i := 0; i < n; i++ {
				resp, err := s.Present(context.Background(), tt.x)
				require.NoError(t, err)
				assert.Equal(t, 1, resp.Presentations)
				if resp.Detected {
					yes++
				}
			}

			assert.InDelta(t, s.P(tt.x), float64(yes)/n, 0.03)
			assert.Equal(t, n, s.Presented())
		})
	}
}

func TestSimulatedIsReproducible(t *testing.T) {
	a := NewSimulated(0.2, 10, 0.5, 99)
	b := NewSimulated(0.2, 10, 0.5, 99)

	for x := 0.0; x < 20; x += 0.25 {
		ra, err := a.Present(context.Background(), x)
		require.NoError(t, err)
		rb, err := b.Present(context.Background(), x)
		require.NoError(t, err)
		require.Equal(t, ra, rb, "x=%g", x)
	}
}

func TestSimulatedCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSimulated(0, 0, 1, 1)
	_, err := s.Present(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Presented())
}
