package mlp

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-mlp/psychometric"
)

var (
	// ErrConfiguration is wrapped by every construction-time validation failure.
	ErrConfiguration = errors.New("invalid estimator configuration")

	// ErrEmptyGrid is returned by maximum-likelihood queries on a grid without
	// hypotheses. New never builds such a grid.
	ErrEmptyGrid = errors.New("hypothesis grid is empty")

	// ErrInvalidTarget is returned when the tracking target is not reachable on
	// the selected curve. It is the same value as psychometric.ErrInvalidTarget.
	ErrInvalidTarget = psychometric.ErrInvalidTarget

	// ErrWeightsUnderflow reports an observation that every hypothesis
	// considers impossible. The update is recorded in the history but the
	// weights keep their previous values. It is a warning, not a failure.
	ErrWeightsUnderflow = errors.New("observation likelihood underflowed for every hypothesis")

	// ErrInvalidWeights reports a grid with no finite maximum weight.
	ErrInvalidWeights = errors.New("hypothesis weights are not finite")

	// ErrInvalidStimulus is returned for NaN or infinite stimulus values.
	ErrInvalidStimulus = errors.New("stimulus must be finite")
)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
