package mlp

import (
	"math/rand/v2"
	"slices"
)

// Config holds the immutable parameters of one estimator instance.
type Config struct {
	// Slope is the psychometric curve slope k shared by every hypothesis.
	// Its sign sets whether "yes" becomes more likely with intensity.
	Slope float64

	// HypMin and HypMax bound the hypothesised thresholds. HypMin is also the
	// catch-trial stimulus level.
	HypMin float64
	HypMax float64

	// HypN is the number of thresholds spaced linearly over [HypMin, HypMax].
	HypN int

	// FalseAlarmRates are crossed with the thresholds to form the grid.
	FalseAlarmRates []float64
}

// DefaultConfig returns the parameters used by the anisochrony and pitch
// experiments: slope 0.1, 200 thresholds from 0 to 200, false-alarm rates
// 0 to 0.4 in steps of 0.1.
func DefaultConfig() Config {
	return Config{
		Slope:           0.1,
		HypMin:          0,
		HypMax:          200,
		HypN:            200,
		FalseAlarmRates: []float64{0, 0.1, 0.2, 0.3, 0.4},
	}
}

// Validate reports the first problem that prevents building an estimator.
// Every returned error wraps ErrConfiguration.
func (c Config) Validate() error {
	if c.Slope == 0 || !isFinite(c.Slope) {
		return configErrorf("slope must be finite and non-zero: %g", c.Slope)
	}
	if !isFinite(c.HypMin) || !isFinite(c.HypMax) {
		return configErrorf("hypothesis bounds must be finite: [%g, %g]", c.HypMin, c.HypMax)
	}
	if c.HypMax < c.HypMin {
		return configErrorf("hypothesis max %g below min %g", c.HypMax, c.HypMin)
	}
	if c.HypN < 1 {
		return configErrorf("hypothesis count must be >= 1: %d", c.HypN)
	}
	if len(c.FalseAlarmRates) == 0 {
		return configErrorf("false alarm rates must not be empty")
	}
	for i, a := range c.FalseAlarmRates {
		if !(a >= 0 && a < 1) {
			return configErrorf("false alarm rate %d must be in [0,1): %g", i, a)
		}
	}
	return nil
}

func (c Config) clone() Config {
	c.FalseAlarmRates = slices.Clone(c.FalseAlarmRates)
	return c
}

// Rand is the random source used to break ties between equally likely
// hypotheses. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Option configures optional estimator behaviour.
type Option func(*options)

type options struct {
	rng           Rand
	tieTolerance  float64
	noRenormalize bool
}

func defaultOptions() options {
	return options{
		rng: rand.New(rand.NewPCG(1, 1)),
	}
}

// WithRand sets the tie-break random source.
func WithRand(r Rand) Option {
	return func(o *options) {
		if r != nil {
			o.rng = r
		}
	}
}

// WithSeed seeds a PCG tie-break source. Estimators built with the same seed,
// configuration and update sequence propose the same stimuli.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithTieTolerance makes maximum-likelihood queries accept every hypothesis
// whose weight is within the relative tolerance tol of the maximum. The
// default of 0 keeps exact equality; a positive tolerance grows the tie set
// in long runs and changes which stimuli are proposed.
func WithTieTolerance(tol float64) Option {
	return func(o *options) {
		if tol >= 0 && isFinite(tol) {
			o.tieTolerance = tol
		}
	}
}

// WithoutRenormalization disables rescaling the weights by their maximum after
// each update, leaving the raw product of likelihoods. Long runs may then
// underflow every weight to zero.
func WithoutRenormalization() Option {
	return func(o *options) {
		o.noRenormalize = true
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
