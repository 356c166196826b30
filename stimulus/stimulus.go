// Package stimulus synthesizes the five-tone sequences used by the pitch and
// anisochrony tasks. A stimulus level is the deviation of the fourth tone:
// cents of pitch shift, or milliseconds of delay.
//
// All generators return mono float64 samples in [-Amplitude, Amplitude].
package stimulus

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-vecmath"
)

const (
	// PitchFrequency is the standard tone of the pitch task (A4).
	PitchFrequency = 440.0
	// PitchGap separates tones in the pitch task.
	PitchGap = 400 * time.Millisecond

	// AnisochronyFrequency is the tone of the anisochrony task (C6).
	AnisochronyFrequency = 1047.0
	// AnisochronyGap separates tones in the anisochrony task.
	AnisochronyGap = 250 * time.Millisecond

	// SequenceTones is the number of tones in every sequence.
	SequenceTones = 5
	// DeviantIndex is the zero-based position of the deviant tone.
	DeviantIndex = 3
)

// ErrInvalidConfig is returned for unusable synthesis parameters.
var ErrInvalidConfig = errors.New("invalid stimulus configuration")

// Config holds synthesis parameters.
type Config struct {
	SampleRate   float64
	ToneDuration time.Duration
	FadeDuration time.Duration // linear ramp at each end of a tone
	Amplitude    float64
}

// DefaultConfig returns CD-rate 100 ms tones with 25 ms fades.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		ToneDuration: 100 * time.Millisecond,
		FadeDuration: 25 * time.Millisecond,
		Amplitude:    0.9,
	}
}

// Option configures a Synth.
type Option func(*Config)

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(hz float64) Option {
	return func(c *Config) { c.SampleRate = hz }
}

// WithToneDuration sets the length of every tone.
func WithToneDuration(d time.Duration) Option {
	return func(c *Config) { c.ToneDuration = d }
}

// WithFadeDuration sets the fade-in and fade-out length.
func WithFadeDuration(d time.Duration) Option {
	return func(c *Config) { c.FadeDuration = d }
}

// WithAmplitude sets the peak amplitude.
func WithAmplitude(a float64) Option {
	return func(c *Config) { c.Amplitude = a }
}

// Synth renders tones and sequences for one configuration.
type Synth struct {
	cfg      Config
	envelope []float64
}

// New returns a Synth for DefaultConfig modified by opts.
func New(opts ...Option) (*Synth, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !(cfg.SampleRate > 0) || math.IsInf(cfg.SampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %g", ErrInvalidConfig, cfg.SampleRate)
	}
	if cfg.ToneDuration <= 0 {
		return nil, fmt.Errorf("%w: tone duration must be > 0: %s", ErrInvalidConfig, cfg.ToneDuration)
	}
	if cfg.FadeDuration < 0 || 2*cfg.FadeDuration > cfg.ToneDuration {
		return nil, fmt.Errorf("%w: fades of %s do not fit a %s tone", ErrInvalidConfig, cfg.FadeDuration, cfg.ToneDuration)
	}
	if !(cfg.Amplitude >= 0) || math.IsInf(cfg.Amplitude, 0) {
		return nil, fmt.Errorf("%w: amplitude must be >= 0: %g", ErrInvalidConfig, cfg.Amplitude)
	}

	s := &Synth{cfg: cfg}
	n := s.samples(cfg.ToneDuration)
	if n < 1 {
		return nil, fmt.Errorf("%w: tone shorter than one sample", ErrInvalidConfig)
	}
	s.envelope = fadeEnvelope(n, s.samples(cfg.FadeDuration))
	return s, nil
}

// Config returns the synthesis parameters.
func (s *Synth) Config() Config {
	return s.cfg
}

// ToneSamples returns the length of one tone in samples.
func (s *Synth) ToneSamples() int {
	return len(s.envelope)
}

// Tone returns one faded sine tone at freq Hz.
func (s *Synth) Tone(freq float64) ([]float64, error) {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return nil, fmt.Errorf("tone frequency must be > 0: %g", freq)
	}
	if freq >= s.cfg.SampleRate/2 {
		return nil, fmt.Errorf("tone frequency %g Hz at or above Nyquist (%g Hz)", freq, s.cfg.SampleRate/2)
	}

	out := make([]float64, len(s.envelope))
	step := 2 * math.Pi * freq / s.cfg.SampleRate
	for i := range out {
		out[i] = s.cfg.Amplitude * math.Sin(step*float64(i))
	}
	vecmath.MulBlockInPlace(out, s.envelope)
	return out, nil
}

// PitchSequence returns five A4 tones separated by PitchGap with the fourth
// raised by cents. Negative levels are rendered as zero.
func (s *Synth) PitchSequence(cents float64) ([]float64, error) {
	if math.IsNaN(cents) || math.IsInf(cents, 0) {
		return nil, fmt.Errorf("pitch deviation must be finite: %g", cents)
	}
	cents = max(cents, 0)

	standard, err := s.Tone(PitchFrequency)
	if err != nil {
		return nil, err
	}
	deviant, err := s.Tone(PitchFrequency * math.Pow(2, cents/1200))
	if err != nil {
		return nil, fmt.Errorf("pitch deviant at %g cents: %w", cents, err)
	}

	gap := s.samples(PitchGap)
	out := make([]float64, 0, SequenceTones*len(standard)+(SequenceTones-1)*gap)
	for i := range SequenceTones {
		if i > 0 {
			out = appendSilence(out, gap)
		}
		if i == DeviantIndex {
			out = append(out, deviant...)
		} else {
			out = append(out, standard...)
		}
	}
	return out, nil
}

// AnisochronySequence returns five C6 tones separated by AnisochronyGap with
// the fourth delayed by ms milliseconds. The fifth tone keeps its isochronous
// onset, so the sequence length does not depend on the level. The delay is
// clamped to [0, AnisochronyGap].
func (s *Synth) AnisochronySequence(ms float64) ([]float64, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return nil, fmt.Errorf("anisochrony delay must be finite: %g", ms)
	}

	tone, err := s.Tone(AnisochronyFrequency)
	if err != nil {
		return nil, err
	}

	gap := s.samples(AnisochronyGap)
	shift := s.DelaySamples(ms)

	out := make([]float64, 0, SequenceTones*len(tone)+(SequenceTones-1)*gap)
	for i := range SequenceTones {
		switch i {
		case 0:
		case DeviantIndex:
			out = appendSilence(out, gap+shift)
		case DeviantIndex + 1:
			out = appendSilence(out, gap-shift)
		default:
			out = appendSilence(out, gap)
		}
		out = append(out, tone...)
	}
	return out, nil
}

// DelaySamples returns the anisochrony delay for ms milliseconds in samples,
// clamped to [0, AnisochronyGap].
func (s *Synth) DelaySamples(ms float64) int {
	gap := s.samples(AnisochronyGap)
	d := s.cfg.SampleRate * ms / 1000
	switch {
	case !(d > 0):
		return 0
	case d >= float64(gap):
		return gap
	}
	return int(d)
}

// Onset returns the sample index where tone i starts in a sequence with the
// given gap, before any delay is applied.
func (s *Synth) Onset(i int, gap time.Duration) int {
	return i * (len(s.envelope) + s.samples(gap))
}

func (s *Synth) samples(d time.Duration) int {
	return int(d.Seconds() * s.cfg.SampleRate)
}

func fadeEnvelope(n, fade int) []float64 {
	env := make([]float64, n)
	for i := range env {
		env[i] = 1
	}
	for i := 0; i < fade; i++ {
		g := float64(i) / float64(fade)
		env[i] = g
		env[n-1-i] = g
	}
	return env
}

func appendSilence(dst []float64, n int) []float64 {
	return append(dst, make([]float64, n)...)
}
