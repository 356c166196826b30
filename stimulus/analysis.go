package stimulus

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

var errShortSignal = errors.New("signal needs at least two samples")

// DominantFrequency estimates the strongest frequency in x. The signal is
// Hann-windowed and zero-padded to a power of two; the peak bin is refined by
// parabolic interpolation. DC and Nyquist bins are ignored.
func DominantFrequency(x []float64, sampleRate float64) (float64, error) {
	if len(x) < 2 {
		return 0, errShortSignal
	}
	if !(sampleRate > 0) {
		return 0, fmt.Errorf("sample rate must be > 0: %g", sampleRate)
	}

	fftSize := max(nextPowerOfTwo(len(x)), 4)

	windowed := make([]float64, len(x))
	vecmath.MulBlock(windowed, x, hann(len(x)))

	in := make([]complex128, fftSize)
	for i, v := range windowed {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return 0, fmt.Errorf("fft plan of size %d: %w", fftSize, err)
	}
	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return 0, fmt.Errorf("forward fft: %w", err)
	}

	half := fftSize/2 + 1
	re := make([]float64, half)
	im := make([]float64, half)
	for i := range half {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}
	mag := make([]float64, half)
	vecmath.Magnitude(mag, re, im)

	peak := 1
	for k := 2; k < half-1; k++ {
		if mag[k] > mag[peak] {
			peak = k
		}
	}
	if mag[peak] == 0 {
		return 0, fmt.Errorf("no spectral peak in %d samples", len(x))
	}

	bin := float64(peak) + parabolicOffset(mag[peak-1], mag[peak], mag[peak+1])
	return bin * sampleRate / float64(fftSize), nil
}

// parabolicOffset returns the vertex offset of the parabola through three
// equally spaced points, in bins relative to the middle one.
func parabolicOffset(left, mid, right float64) float64 {
	den := left - 2*mid + right
	if den == 0 {
		return 0
	}
	return 0.5 * (left - right) / den
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
