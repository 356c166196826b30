package stimulus

import "math"

// Level holds the amplitude statistics of a rendered stimulus.
type Level struct {
	Peak   float64 // max |x|
	PeakDB float64 // dBFS, -Inf for silence
	RMS    float64
	RMSDB  float64
}

// MeasureLevel returns the peak and RMS level of x.
func MeasureLevel(x []float64) Level {
	var peak, sumSq float64
	for _, v := range x {
		peak = max(peak, math.Abs(v))
		sumSq += v * v
	}

	var rms float64
	if len(x) > 0 {
		rms = math.Sqrt(sumSq / float64(len(x)))
	}

	return Level{
		Peak:   peak,
		PeakDB: ampToDB(peak),
		RMS:    rms,
		RMSDB:  ampToDB(rms),
	}
}

// ampToDB converts an amplitude to decibels, -Inf for zero.
func ampToDB(v float64) float64 {
	if v == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(math.Abs(v))
}
