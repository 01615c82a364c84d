package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrInsufficientData = errors.New("analysis: insufficient data")

// PowerSpectrum returns the magnitude of the first half of the discrete
// Fourier transform of data. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	spectrum := fft.FFTReal(data)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantPeriod finds the strongest non-constant frequency of a series
// sampled every interval seconds and returns its period. The mean is
// removed first so the DC bin never wins.
func DominantPeriod(data []float64, interval float64) (float64, error) {
	if len(data) < 4 || interval <= 0 {
		return 0, ErrInsufficientData
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}

	ps := PowerSpectrum(centred)
	peak := 0
	for k := 1; k < len(ps); k++ {
		if peak == 0 || ps[k] > ps[peak] {
			peak = k
		}
	}
	if peak == 0 || ps[peak] == 0 {
		return 0, ErrInsufficientData
	}
	return float64(len(data)) * interval / float64(peak), nil
}
