package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum returns the one-sided amplitude spectrum of samples taken every dt.
// The mean is removed first so bin 0 carries no offset.
func Spectrum(samples []float64, dt float64) (freqs, amps []float64) {
	n := len(samples)
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(n)
	centered := make([]float64, n)
	for i, v := range samples {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centered)
	freqs = make([]float64, len(coeffs))
	amps = make([]float64, len(coeffs))
	for i, c := range coeffs {
		freqs[i] = fft.Freq(i) / dt
		amps[i] = cmplx.Abs(c) / float64(n)
	}
	return freqs, amps
}

// DominantFrequency returns the frequency of the largest non-zero bin, in
// cycles per unit time. It is 0 for a flat series.
func DominantFrequency(samples []float64, dt float64) float64 {
	freqs, amps := Spectrum(samples, dt)
	best, at := 0.0, 0.0
	for i := 1; i < len(amps); i++ {
		if amps[i] > best {
			best, at = amps[i], freqs[i]
		}
	}
	return at
}

// Periodogram returns the Hann-windowed one-sided power spectrum. The window
// trades bin resolution for less leakage when the record does not hold a
// whole number of periods.
func Periodogram(samples []float64, dt float64) (freqs, power []float64) {
	n := len(samples)
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	x := make([]float64, n)
	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(n)
	for i, v := range samples {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	half := n/2 + 1
	freqs = make([]float64, half)
	power = make([]float64, half)
	for i := 0; i < half; i++ {
		freqs[i] = float64(i) / (float64(n) * dt)
		a := cmplx.Abs(coeffs[i])
		power[i] = a * a / float64(n)
	}
	return freqs, power
}
