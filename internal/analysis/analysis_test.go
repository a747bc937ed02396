package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/qevolve/internal/evolve"
	"github.com/san-kum/qevolve/internal/linalg"
)

func TestConvergenceOrder(t *testing.T) {
	errs := []float64{1e-2, 2.5e-3, 6.25e-4}
	orders := ConvergenceOrder(errs)
	require.Len(t, orders, 2)
	assert.InDelta(t, 2, orders[0], 1e-12)
	assert.InDelta(t, 2, orders[1], 1e-12)
	assert.InDelta(t, 2, MeanOrder(orders), 1e-12)
}

func TestConvergenceOrderDegenerate(t *testing.T) {
	assert.Nil(t, ConvergenceOrder([]float64{1}))

	orders := ConvergenceOrder([]float64{1, 0, math.Inf(1)})
	require.Len(t, orders, 2)
	assert.True(t, math.IsNaN(orders[0]))
	assert.True(t, math.IsNaN(orders[1]))
	assert.True(t, math.IsNaN(MeanOrder(orders)))
}

func TestRichardson(t *testing.T) {
	b := linalg.NewCDense()
	h, err := b.FromRows([][]complex128{{0, 1}, {1, 0}})
	require.NoError(t, err)

	u1, err := evolve.NewRK4(b, nil).Step(0, 1, b.Identity(2), 0.1, evolve.Constant(h))
	require.NoError(t, err)
	u2, err := evolve.NewRK4(b, nil).Step(0, 1, b.Identity(2), 0.05, evolve.Constant(h))
	require.NoError(t, err)
	u3, err := evolve.NewRK4(b, nil).Step(0, 1, b.Identity(2), 0.025, evolve.Constant(h))
	require.NoError(t, err)

	assert.InDelta(t, 4, Richardson(b, u1, u2, u3), 0.3)
	assert.True(t, math.IsNaN(Richardson(b, u1, u1, u1)))
}

func TestDominantFrequency(t *testing.T) {
	const (
		n  = 256
		dt = 0.05
	)
	f := 8 / (n * dt)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 3 + math.Cos(2*math.Pi*f*float64(i)*dt)
	}

	assert.InDelta(t, f, DominantFrequency(samples, dt), 1e-9)

	freqs, amps := Spectrum(samples, dt)
	require.Len(t, freqs, n/2+1)
	assert.InDelta(t, 0, amps[0], 1e-12)
	assert.InDelta(t, 0.5, amps[8], 1e-12)
}

func TestDominantFrequencyFlat(t *testing.T) {
	samples := []float64{1, 1, 1, 1}
	assert.Equal(t, 0.0, DominantFrequency(samples, 0.1))

	freqs, amps := Spectrum(samples[:1], 0.1)
	assert.Nil(t, freqs)
	assert.Nil(t, amps)
}

func TestPeriodogramPeak(t *testing.T) {
	const n, dt = 64, 0.25
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 3 + math.Sin(2*math.Pi*2*float64(i)/n)
	}

	freqs, power := Periodogram(samples, dt)
	require.Len(t, freqs, n/2+1)
	require.Len(t, power, n/2+1)

	peak := 0
	for i := range power {
		if power[i] > power[peak] {
			peak = i
		}
	}
	assert.Equal(t, 2, peak)
	assert.InDelta(t, 0.125, freqs[peak], 1e-12)
	assert.Less(t, power[10], 1e-3*power[peak])

	f, p := Periodogram(samples[:1], dt)
	assert.Nil(t, f)
	assert.Nil(t, p)
}
