package viz

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/qevolve/internal/metrics"
)

var (
	ErrNoSamples     = errors.New("viz: no samples to plot")
	ErrUnknownSeries = errors.New("viz: unknown series")
)

// Series names the sampled quantities that can be plotted.
var Series = []string{"norm2", "unitarity", "population"}

// Extract returns the named quantity of every sample and the sample times.
func Extract(samples []metrics.Sample, series string) (ys, ts []float64, err error) {
	pick, ok := map[string]func(metrics.Sample) float64{
		"norm2":      func(s metrics.Sample) float64 { return s.Norm2 },
		"unitarity":  func(s metrics.Sample) float64 { return s.Unitarity },
		"population": func(s metrics.Sample) float64 { return s.Population },
	}[series]
	if !ok {
		return nil, nil, fmt.Errorf("%q: %w", series, ErrUnknownSeries)
	}
	if len(samples) == 0 {
		return nil, nil, ErrNoSamples
	}

	ys = make([]float64, len(samples))
	ts = make([]float64, len(samples))
	for i, s := range samples {
		ys[i] = pick(s)
		ts[i] = s.Time
	}
	return ys, ts, nil
}

// Terminal draws one series as an asciigraph chart.
func Terminal(samples []metrics.Sample, series string, width, height int) (string, error) {
	ys, ts, err := Extract(samples, series)
	if err != nil {
		return "", err
	}
	caption := fmt.Sprintf("%s, t = %.3g … %.3g", series, ts[0], ts[len(ts)-1])
	return asciigraph.Plot(ys,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}
