// Package metrics holds step observers that summarize a trajectory.
package metrics

import (
	"github.com/san-kum/qevolve/internal/evolve"
)

// Metric is an observer that reduces a trajectory to one number.
type Metric[M any] interface {
	evolve.Observer[M]
	Name() string
	Value() float64
	Reset()
}

// Values collects the current value of every metric by name.
func Values[M any](ms ...Metric[M]) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
