package metrics

import (
	"github.com/san-kum/qevolve/internal/evolve"
	"github.com/san-kum/qevolve/internal/linalg"
)

// Sample is one recorded point of a trajectory. Population is |U₀₀|², the
// probability of staying in the first basis state.
type Sample struct {
	Step       int     `json:"step"`
	Time       float64 `json:"time"`
	Norm2      float64 `json:"norm2"`
	Unitarity  float64 `json:"unitarity"`
	Population float64 `json:"population"`
}

// Trajectory records a Sample every k steps.
type Trajectory[M any] struct {
	b       linalg.Backend[M]
	every   int
	samples []Sample
}

func NewTrajectory[M any](b linalg.Backend[M], every int) *Trajectory[M] {
	if every < 1 {
		every = 1
	}
	return &Trajectory[M]{b: b, every: every}
}

// Start records the initial point as step 0.
func (tr *Trajectory[M]) Start(t0 float64, u0 M) {
	tr.record(0, t0, u0)
}

func (tr *Trajectory[M]) OnStep(i int, t float64, u M) {
	if i%tr.every == 0 {
		tr.record(i, t, u)
	}
}

func (tr *Trajectory[M]) record(i int, t float64, u M) {
	n := evolve.NormOf(tr.b, u)
	u00 := tr.b.ToRows(u)[0][0]
	tr.samples = append(tr.samples, Sample{
		Step:       i,
		Time:       t,
		Norm2:      n * n,
		Unitarity:  UnitarityError(tr.b, u),
		Population: real(u00)*real(u00) + imag(u00)*imag(u00),
	})
}

func (tr *Trajectory[M]) Samples() []Sample { return tr.samples }

func (tr *Trajectory[M]) Reset() { tr.samples = nil }
