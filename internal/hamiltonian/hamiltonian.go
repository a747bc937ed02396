package hamiltonian

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/qevolve/internal/evolve"
	"github.com/san-kum/qevolve/internal/linalg"
)

var (
	ErrUnknownPreset = errors.New("hamiltonian: unknown preset")
	ErrInvalidParam  = errors.New("hamiltonian: invalid parameter")
	ErrTimeDependent = errors.New("hamiltonian: generator depends on time")
)

// MaxSpins bounds the ising chain; the matrix dimension is 2^spins.
const MaxSpins = 8

// Term is one summand c(t)·A. A nil Coef means c(t) = 1.
type Term struct {
	Rows [][]complex128
	Coef func(t float64) float64
}

type Generator struct {
	Name  string
	Dim   int
	Terms []Term
}

// Constant reports whether no term has a time-dependent coefficient.
func (g *Generator) Constant() bool {
	for _, term := range g.Terms {
		if term.Coef != nil {
			return false
		}
	}
	return true
}

// At returns H(t) as dense rows.
func (g *Generator) At(t float64) [][]complex128 {
	out := zeros(g.Dim)
	for _, term := range g.Terms {
		c := 1.0
		if term.Coef != nil {
			c = term.Coef(t)
		}
		for i, row := range term.Rows {
			for j, v := range row {
				out[i][j] += complex(c, 0) * v
			}
		}
	}
	return out
}

// Build converts g to a Hamiltonian over backend b.
func Build[M any](b linalg.Backend[M], g *Generator) (evolve.Hamiltonian[M], error) {
	if g.Constant() {
		h, err := b.FromRows(g.At(0))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.Name, err)
		}
		return evolve.Constant(h), nil
	}

	mats := make([]M, len(g.Terms))
	for i, term := range g.Terms {
		m, err := b.FromRows(term.Rows)
		if err != nil {
			return nil, fmt.Errorf("%s term %d: %w", g.Name, i, err)
		}
		mats[i] = m
	}
	coefs := make([]func(float64) float64, len(g.Terms))
	for i, term := range g.Terms {
		coefs[i] = term.Coef
	}

	return func(t float64) M {
		h := b.Scale(complex(coefAt(coefs[0], t), 0), mats[0])
		for i := 1; i < len(mats); i++ {
			h = b.AddScaled(h, complex(coefAt(coefs[i], t), 0), mats[i])
		}
		return h
	}, nil
}

func coefAt(c func(float64) float64, t float64) float64 {
	if c == nil {
		return 1
	}
	return c(t)
}

type factory func(p params) (*Generator, error)

var presets = map[string]factory{
	"pauli-x": pauli("pauli-x", sigmaX),
	"pauli-y": pauli("pauli-y", sigmaY),
	"pauli-z": pauli("pauli-z", sigmaZ),
	"rabi":    rabi,
	"ising":   ising,
	"random":  random,
}

// Lookup builds the named preset. Missing params take their defaults.
func Lookup(name string, p map[string]float64) (*Generator, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownPreset)
	}
	return fn(params(p))
}

func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type params map[string]float64

func (p params) get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

var (
	sigmaX = [][]complex128{{0, 1}, {1, 0}}
	sigmaY = [][]complex128{{0, -1i}, {1i, 0}}
	sigmaZ = [][]complex128{{1, 0}, {0, -1}}
)

// pauli presets are ω·σ, with ω from "omega" (default 1).
func pauli(name string, sigma [][]complex128) factory {
	return func(p params) (*Generator, error) {
		return &Generator{
			Name:  name,
			Dim:   2,
			Terms: []Term{{Rows: scaled(p.get("omega", 1), sigma)}},
		}, nil
	}
}

// rabi is a driven two-level system ω/2·σz + Ω cos(ωd t)·σx.
func rabi(p params) (*Generator, error) {
	omega := p.get("omega", 1)
	rabiFreq := p.get("rabi", 0.2)
	drive := p.get("drive", omega)
	return &Generator{
		Name: "rabi",
		Dim:  2,
		Terms: []Term{
			{Rows: scaled(omega/2, sigmaZ)},
			{Rows: scaled(rabiFreq, sigmaX), Coef: func(t float64) float64 { return math.Cos(drive * t) }},
		},
	}, nil
}

// ising is the open transverse-field chain -J Σ σz_i σz_{i+1} - g Σ σx_i.
func ising(p params) (*Generator, error) {
	spins := int(p.get("spins", 2))
	if spins < 1 || spins > MaxSpins {
		return nil, fmt.Errorf("ising spins %d not in [1, %d]: %w", spins, MaxSpins, ErrInvalidParam)
	}
	j, g := p.get("J", 1), p.get("g", 0.5)
	dim := 1 << spins
	rows := zeros(dim)
	for s := 0; s < dim; s++ {
		for i := 0; i+1 < spins; i++ {
			rows[s][s] += complex(-j*spin(s, i)*spin(s, i+1), 0)
		}
		for i := 0; i < spins; i++ {
			rows[s^(1<<i)][s] += complex(-g, 0)
		}
	}
	return &Generator{Name: "ising", Dim: dim, Terms: []Term{{Rows: rows}}}, nil
}

func spin(state, i int) float64 {
	if state&(1<<i) == 0 {
		return 1
	}
	return -1
}

// random is a seeded Hermitian (A + Aᴴ)/2 with Gaussian entries.
func random(p params) (*Generator, error) {
	d := int(p.get("dim", 2))
	if d < 1 {
		return nil, fmt.Errorf("random dim %d: %w", d, ErrInvalidParam)
	}
	rng := rand.New(rand.NewSource(int64(p.get("seed", 1))))
	a := zeros(d)
	for i := range a {
		for k := range a[i] {
			a[i][k] = complex(rng.NormFloat64(), rng.NormFloat64())
		}
	}
	rows := zeros(d)
	for i := 0; i < d; i++ {
		for k := 0; k < d; k++ {
			v := a[i][k] + complex(real(a[k][i]), -imag(a[k][i]))
			rows[i][k] = v / 2
		}
	}
	return &Generator{Name: "random", Dim: d, Terms: []Term{{Rows: rows}}}, nil
}

func zeros(d int) [][]complex128 {
	rows := make([][]complex128, d)
	for i := range rows {
		rows[i] = make([]complex128, d)
	}
	return rows
}

func scaled(c float64, m [][]complex128) [][]complex128 {
	out := zeros(len(m))
	for i, row := range m {
		for j, v := range row {
			out[i][j] = complex(c, 0) * v
		}
	}
	return out
}
