package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/qevolve/internal/evolve"
	"github.com/san-kum/qevolve/internal/linalg"
)

var (
	ErrUnknownMethod  = errors.New("experiment: unknown method")
	ErrUnknownBackend = errors.New("experiment: unknown backend")
)

// Method describes one integrator for listings.
type Method struct {
	Name        string
	Order       int
	Description string
}

type Registry struct {
	methods  map[string]Method
	backends map[string]string
}

func NewRegistry() *Registry {
	r := &Registry{
		methods:  make(map[string]Method),
		backends: make(map[string]string),
	}

	r.methods["rk2"] = Method{"rk2", 2, "explicit midpoint"}
	r.methods["rk4"] = Method{"rk4", 4, "classical Runge-Kutta"}
	r.methods["rkn2"] = Method{"rkn2", 2, "midpoint with renormalized stages"}
	r.methods["rkn4"] = Method{"rkn4", 4, "four-stage with renormalized stages"}
	r.methods["srk2"] = Method{"srk2", 2, "symplectic Runge-Kutta, implicit stages"}
	r.methods["sv2"] = Method{"sv2", 2, "Störmer-Verlet on the split real/imaginary state"}

	r.backends["cdense"] = "native complex128 dense matrices"
	r.backends["split"] = "real and imaginary parts as float64 dense pairs"

	return r
}

func (r *Registry) Method(name string) (Method, error) {
	m, ok := r.methods[name]
	if !ok {
		return Method{}, fmt.Errorf("%q: %w", name, ErrUnknownMethod)
	}
	return m, nil
}

func (r *Registry) Backend(name string) (string, error) {
	d, ok := r.backends[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownBackend)
	}
	return d, nil
}

func (r *Registry) ListMethods() []string {
	return sortedKeys(r.methods)
}

func (r *Registry) ListBackends() []string {
	return sortedKeys(r.backends)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewIntegrator builds the named method over b.
func NewIntegrator[M any](name string, b linalg.Backend[M]) (evolve.Integrator[M], error) {
	switch name {
	case "rk2":
		return evolve.NewRK2(b, nil), nil
	case "rk4":
		return evolve.NewRK4(b, nil), nil
	case "rkn2":
		return evolve.NewRKN2(b, nil), nil
	case "rkn4":
		return evolve.NewRKN4(b, nil), nil
	case "srk2":
		return evolve.NewSRK2(b), nil
	case "sv2":
		return evolve.NewSV2(b), nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownMethod)
}
