package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMethod      = "srk2"
	DefaultBackend     = "cdense"
	DefaultHamiltonian = "pauli-x"
	DefaultStep        = 0.01
	DefaultDuration    = 10.0
	DefaultSampleEvery = 10
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Method      string             `yaml:"method"`
	Backend     string             `yaml:"backend"`
	Hamiltonian string             `yaml:"hamiltonian"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	T0          float64            `yaml:"t0"`
	Tf          float64            `yaml:"tf"`
	H           float64            `yaml:"h"`
	Seed        int64              `yaml:"seed"`
	SampleEvery int                `yaml:"sample_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Method:      DefaultMethod,
		Backend:     DefaultBackend,
		Hamiltonian: DefaultHamiltonian,
		Tf:          DefaultDuration,
		H:           DefaultStep,
		SampleEvery: DefaultSampleEvery,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the numeric fields. Names are resolved later by the
// experiment registry.
func (c *Config) Validate() error {
	switch {
	case c.Method == "" || c.Backend == "" || c.Hamiltonian == "":
		return fmt.Errorf("%w: method, backend and hamiltonian are required", ErrInvalidConfig)
	case !finite(c.T0) || !finite(c.Tf) || !finite(c.H):
		return fmt.Errorf("%w: non-finite time or step", ErrInvalidConfig)
	case c.H <= 0:
		return fmt.Errorf("%w: step h=%g must be positive", ErrInvalidConfig, c.H)
	case c.Tf < c.T0:
		return fmt.Errorf("%w: tf=%g before t0=%g", ErrInvalidConfig, c.Tf, c.T0)
	case c.SampleEvery < 0:
		return fmt.Errorf("%w: sample_every=%d", ErrInvalidConfig, c.SampleEvery)
	}
	return nil
}

// HamiltonianParams returns Params with the seed filled in when the preset
// did not set one.
func (c *Config) HamiltonianParams() map[string]float64 {
	out := make(map[string]float64, len(c.Params)+1)
	for k, v := range c.Params {
		out[k] = v
	}
	if _, ok := out["seed"]; !ok && c.Seed != 0 {
		out["seed"] = float64(c.Seed)
	}
	return out
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	if c.Params != nil {
		cp.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			cp.Params[k] = v
		}
	}
	return &cp
}

// Set assigns a numeric field by its yaml name. Any other name is stored as
// a Hamiltonian parameter.
func (c *Config) Set(name string, v float64) {
	switch name {
	case "t0":
		c.T0 = v
	case "tf":
		c.Tf = v
	case "h":
		c.H = v
	case "seed":
		c.Seed = int64(v)
	case "sample_every":
		c.SampleEvery = int(v)
	default:
		if c.Params == nil {
			c.Params = make(map[string]float64)
		}
		c.Params[name] = v
	}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
