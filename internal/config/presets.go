package config

import "sort"

var Presets = map[string]*Config{
	"spin-flip": {
		Method: "srk2", Backend: "cdense", Hamiltonian: "pauli-x",
		Tf: 3.14159265358979, H: 0.01, SampleEvery: 5,
	},
	"precession": {
		Method: "rk4", Backend: "cdense", Hamiltonian: "pauli-z",
		Params: map[string]float64{"omega": 2}, Tf: 10, H: 0.01, SampleEvery: 10,
	},
	"rabi-long": {
		Method: "sv2", Backend: "split", Hamiltonian: "rabi",
		Params: map[string]float64{"omega": 1, "rabi": 0.1}, Tf: 200, H: 0.05, SampleEvery: 20,
	},
	"ising-4": {
		Method: "srk2", Backend: "cdense", Hamiltonian: "ising",
		Params: map[string]float64{"spins": 4, "J": 1, "g": 0.7}, Tf: 20, H: 0.02, SampleEvery: 10,
	},
	"random-8": {
		Method: "rkn4", Backend: "cdense", Hamiltonian: "random",
		Params: map[string]float64{"dim": 8}, Seed: 42, Tf: 5, H: 0.005, SampleEvery: 20,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
