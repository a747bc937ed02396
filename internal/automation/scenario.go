// Package automation runs scripted sequences of integrations from YAML and
// one-parameter sweeps.
package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/experiment"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a named list of runs executed in order.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run. Fields missing from the YAML take the config defaults.
type Step struct {
	Label  string
	Config *config.Config
}

func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	var head struct {
		Label string `yaml:"label"`
	}
	if err := n.Decode(&head); err != nil {
		return err
	}
	cfg := config.DefaultConfig()
	if err := n.Decode(cfg); err != nil {
		return err
	}
	s.Label, s.Config = head.Label, cfg
	return nil
}

// LoadScenario reads a scenario and validates every step.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyScenario)
	}
	for i, step := range sc.Steps {
		if err := step.Config.Validate(); err != nil {
			return nil, fmt.Errorf("%s step %d: %w", path, i+1, err)
		}
	}
	return &sc, nil
}

// RunScenario executes the steps one after another, writing a line per step
// to w. On failure the results of the steps that finished are returned with
// the error.
func RunScenario(ctx context.Context, sc *Scenario, w io.Writer) ([]*experiment.Result, error) {
	results := make([]*experiment.Result, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		label := step.Label
		if label == "" {
			label = fmt.Sprintf("%s on %s", step.Config.Method, step.Config.Hamiltonian)
		}
		fmt.Fprintf(w, "step %d/%d: %s\n", i+1, len(sc.Steps), label)

		res, err := experiment.Run(ctx, step.Config)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}
