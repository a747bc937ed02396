// Package tui shows runs in flight as a live terminal table.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/qevolve/internal/compute"
	"github.com/san-kum/qevolve/internal/config"
	"github.com/san-kum/qevolve/internal/evolve"
	"github.com/san-kum/qevolve/internal/experiment"
)

var ErrQuit = errors.New("tui: quit before all runs finished")

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	barWidth   = 24
	sparkWidth = 30
	// updates is roughly how many progress messages each run sends.
	updates = 100
)

type progressMsg struct {
	idx int
	p   experiment.Progress
}

type doneMsg struct {
	idx int
	res *experiment.Result
	err error
}

type row struct {
	label string
	prog  experiment.Progress
	norms []float64
	res   *experiment.Result
	err   error
}

type model struct {
	title    string
	rows     []row
	done     int
	quitting bool
}

func newModel(title string, cfgs []*config.Config) model {
	rows := make([]row, len(cfgs))
	for i, cfg := range cfgs {
		rows[i].label = fmt.Sprintf("%s/%s", cfg.Method, cfg.Backend)
	}
	return model{title: title, rows: rows}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case progressMsg:
		r := &m.rows[msg.idx]
		r.prog = msg.p
		r.norms = append(r.norms, msg.p.Norm)
		if len(r.norms) > sparkWidth {
			r.norms = r.norms[1:]
		}
	case doneMsg:
		r := &m.rows[msg.idx]
		r.res, r.err = msg.res, msg.err
		m.done++
		if m.done == len(m.rows) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + cyan.Render(m.title) + "\n")
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", 40)) + "\n\n")

	for _, r := range m.rows {
		b.WriteString("  " + white.Render(fmt.Sprintf("%-12s", r.label)) + " ")
		switch {
		case r.err != nil:
			b.WriteString(red.Render("failed: " + r.err.Error()))
		case r.res != nil:
			b.WriteString(bar(1) + " " + green.Render("done") + " " +
				dim.Render(fmt.Sprintf("drift %.2e  unitarity %.2e", r.res.Metrics["norm_drift"], r.res.Metrics["unitarity"])))
		default:
			frac := 0.0
			if r.prog.Steps > 0 {
				frac = float64(r.prog.Step) / float64(r.prog.Steps)
			}
			b.WriteString(bar(frac) + " " + dim.Render(fmt.Sprintf("%3.0f%%  t=%-8.4g |U|=%.10f ", 100*frac, r.prog.Time, r.prog.Norm)) +
				cyan.Render(sparkline(r.norms)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.quitting {
		b.WriteString(dim.Render("  stopped") + "\n")
	} else {
		b.WriteString(dim.Render(fmt.Sprintf("  %d/%d done   q quit", m.done, len(m.rows))) + "\n")
	}
	return b.String()
}

func bar(frac float64) string {
	n := int(frac * barWidth)
	if n > barWidth {
		n = barWidth
	}
	if n < 0 {
		n = 0
	}
	return cyan.Render(strings.Repeat("━", n)) + dimmer.Render(strings.Repeat("━", barWidth-n))
}

// sparkline scales data to its own range; a flat series draws at the bottom.
func sparkline(data []float64) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := data[0], data[0]
	for _, v := range data {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	var sb strings.Builder
	for _, v := range data {
		idx := int((v - lo) / span * 7)
		sb.WriteRune(chars[max(0, min(7, idx))])
	}
	return sb.String()
}

// Watch runs cfgs concurrently and renders their progress until all finish
// or the user quits. Results are in input order. Quitting early returns the
// finished results alongside ErrQuit.
func Watch(ctx context.Context, title string, cfgs []*config.Config, opts ...tea.ProgramOption) ([]*experiment.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(title, cfgs), append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	go func() {
		var g errgroup.Group
		g.SetLimit(compute.Workers(len(cfgs)))
		for i, cfg := range cfgs {
			g.Go(func() error {
				every := 1
				if n, err := evolve.Steps(cfg.T0, cfg.Tf, cfg.H); err == nil && n > updates {
					every = n / updates
				}
				res, err := experiment.Run(ctx, cfg, experiment.WithProgress(every, func(pr experiment.Progress) {
					p.Send(progressMsg{idx: i, p: pr})
				}))
				p.Send(doneMsg{idx: i, res: res, err: err})
				return nil
			})
		}
		_ = g.Wait()
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(model)

	results := make([]*experiment.Result, len(m.rows))
	var errs []error
	for i, r := range m.rows {
		results[i] = r.res
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.label, r.err))
		}
	}
	if m.done < len(m.rows) {
		errs = append(errs, ErrQuit)
	}
	return results, errors.Join(errs...)
}
