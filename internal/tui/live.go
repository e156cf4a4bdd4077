// Package tui provides a live terminal view of a running continuation.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/contin/internal/cont"
	"github.com/san-kum/contin/internal/numeric"
)

const historyCapacity = 600

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	stableStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true)
	specialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type stepMsg cont.Summary

type doneMsg struct {
	branch *cont.Branch
	err    error
}

// Model streams accepted continuation steps into a scrolling amplitude
// chart with the current step's diagnostics alongside.
type Model struct {
	problem  string
	set      cont.Settings
	updates  chan tea.Msg
	history  []float64
	last     cont.Summary
	specials []cont.SpecialPoint
	done     bool
	err      error
}

func NewModel(problem string, set cont.Settings) *Model {
	return &Model{
		problem: problem,
		set:     set,
		updates: make(chan tea.Msg, 64),
		history: make([]float64, 0, historyCapacity),
	}
}

// Attach installs the hooks that feed the view. Call before Run.
func (m *Model) Attach(r *cont.Runner) {
	r.OnFinalize(func(st *cont.State, branch *cont.Branch) bool {
		if branch.Len() > 0 {
			m.updates <- stepMsg(branch.Last())
		}
		return true
	})
}

// Finish reports the run outcome to the view.
func (m *Model) Finish(branch *cont.Branch, err error) {
	m.updates <- doneMsg{branch: branch, err: err}
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg { return <-m.updates }
}

func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case stepMsg:
		m.last = cont.Summary(msg)
		m.history = append(m.history, m.last.Amplitude)
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
		return m, m.waitForUpdate()
	case doneMsg:
		m.done = true
		m.err = msg.err
		if msg.branch != nil {
			m.specials = msg.branch.Specials
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.problem)) + "\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(10), asciigraph.Width(60),
			asciigraph.Caption("amplitude"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d", m.last.Step)) + "\n")
	s.WriteString(labelStyle.Render("p") + valueStyle.Render(fmt.Sprintf("%.6f", m.last.P)) + "\n")
	s.WriteString(labelStyle.Render("ds") + valueStyle.Render(fmt.Sprintf("%.2e", m.last.Ds)) + "\n")
	s.WriteString(labelStyle.Render("Newton") + valueStyle.Render(fmt.Sprintf("%d iters", m.last.NewtonIters)) + "\n")

	stability := "unknown"
	if m.last.NUnstable == 0 {
		stability = stableStyle.Render("stable")
	} else if m.last.NUnstable > 0 {
		stability = specialStyle.Render(fmt.Sprintf("unstable (%d)", m.last.NUnstable))
	}
	s.WriteString(labelStyle.Render("Stability") + stability + "\n")

	// Progress across the parameter window.
	frac := (m.last.P - m.set.PMin) / (m.set.PMax - m.set.PMin)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * 30)
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat("-", 30-filled) + "]"
	s.WriteString(labelStyle.Render("Window") + valueStyle.Render(bar) + "\n")

	if m.done {
		if m.err != nil {
			s.WriteString("\n" + specialStyle.Render("run failed: "+m.err.Error()) + "\n")
		} else {
			s.WriteString("\n" + stableStyle.Render("run complete") + "\n")
		}
		for _, sp := range m.specials {
			s.WriteString(specialStyle.Render(fmt.Sprintf("  %s at p in [%.6f, %.6f] (%s)\n",
				sp.Kind, sp.PLow, sp.PHigh, sp.Status)))
		}
	}

	s.WriteString(helpStyle.Render("q: quit"))
	return s.String()
}

// Run drives a continuation under the live view. The continuation runs
// on its own goroutine; the program returns when the user quits.
func Run(ctx context.Context, r *cont.Runner, problem string, set cont.Settings, x0 numeric.Vec, p0 float64) (*cont.Branch, error) {
	m := NewModel(problem, set)
	m.Attach(r)

	var (
		branch *cont.Branch
		runErr error
	)
	go func() {
		branch, runErr = r.Run(ctx, x0, p0)
		m.Finish(branch, runErr)
	}()

	if _, err := tea.NewProgram(m).Run(); err != nil {
		return branch, err
	}
	return branch, runErr
}
