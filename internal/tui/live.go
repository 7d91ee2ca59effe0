// Package tui renders a live terminal view of one closed-loop testbed flight.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/skypilot/internal/craft"
	"github.com/san-kum/skypilot/internal/testbed"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps one testbed flight at the control rate and draws heading
// convergence.
type Model struct {
	flight *testbed.Flight
	dt     float64

	running bool
	t       float64
	history []float64
}

func NewModel(flight *testbed.Flight, dt float64) Model {
	return Model{
		flight:  flight,
		dt:      dt,
		running: true,
		history: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
	case TickMsg:
		if m.running {
			// A 30fps frame covers several 20ms control ticks.
			steps := int(1.0 / 30.0 / m.dt)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				if err := m.flight.Tick(m.dt); err != nil {
					return m, tea.Quit
				}
				m.t += m.dt
			}
			m.history = append(m.history, m.flight.HeadingErrorDeg())
			if len(m.history) > historyCapacity {
				m.history = m.history[1:]
			}
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("skypilot heading hold"))
	b.WriteString("\n")

	rows := []struct {
		label string
		field craft.Field
	}{
		{"heading (deg)", craft.HeadingDeg},
		{"target roll", craft.TargetRollDeg},
		{"roll (deg)", craft.RollDeg},
		{"aileron trim", craft.AileronTrim},
		{"sideslip (deg)", craft.SideslipDeg},
		{"rudder trim", craft.RudderTrim},
	}
	for _, row := range rows {
		v, ok := m.flight.Value(row.field)
		val := "—"
		if ok {
			val = fmt.Sprintf("%8.3f", v)
		}
		b.WriteString(labelStyle.Render(row.label))
		b.WriteString(valueStyle.Render(val))
		b.WriteString("\n")
	}
	b.WriteString(labelStyle.Render("heading error"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%8.3f", m.flight.HeadingErrorDeg())))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("sim time"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%8.2fs", m.t)))
	b.WriteString("\n")

	if len(m.history) > 1 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption("heading error (deg)"))
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space pause · q quit"))
	return b.String()
}
