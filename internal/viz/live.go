package viz

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/kamenik/sigflow/internal/engine"
	"github.com/kamenik/sigflow/internal/probe"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Live is a bubbletea model that steps a simulator in real time and
// graphs one element of a probed signal.
type Live struct {
	sim          *engine.Simulator
	probe        *probe.Probe
	column       int
	stepsPerTick int
	history      []float64
	running      bool
	err          error
	width        int
	height       int
}

func NewLive(sim *engine.Simulator, p *probe.Probe, column, stepsPerTick int) Live {
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}
	return Live{
		sim:          sim,
		probe:        p,
		column:       column,
		stepsPerTick: stepsPerTick,
		history:      make([]float64, 0, historyCapacity),
		running:      true,
		width:        80,
		height:       16,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Live) Init() tea.Cmd {
	return tick()
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height - 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.sim.Reset()
			m.history = m.history[:0]
			m.err = nil
			m.running = true
		}
		return m, nil

	case TickMsg:
		if m.running && m.err == nil {
			for i := 0; i < m.stepsPerTick; i++ {
				if err := m.sim.Step(); err != nil {
					m.err = err
					m.running = false
					break
				}
			}
			v := m.sim.Store().Get(m.probe.Target()).At(m.column)
			m.history = append(m.history, v)
			if len(m.history) > historyCapacity {
				m.history = m.history[len(m.history)-historyCapacity:]
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m Live) View() string {
	s := headerStyle.Render(fmt.Sprintf("sigflow live — %s", m.probe.Name())) + "\n"
	s += labelStyle.Render(fmt.Sprintf("t=%.3fs  steps=%d  dt=%g", m.sim.Time(), m.sim.NSteps(), m.sim.Dt())) + "\n\n"

	if len(m.history) > 1 {
		width := m.width - 10
		if width > len(m.history) {
			width = len(m.history)
		}
		s += graphStyle.Render(asciigraph.Plot(m.history,
			asciigraph.Width(width),
			asciigraph.Height(m.height),
		)) + "\n"
	}

	if m.err != nil {
		s += errStyle.Render(m.err.Error()) + "\n"
	}
	s += helpStyle.Render("space pause · r reset · q quit")
	return s
}
