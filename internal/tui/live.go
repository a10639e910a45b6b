// Package tui renders a live view of an in-flight fixed-point search: the
// mean speed objective over the batch, plotted as it decays. The monitor is
// a pure observer; closing it never affects the search.
package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fpfind/internal/optim"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// Monitor consumes optimizer progress from a channel and drives the
// bubbletea program until the search finishes or the user quits.
type Monitor struct {
	progress chan optim.Progress
}

func NewMonitor() *Monitor {
	return &Monitor{progress: make(chan optim.Progress, 64)}
}

// Sink is the ProgressFunc to hand to the finder. It never blocks: if the
// UI falls behind, updates are dropped.
func (m *Monitor) Sink(p optim.Progress) {
	select {
	case m.progress <- p:
	default:
	}
}

// Done signals that the search finished and no more progress will arrive.
func (m *Monitor) Done() { close(m.progress) }

// Run blocks until the monitor exits.
func (m *Monitor) Run() error {
	prog := tea.NewProgram(newModel(m.progress))
	_, err := prog.Run()
	return err
}

type progressMsg optim.Progress

type doneMsg struct{}

func waitForProgress(ch chan optim.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return doneMsg{}
		}
		return progressMsg(p)
	}
}

type model struct {
	ch      chan optim.Progress
	iter    int
	total   int
	q       float64
	history []float64
	done    bool
}

func newModel(ch chan optim.Progress) model {
	return model{ch: ch, history: make([]float64, 0, 256)}
}

func (m model) Init() tea.Cmd {
	return waitForProgress(m.ch)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case progressMsg:
		m.iter = msg.Iter
		m.total = msg.Total
		m.q = msg.Q
		// plot log10(q); the interesting action spans many decades
		if msg.Q > 0 {
			m.history = append(m.history, math.Log10(msg.Q))
		}
		return m, waitForProgress(m.ch)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fixed-point search"))
	b.WriteString("\n\n")

	if len(m.history) >= 2 {
		b.WriteString(asciigraph.Plot(m.history,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("log10 mean q"),
		))
		b.WriteString("\n\n")
	}

	b.WriteString(fmt.Sprintf("%s %s/%s   %s %s\n",
		labelStyle.Render("iteration"),
		valueStyle.Render(fmt.Sprintf("%d", m.iter)),
		valueStyle.Render(fmt.Sprintf("%d", m.total)),
		labelStyle.Render("mean q"),
		valueStyle.Render(fmt.Sprintf("%.3e", m.q))))

	if m.done {
		b.WriteString(footerStyle.Render("search finished"))
	} else {
		b.WriteString(footerStyle.Render("q to quit view (search keeps running)"))
	}
	b.WriteString("\n")
	return b.String()
}
