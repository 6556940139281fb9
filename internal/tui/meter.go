// Package tui provides an interactive terminal meter for tuning the
// trigger detector against a live microphone.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chirp/internal/analysis"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	lampOnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#D94F4F")).
			Padding(0, 1).
			Bold(true)

	lampOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777")).
			Padding(0, 1)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065"))

	floorMarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8B339"))
)

const (
	meterRefresh = 33 * time.Millisecond // ~30 fps
	barWidth     = 40
	sensStep     = 0.05
)

// Monitor is the live state the meter displays. The audio engine
// satisfies it; all methods must be safe to call from the UI goroutine.
type Monitor interface {
	Snapshot() analysis.Snapshot
	FlapCount() uint32
	SetSensitivity(s float64) error
}

type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

var meterKeys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "+", "="),
		key.WithHelp("↑/+", "more sensitive"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "-"),
		key.WithHelp("↓/-", "less sensitive"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

type tickMsg time.Time

// MeterModel is the Bubble Tea model for the tuning meter.
type MeterModel struct {
	monitor     Monitor
	sensitivity float64

	snap  analysis.Snapshot
	flaps uint32
	err   error
}

// NewMeterModel creates a meter bound to a live monitor. The initial
// sensitivity seeds the on-screen value until the user changes it.
func NewMeterModel(monitor Monitor, sensitivity float64) MeterModel {
	return MeterModel{
		monitor:     monitor,
		sensitivity: sensitivity,
	}
}

func tick() tea.Cmd {
	return tea.Tick(meterRefresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the refresh loop.
func (m MeterModel) Init() tea.Cmd {
	return tick()
}

// Update handles refresh ticks and sensitivity keys.
func (m MeterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.snap = m.monitor.Snapshot()
		m.flaps = m.monitor.FlapCount()
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, meterKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, meterKeys.Up):
			m = m.adjustSensitivity(sensStep)

		case key.Matches(msg, meterKeys.Down):
			m = m.adjustSensitivity(-sensStep)
		}
	}

	return m, nil
}

func (m MeterModel) adjustSensitivity(delta float64) MeterModel {
	s := m.sensitivity + delta
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	if err := m.monitor.SetSensitivity(s); err != nil {
		m.err = err
		return m
	}
	m.sensitivity = s
	m.err = nil
	return m
}

// View renders the meter.
func (m MeterModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Trigger Meter"))
	sb.WriteString("\n\n")

	lamp := lampOffStyle.Render("  quiet  ")
	if m.snap.IsLoud {
		lamp = lampOnStyle.Render("  FLAP!  ")
	}
	sb.WriteString(fmt.Sprintf("%s  flaps: %d  counter: %d\n\n",
		lamp, m.flaps, m.snap.LoudCounter))

	sb.WriteString(renderBar("rms  ", m.snap.RMS, 0.5))
	sb.WriteString(renderBar("floor", m.snap.NoiseFloor, 0.5))
	sb.WriteString(renderBar("band ", m.snap.BandRatio, 1.0))

	sb.WriteString(fmt.Sprintf("\nsensitivity: %.2f", m.sensitivity))
	if m.err != nil {
		sb.WriteString(fmt.Sprintf("  (%v)", m.err))
	}
	sb.WriteString("\n")

	if n := len(m.snap.RecentCentroids); n > 0 {
		sb.WriteString(fmt.Sprintf("centroid: %s\n",
			floorMarkStyle.Render(fmt.Sprintf("%.0f Hz", m.snap.RecentCentroids[n-1]))))
	}

	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render("↑/+: More Sensitive • ↓/-: Less Sensitive • q: Quit"))
	sb.WriteString("\n")

	return sb.String()
}

// renderBar draws a fixed-width horizontal bar for a value scaled
// against fullScale. Values above full scale pin the bar.
func renderBar(label string, value, fullScale float64) string {
	filled := 0
	if fullScale > 0 {
		filled = int(value / fullScale * barWidth)
	}
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	bar := barStyle.Render(strings.Repeat("█", filled)) +
		strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%s %s %.4f\n", label, bar, value)
}

// StartMeter launches the tuning meter and blocks until the user quits.
func StartMeter(monitor Monitor, sensitivity float64) error {
	p := tea.NewProgram(
		NewMeterModel(monitor, sensitivity),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
