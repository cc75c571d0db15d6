package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerFrames defines the animation frames (◐ ◓ ◑ ◒) for Bubble Tea programs.
var SpinnerFrames = spinner.Spinner{
	Frames: []string{"◐", "◓", "◑", "◒"},
	FPS:    time.Second / 10,
}

// Activity is an embeddable spinner that shows what batch is running and
// how the last one ended.
type Activity struct {
	spinner spinner.Model
	Label   string
	Running bool
	Failed  bool
	Started time.Time
	Took    time.Duration
}

// NewActivity creates an idle activity indicator.
func NewActivity() Activity {
	sp := spinner.New()
	sp.Spinner = SpinnerFrames
	sp.Style = lipgloss.NewStyle().Foreground(ColorSecondary)
	return Activity{spinner: sp}
}

// Start marks label as running and returns the first animation tick.
func (a *Activity) Start(label string) tea.Cmd {
	a.Label = label
	a.Running = true
	a.Failed = false
	a.Started = time.Now()
	return a.spinner.Tick
}

// Finish stops the animation and records the outcome.
func (a *Activity) Finish(failed bool) {
	a.Running = false
	a.Failed = failed
	a.Took = time.Since(a.Started)
}

// Update advances the animation while running.
func (a Activity) Update(msg tea.Msg) (Activity, tea.Cmd) {
	if !a.Running {
		return a, nil
	}
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(tick)
		return a, cmd
	}
	return a, nil
}

// View renders the indicator; empty before the first batch.
func (a Activity) View() string {
	switch {
	case a.Running:
		return a.spinner.View() + " " + a.Label + "..."
	case a.Label == "":
		return ""
	}

	symbol, color := SymbolSuccess, ColorSuccess
	if a.Failed {
		symbol, color = SymbolFail, ColorError
	}
	return lipgloss.NewStyle().Foreground(color).Render(symbol) + " " + a.Label + " " +
		lipgloss.NewStyle().Foreground(ColorMuted).Render(formatDuration(a.Took))
}
