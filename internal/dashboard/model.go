package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/swarm/internal/aggregate"
	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/schedule"
	"github.com/rileyhilliard/swarm/internal/swarm"
	"github.com/rileyhilliard/swarm/internal/ui"
	"github.com/rileyhilliard/swarm/internal/view"
)

// Engine is what the dashboard needs from the swarm.
type Engine interface {
	View(filter string) []device.Device
	Totals() aggregate.Totals
	Len() int
	Busy() bool
	Discover(ctx context.Context) (swarm.Summary, error)
	RefreshAll(ctx context.Context, fetchCapabilities bool) (swarm.Summary, error)
	Subscribe() (<-chan swarm.Event, func())
	Policy() *schedule.Policy
	SortSpec() view.Spec
	SortBy(field string, dir view.Direction) (view.Spec, error)
	GridView() bool
	SetGridView(grid bool) error
}

// Model is the Bubble Tea model for the live fleet view.
type Model struct {
	engine Engine
	policy *schedule.Policy

	ctx    context.Context
	cancel context.CancelFunc

	events      <-chan swarm.Event
	unsubscribe func()

	rows     []device.Device
	totals   aggregate.Totals
	count    int
	spec     view.Spec
	grid     bool
	selected int

	filter    textinput.Model
	filtering bool

	activity ui.Activity
	status   string
	lastErr  error

	startup Startup

	width    int
	height   int
	showHelp bool
	quitting bool
}

// Startup selects the batch the dashboard runs when it opens.
type Startup int

const (
	StartIdle Startup = iota
	// StartScan suits a fleet that was never stored.
	StartScan
	// StartFullRefresh re-reads capabilities for a stored fleet.
	StartFullRefresh
)

// startMsg triggers the startup batch once the program is running.
type startMsg struct{}

// tickMsg drives the refresh countdown once per second.
type tickMsg time.Time

// eventMsg carries a fleet change published by the engine.
type eventMsg swarm.Event

// batchDoneMsg reports a finished scan or refresh started from the
// dashboard.
type batchDoneMsg struct {
	kind    swarm.EventKind
	summary swarm.Summary
	err     error
}

// NewModel builds a dashboard over engine.
func NewModel(engine Engine, startup Startup) Model {
	ctx, cancel := context.WithCancel(context.Background())

	ti := textinput.New()
	ti.Placeholder = "hostname, model, ASIC or IP"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	events, unsubscribe := engine.Subscribe()

	m := Model{
		engine:      engine,
		policy:      engine.Policy(),
		ctx:         ctx,
		cancel:      cancel,
		events:      events,
		unsubscribe: unsubscribe,
		filter:      ti,
		activity:    ui.NewActivity(),
		grid:        engine.GridView(),
		startup:     startup,
		width:       120,
		height:      40,
	}
	m.reload()
	return m
}

// Init starts the countdown and the event listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), m.waitForEvent()}
	if m.startup != StartIdle {
		cmds = append(cmds, func() tea.Msg { return startMsg{} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}
		if m.filtering {
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.reload()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case startMsg:
		switch m.startup {
		case StartScan:
			return m, m.startScan()
		case StartFullRefresh:
			return m, m.startRefresh(true)
		}

	case tickMsg:
		if m.policy.Tick(m.engine.Busy(), m.engine.Len() == 0) {
			return m, tea.Batch(tickCmd(), m.startRefresh(false))
		}
		return m, tickCmd()

	case eventMsg:
		m.reload()
		return m, m.waitForEvent()

	case batchDoneMsg:
		m.activity.Finish(msg.err != nil)
		m.lastErr = msg.err
		m.status = summarize(msg.kind, msg.summary)
		m.reload()

	default:
		var cmd tea.Cmd
		m.activity, cmd = m.activity.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.render()
}

// Close cancels in-flight batches and drops the event subscription.
func (m Model) Close() {
	m.cancel()
	m.unsubscribe()
}

// Rows returns the devices currently shown, in display order.
func (m Model) Rows() []device.Device {
	return m.rows
}

// Selected returns the highlighted device, if any.
func (m Model) Selected() (device.Device, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return device.Device{}, false
	}
	return m.rows[m.selected], true
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent blocks on the subscription; a closed channel ends the
// listener.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m *Model) startRefresh(full bool) tea.Cmd {
	m.policy.Reset()
	start := m.activity.Start("Refreshing")
	engine, ctx := m.engine, m.ctx
	return tea.Batch(start, func() tea.Msg {
		summary, err := engine.RefreshAll(ctx, full)
		return batchDoneMsg{kind: swarm.EventRefresh, summary: summary, err: err}
	})
}

func (m *Model) startScan() tea.Cmd {
	m.policy.Reset()
	start := m.activity.Start("Scanning")
	engine, ctx := m.engine, m.ctx
	return tea.Batch(start, func() tea.Msg {
		summary, err := engine.Discover(ctx)
		return batchDoneMsg{kind: swarm.EventScan, summary: summary, err: err}
	})
}

// reload re-reads the filtered view, totals and preferences.
func (m *Model) reload() {
	m.rows = m.engine.View(m.filter.Value())
	m.totals = m.engine.Totals()
	m.count = m.engine.Len()
	m.spec = m.engine.SortSpec()
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 && len(m.rows) > 0 {
		m.selected = 0
	}
}
