package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/swarm/internal/view"
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyScan        = "s"
	KeyGrid        = "g"
	KeyCycleSort   = "o"
	KeyFlipSort    = "O"
	KeyFilter      = "/"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeyAccept      = "enter"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"
)

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if m.filtering {
		switch key {
		case KeyAccept:
			m.filtering = false
			m.filter.Blur()
			return true, nil
		case KeyCollapse:
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.reload()
			return true, nil
		case KeyQuitAlt:
			return m.quit()
		}
		return false, nil
	}

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		return m.quit()

	case KeyRefresh:
		if m.engine.Busy() || m.engine.Len() == 0 {
			return true, nil
		}
		return true, m.startRefresh(false)

	case KeyScan:
		if m.engine.Busy() {
			return true, nil
		}
		return true, m.startScan()

	case KeyGrid:
		m.grid = !m.grid
		m.lastErr = m.engine.SetGridView(m.grid)
		return true, nil

	case KeyCycleSort:
		m.cycleSort()
		return true, nil

	case KeyFlipSort:
		spec := m.engine.SortSpec()
		_, m.lastErr = m.engine.SortBy(spec.Field, spec.Direction.Flip())
		m.reload()
		return true, nil

	case KeyFilter:
		m.filtering = true
		return true, m.filter.Focus()

	case KeyCollapse:
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.reload()
		}
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected < len(m.rows)-1 {
			m.selected++
		}
		return true, nil
	}

	return false, nil
}

func (m *Model) quit() (bool, tea.Cmd) {
	m.quitting = true
	m.Close()
	return true, tea.Quit
}

// cycleSort steps to the next entry of the sort menu.
func (m *Model) cycleSort() {
	opts := view.SortOptions()
	current := m.engine.SortSpec()
	next := opts[0].Spec
	for i, opt := range opts {
		if opt.Spec == current {
			next = opts[(i+1)%len(opts)].Spec
			break
		}
	}
	_, m.lastErr = m.engine.SortBy(next.Field, next.Direction)
	m.reload()
}
