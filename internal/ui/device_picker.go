package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/swarm/internal/device"
	"github.com/rileyhilliard/swarm/internal/errors"
)

// deviceItem implements list.Item for the Bubbles list component.
type deviceItem struct {
	device device.Device
}

func (i deviceItem) Title() string {
	return DisplayName(i.device)
}

func (i deviceItem) Description() string {
	parts := []string{i.device.IP, i.device.Label()}
	if i.device.Degraded {
		parts = append(parts, "offline")
	} else {
		parts = append(parts, FormatHashRate(i.device.HashRate))
	}
	return strings.Join(parts, " | ")
}

func (i deviceItem) FilterValue() string {
	return strings.Join([]string{i.device.Hostname, i.device.IP, i.device.DeviceModel, i.device.ASICModel}, " ")
}

// DevicePickerModel is a Bubble Tea model for choosing one device.
type DevicePickerModel struct {
	list     list.Model
	selected *device.Device
	quitting bool
}

type devicePickerKeyMap struct {
	Enter key.Binding
	Quit  key.Binding
}

var devicePickerKeys = devicePickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

// NewDevicePickerModel creates a picker over devices, titled title.
func NewDevicePickerModel(title string, devices []device.Device) DevicePickerModel {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	return DevicePickerModel{list: l}
}

// Init implements tea.Model.
func (m DevicePickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Let the list consume keys while the filter prompt is open.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, devicePickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(deviceItem); ok {
				m.selected = &item.device
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, devicePickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m DevicePickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the chosen device, or nil if cancelled.
func (m DevicePickerModel) Selected() *device.Device {
	return m.selected
}

// PickDevice shows an interactive picker and returns the chosen device.
// Returns nil if the user cancels.
func PickDevice(title string, devices []device.Device) (*device.Device, error) {
	return PickDeviceWithIO(title, devices, os.Stdout, os.Stdin)
}

// PickDeviceWithIO runs the picker over custom I/O.
func PickDeviceWithIO(title string, devices []device.Device, output io.Writer, input io.Reader) (*device.Device, error) {
	if len(devices) == 0 {
		return nil, errors.New(errors.ErrConfig, "No devices to pick from", "Run 'swarm scan' or 'swarm add <ip>' first.")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	p := tea.NewProgram(
		NewDevicePickerModel(title, devices),
		tea.WithOutput(output),
		tea.WithInput(input),
	)

	final, err := p.Run()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Device picker failed", "Pass the device address as an argument instead.")
	}
	if m, ok := final.(DevicePickerModel); ok {
		return m.Selected(), nil
	}
	return nil, nil
}
