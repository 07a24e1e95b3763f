package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/uavconcept/v4lctl/internal/backend"
	"github.com/uavconcept/v4lctl/internal/discovery"
)

// Screen identifies which model owns the terminal.
type Screen int

const (
	ScreenDiscovery Screen = iota
	ScreenDashboard
)

func (s Screen) String() string {
	if s == ScreenDashboard {
		return "dashboard"
	}
	return "discovery"
}

// ConnectFunc builds a backend for a daemon picked on the discovery screen.
// The returned label is shown in the title bar.
type ConnectFunc func(inst *discovery.Instance) (b backend.Backend, label string)

// AppModel routes messages to the active screen and swaps the discovery
// screen for a dashboard once a daemon is chosen.
type AppModel struct {
	CurrentScreen Screen

	DiscoveryModel DiscoveryModel
	DashboardModel DashboardModel

	Connect ConnectFunc

	Width, Height int
}

// NewDashboardApp opens straight onto the dashboard of a known backend.
func NewDashboardApp(b backend.Backend, label string) AppModel {
	return AppModel{CurrentScreen: ScreenDashboard, DashboardModel: NewDashboardModel(b, label)}
}

// NewDiscoveryApp browses for daemons first.
func NewDiscoveryApp(scan ScanFunc, connect ConnectFunc) AppModel {
	return AppModel{CurrentScreen: ScreenDiscovery, DiscoveryModel: NewDiscoveryModel(scan), Connect: connect}
}

func (m AppModel) Init() tea.Cmd {
	if m.CurrentScreen == ScreenDashboard {
		return m.DashboardModel.Init()
	}
	return m.DiscoveryModel.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width, m.Height = size.Width, size.Height
		d, _ := m.DiscoveryModel.Update(size)
		m.DiscoveryModel = d.(DiscoveryModel)
		m.DashboardModel.Width, m.DashboardModel.Height = size.Width, size.Height
		return m, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.CurrentScreen == ScreenDashboard {
		d, cmd := m.DashboardModel.Update(msg)
		m.DashboardModel = d.(DashboardModel)
		return m, cmd
	}

	d, cmd := m.DiscoveryModel.Update(msg)
	m.DiscoveryModel = d.(DiscoveryModel)
	if picked := m.DiscoveryModel.Selected; picked != nil && m.Connect != nil {
		return m.open(picked)
	}
	return m, cmd
}

func (m AppModel) open(inst *discovery.Instance) (tea.Model, tea.Cmd) {
	b, label := m.Connect(inst)

	m.CurrentScreen = ScreenDashboard
	m.DashboardModel = NewDashboardModel(b, label)
	m.DashboardModel.Width, m.DashboardModel.Height = m.Width, m.Height
	return m, m.DashboardModel.Init()
}

func (m AppModel) View() string {
	if m.CurrentScreen == ScreenDashboard {
		return m.DashboardModel.View()
	}
	return m.DiscoveryModel.View()
}
