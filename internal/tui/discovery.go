package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/uavconcept/v4lctl/internal/discovery"
)

// ScanFunc finds daemons on the network.
type ScanFunc func(ctx context.Context) ([]*discovery.Instance, error)

type scanDoneMsg struct {
	instances []*discovery.Instance
	err       error
}

type discoveryKeys struct {
	Up, Down, Pick, Rescan, Manual, Quit key.Binding

	// address entry
	Confirm, Cancel key.Binding
	entering        bool
}

func (k discoveryKeys) ShortHelp() []key.Binding {
	if k.entering {
		return []key.Binding{k.Confirm, k.Cancel}
	}
	return []key.Binding{k.Up, k.Down, k.Pick, k.Rescan, k.Manual, k.Quit}
}

func (k discoveryKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// instanceItem wraps an Instance for use with bubbles/list
type instanceItem struct {
	instance *discovery.Instance
}

func (i instanceItem) FilterValue() string {
	return i.instance.Name + " " + i.instance.IP + " " + i.instance.Hostname
}

func (i instanceItem) Title() string {
	return i.instance.Name
}

func (i instanceItem) Description() string {
	version := i.instance.Version
	if version == "" {
		version = "unknown"
	}
	return fmt.Sprintf("%s • %s • v%s", i.instance.Address(), i.instance.Device, version)
}

// instanceDelegate renders one daemon as a two-line entry
type instanceDelegate struct{}

func (d instanceDelegate) Height() int                             { return 2 }
func (d instanceDelegate) Spacing() int                            { return 1 }
func (d instanceDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d instanceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(instanceItem)
	if !ok {
		return
	}

	title := "  " + it.Title()
	if index == m.Index() {
		title = SelectedMenuItemStyle.Render("→ " + it.Title())
	}
	desc := lipgloss.NewStyle().Foreground(SubtleColor).PaddingLeft(4).Render(it.Description())

	_, _ = fmt.Fprint(w, title+"\n"+desc)
}

// DiscoveryModel lists daemons found over mDNS and lets the operator pick
// one or type an address.
type DiscoveryModel struct {
	Scan ScanFunc

	Scanning     bool
	Started      time.Time
	InstanceList list.Model
	Selected     *discovery.Instance
	Err          error

	ManualMode   bool
	AddressInput textinput.Model

	Width, Height int

	Spinner spinner.Model
	Help    help.Model
	Keys    discoveryKeys
}

// NewDiscoveryModel creates a discovery screen that scans with scan.
func NewDiscoveryModel(scan ScanFunc) DiscoveryModel {
	spin := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle))

	input := textinput.New()
	input.Placeholder = fmt.Sprintf("capture1.local:%d", discovery.DefaultPort)
	input.CharLimit = 253
	input.Width = 40

	daemons := list.New(nil, instanceDelegate{}, 0, 0)
	daemons.Title = "v4lctl daemons"
	daemons.SetShowStatusBar(false)
	daemons.SetShowHelp(false)
	daemons.Styles.Title = TitleStyle

	return DiscoveryModel{
		Scan:         scan,
		Scanning:     true,
		Started:      time.Now(),
		InstanceList: daemons,
		AddressInput: input,
		Spinner:      spin,
		Help:         help.New(),
		Keys: discoveryKeys{
			Up:      bind("↑/k", "up", "up", "k"),
			Down:    bind("↓/j", "down", "down", "j"),
			Pick:    bind("enter", "connect", "enter"),
			Rescan:  bind("r", "scan again", "r"),
			Manual:  bind("m", "enter address", "m"),
			Quit:    bind("q", "quit", "q", "esc"),
			Confirm: bind("enter", "connect", "enter"),
			Cancel:  bind("esc", "back to list", "esc"),
		},
	}
}

// Init starts the first scan.
func (m DiscoveryModel) Init() tea.Cmd {
	return tea.Batch(m.startScan(), m.Spinner.Tick)
}

func (m DiscoveryModel) startScan() tea.Cmd {
	scan := m.Scan
	return func() tea.Msg {
		if scan == nil {
			return scanDoneMsg{}
		}
		instances, err := scan(context.Background())
		return scanDoneMsg{instances: instances, err: err}
	}
}

func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		// title bar, rule lines and help take ten rows
		m.InstanceList.SetSize(msg.Width-4, msg.Height-10)

	case scanDoneMsg:
		m.Scanning, m.Err = false, msg.err
		items := make([]list.Item, 0, len(msg.instances))
		for _, inst := range msg.instances {
			items = append(items, instanceItem{instance: inst})
		}
		return m, m.InstanceList.SetItems(items)

	case spinner.TickMsg:
		if m.Scanning {
			var cmd tea.Cmd
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		if m.ManualMode {
			return m.onAddressKey(msg)
		}
		return m.onListKey(msg)
	}
	return m, nil
}

func (m DiscoveryModel) onListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Manual):
		return m.enterManualMode()
	case m.Scanning:
		return m, nil
	case key.Matches(msg, m.Keys.Pick):
		if it, ok := m.InstanceList.SelectedItem().(instanceItem); ok {
			m.Selected = it.instance
		}
		return m, nil
	case key.Matches(msg, m.Keys.Rescan):
		m.Scanning, m.Started, m.Err = true, time.Now(), nil
		return m, tea.Batch(m.InstanceList.SetItems(nil), m.startScan(), m.Spinner.Tick)
	}

	var cmd tea.Cmd
	m.InstanceList, cmd = m.InstanceList.Update(msg)
	return m, cmd
}

func (m DiscoveryModel) enterManualMode() (tea.Model, tea.Cmd) {
	m.ManualMode, m.Keys.entering = true, true
	m.AddressInput.SetValue("")
	return m, m.AddressInput.Focus()
}

func (m DiscoveryModel) leaveManualMode() DiscoveryModel {
	m.ManualMode, m.Keys.entering = false, false
	m.AddressInput.Blur()
	return m
}

func (m DiscoveryModel) onAddressKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Cancel):
		return m.leaveManualMode(), nil
	case key.Matches(msg, m.Keys.Confirm):
		inst, err := ParseAddress(m.AddressInput.Value())
		if err != nil {
			m.Err = err
			return m, nil
		}
		m = m.leaveManualMode()
		m.Err, m.Selected = nil, inst
		return m, nil
	}

	var cmd tea.Cmd
	m.AddressInput, cmd = m.AddressInput.Update(msg)
	return m, cmd
}

// ParseAddress turns "host" or "host:port" into an Instance with the
// default port filled in.
func ParseAddress(address string) (*discovery.Instance, error) {
	address = strings.TrimSpace(address)
	address = strings.TrimPrefix(address, "http://")
	address = strings.TrimSuffix(address, "/")
	if address == "" {
		return nil, fmt.Errorf("address is empty")
	}

	host, port := address, discovery.DefaultPort
	if i := strings.LastIndex(address, ":"); i > 0 && !strings.HasSuffix(address, "]") {
		if _, err := fmt.Sscanf(address[i+1:], "%d", &port); err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid port in %q", address)
		}
		host = address[:i]
	}
	host = strings.Trim(host, "[]")

	return &discovery.Instance{
		Name:         host,
		Hostname:     host,
		IP:           host,
		Port:         port,
		DiscoveredAt: time.Now(),
	}, nil
}

func (m DiscoveryModel) View() string {
	var body string
	switch {
	case m.ManualMode:
		body = m.renderManualEntry()
	case m.Scanning:
		body = m.renderScanning()
	default:
		body = m.renderResults()
	}
	return frame(body, "", m.Help.View(m.Keys), m.Width, m.Height)
}

func (m DiscoveryModel) renderScanning() string {
	waited := time.Since(m.Started).Round(time.Second)
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR DAEMONS"),
		subtitle(fmt.Sprintf("Browsing %s for v4lctld instances... (%s)", discovery.ServiceType, waited)),
	)
}

func (m DiscoveryModel) renderResults() string {
	parts := []string{""}
	if m.Err != nil {
		parts = append(parts, errorBox(m.Err.Error()), "")
	}
	if len(m.InstanceList.Items()) > 0 {
		return strings.Join(append(parts, m.InstanceList.View()), "\n")
	}
	return strings.Join(append(parts,
		ModifiedStyle.Render("  ⚠ No daemons found on your network"),
		"",
		"  Is v4lctld running with --advertise, and is multicast DNS allowed",
		"  between the hosts? Press 'm' to type an address instead.",
	), "\n")
}

func (m DiscoveryModel) renderManualEntry() string {
	out := subtitle("Enter daemon address") + "\n\n  Address: " + m.AddressInput.View() + "\n"
	if m.Err != nil {
		out += "\n" + errorBox(m.Err.Error())
	}
	return out
}
