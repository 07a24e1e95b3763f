package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/backend"
	"github.com/uavconcept/v4lctl/internal/discovery"
	"github.com/uavconcept/v4lctl/internal/engine"
)

type fakeTool struct {
	mu     sync.Mutex
	writes []string
}

func (f *fakeTool) Read(context.Context, string) string { return "" }

func (f *fakeTool) Write(_ context.Context, command, value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, command+" "+value)
	return true
}

func newBackend() (*backend.Local, *fakeTool) {
	tool := &fakeTool{}
	return backend.NewLocal(engine.New(tool, attr.DefaultSchema(), nil, zap.NewNop())), tool
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m DashboardModel, msgs ...tea.Msg) DashboardModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(DashboardModel)
	}
	return m
}

func loadedDashboard(t *testing.T) (DashboardModel, *backend.Local, *fakeTool) {
	t.Helper()
	b, tool := newBackend()
	m := NewDashboardModel(b, "local")
	m = update(t, m, loadCmd(b)())
	require.NoError(t, m.Err)
	require.NotNil(t, m.Schema)
	assert.False(t, m.Loading)
	return m, b, tool
}

func moveTo(t *testing.T, m DashboardModel, key string) DashboardModel {
	t.Helper()
	_, i, ok := m.Schema.Lookup(key)
	require.True(t, ok)
	for m.Cursor != i {
		m = update(t, m, keyPress("down"))
	}
	return m
}

func TestStep(t *testing.T) {
	s := attr.DefaultSchema()
	get := func(key string) attr.Attribute {
		a, _, ok := s.Lookup(key)
		require.True(t, ok)
		return a
	}

	tests := []struct {
		name string
		key  string
		from attr.Value
		dir  int
		want attr.Value
	}{
		{"choice forward", "input", attr.ChoiceValue("Composite0"), 1, attr.ChoiceValue("Composite1")},
		{"choice wraps back", "input", attr.ChoiceValue("Composite0"), -1, attr.ChoiceValue("Composite3")},
		{"choice wraps forward", "input", attr.ChoiceValue("Composite3"), 1, attr.ChoiceValue("Composite0")},
		{"unknown choice resets", "input", attr.ChoiceValue("Tuner"), 1, attr.ChoiceValue("Composite0")},
		{"bool toggles", "mute", attr.BoolValue(false), -1, attr.BoolValue(true)},
		{"int up", "Coring", attr.IntValue(1), 1, attr.IntValue(2)},
		{"int upper bound", "Coring", attr.IntValue(3), 1, attr.IntValue(3)},
		{"int lower bound", "Coring", attr.IntValue(0), -1, attr.IntValue(0)},
		{"percent step", "bright", attr.PercentValue(50), 1, attr.PercentValue(55)},
		{"percent upper bound", "bright", attr.PercentValue(98), 1, attr.PercentValue(100)},
		{"percent lower bound", "bright", attr.PercentValue(3), -1, attr.PercentValue(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Step(get(tt.key), tt.from, tt.dir))
		})
	}
}

func TestDashboardStageAndApply(t *testing.T) {
	m, b, tool := loadedDashboard(t)

	m = update(t, m, keyPress("right"))
	m = moveTo(t, m, "bright")
	m = update(t, m, keyPress("right"), keyPress("right"))

	assert.True(t, m.HasPendingEdits())
	assert.Equal(t, attr.Document{"input": "Composite1", "bright": "60"}, m.PendingDocument())
	assert.Empty(t, tool.writes, "staging must not write")
	assert.Contains(t, m.View(), "2 staged")

	m = update(t, m, keyPress("a"))
	assert.True(t, m.Applying)

	m = update(t, m, applyCmd(b, m.PendingDocument())())
	assert.False(t, m.Applying)
	require.NoError(t, m.Err)
	assert.False(t, m.HasPendingEdits())
	require.Len(t, m.LastChanges, 2)
	assert.Equal(t, []string{"setattr input Composite1", "bright 60%"}, tool.writes)
	assert.Contains(t, m.View(), "Last reconcile")
}

func TestDashboardApplyWithoutEditsIsNoop(t *testing.T) {
	m, _, _ := loadedDashboard(t)

	next, cmd := m.Update(keyPress("a"))
	assert.Nil(t, cmd)
	assert.False(t, next.(DashboardModel).Applying)
}

func TestDashboardTypedEdit(t *testing.T) {
	m, _, _ := loadedDashboard(t)
	m = moveTo(t, m, "Coring")

	m = update(t, m, keyPress("enter"))
	require.True(t, m.Editing)
	assert.Equal(t, "0", m.Input.Value())

	m.Input.SetValue("9")
	m = update(t, m, keyPress("enter"))
	assert.True(t, m.Editing, "out of range value keeps the editor open")
	assert.Error(t, m.Err)

	m.Input.SetValue("2")
	m = update(t, m, keyPress("enter"))
	assert.False(t, m.Editing)
	assert.NoError(t, m.Err)
	assert.Equal(t, attr.Document{"Coring": "2"}, m.PendingDocument())

	m = update(t, m, keyPress("enter"))
	m.Input.SetValue("3")
	m = update(t, m, keyPress("esc"))
	assert.False(t, m.Editing)
	assert.Equal(t, attr.Document{"Coring": "2"}, m.PendingDocument(), "esc discards the typed value")
}

func TestDashboardEnterTogglesBool(t *testing.T) {
	m, _, _ := loadedDashboard(t)
	m = moveTo(t, m, "mute")

	m = update(t, m, keyPress("enter"))
	assert.False(t, m.Editing)
	assert.Equal(t, attr.Document{"mute": "on"}, m.PendingDocument())

	m = update(t, m, keyPress("u"))
	assert.False(t, m.HasPendingEdits())
}

func TestDashboardNavigationWraps(t *testing.T) {
	m, _, _ := loadedDashboard(t)

	m = update(t, m, keyPress("up"))
	assert.Equal(t, m.Schema.Len()-1, m.Cursor)
	m = update(t, m, keyPress("down"))
	assert.Equal(t, 0, m.Cursor)
}

func TestDashboardDefaultsNeedsConfirmation(t *testing.T) {
	m, b, tool := loadedDashboard(t)

	m = update(t, m, keyPress("d"))
	require.True(t, m.ConfirmingDefaults)
	assert.Contains(t, m.View(), "RESTORE DEFAULTS")

	m = update(t, m, keyPress("n"))
	assert.False(t, m.ConfirmingDefaults)
	assert.False(t, m.Applying)

	// Move the card off its defaults first
	_, _, err := b.Apply(context.Background(), attr.Document{"hue": "10"})
	require.NoError(t, err)
	tool.writes = nil

	m = update(t, m, keyPress("d"), keyPress("y"))
	assert.True(t, m.Applying)

	m = update(t, m, defaultsCmd(b)())
	require.Len(t, m.LastChanges, 1)
	assert.Equal(t, "hue", m.LastChanges[0].Key)
	assert.Equal(t, []string{"hue 50%"}, tool.writes)
}

func TestDashboardKeepsStagedEditsOnPush(t *testing.T) {
	m, _, _ := loadedDashboard(t)
	m = moveTo(t, m, "mute")
	m = update(t, m, keyPress("right"))

	m = update(t, m, RevisionMsg{Config: attr.Document{"norm": "NTSC"}})

	v, _ := m.Current.Value("norm")
	assert.Equal(t, attr.ChoiceValue("NTSC"), v)
	assert.Equal(t, attr.Document{"mute": "on"}, m.PendingDocument())

	m = update(t, m, RevisionMsg{Config: attr.Document{"norm": "bogus"}})
	assert.Error(t, m.Err)
}

func TestDashboardBlocksInputWhileApplying(t *testing.T) {
	m, _, _ := loadedDashboard(t)
	m.Applying = true

	m = update(t, m, keyPress("right"))
	assert.False(t, m.HasPendingEdits())
}

type failingBackend struct{ backend.Backend }

func (failingBackend) Schema(context.Context) (*attr.Schema, error) {
	return nil, errors.New("connection refused")
}

func TestDashboardLoadError(t *testing.T) {
	m := NewDashboardModel(failingBackend{}, "http://nowhere:8740")
	m = update(t, m, loadCmd(m.Backend)())

	require.Error(t, m.Err)
	assert.Nil(t, m.Schema)
	assert.Contains(t, m.View(), "connection refused")

	// Navigation is inert without a schema
	m = update(t, m, keyPress("down"), keyPress("right"))
	assert.Equal(t, 0, m.Cursor)
}

func TestDashboardView(t *testing.T) {
	m, _, _ := loadedDashboard(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	out := m.View()
	assert.Contains(t, out, AppName)
	assert.Contains(t, out, "UV Ratio")
	assert.Contains(t, out, "Full Luma Range")
	assert.Contains(t, out, "50%")
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input    string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"capture1.local", "capture1.local", discovery.DefaultPort, false},
		{"192.168.1.20:9000", "192.168.1.20", 9000, false},
		{"http://capture1.local:8741/", "capture1.local", 8741, false},
		{"[fe80::1]:8740", "fe80::1", 8740, false},
		{"", "", 0, true},
		{"host:notaport", "", 0, true},
		{"host:70000", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			inst, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, inst.IP)
			assert.Equal(t, tt.wantPort, inst.Port)
		})
	}
}

func TestDiscoveryToDashboard(t *testing.T) {
	b, _ := newBackend()
	found := []*discovery.Instance{
		{Name: "bench", IP: "10.0.0.5", Port: 8740, Device: "/dev/video0", Version: "1.0.0"},
	}

	var connected *discovery.Instance
	app := NewDiscoveryApp(
		func(context.Context) ([]*discovery.Instance, error) { return found, nil },
		func(inst *discovery.Instance) (backend.Backend, string) {
			connected = inst
			return b, inst.BaseURL()
		},
	)
	require.True(t, app.DiscoveryModel.Scanning)

	next, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	app = next.(AppModel)

	msg := app.DiscoveryModel.startScan()()
	next, _ = app.Update(msg)
	app = next.(AppModel)
	assert.False(t, app.DiscoveryModel.Scanning)
	assert.Len(t, app.DiscoveryModel.InstanceList.Items(), 1)
	assert.Contains(t, app.View(), "bench")

	next, _ = app.Update(keyPress("enter"))
	app = next.(AppModel)
	assert.Equal(t, ScreenDashboard, app.CurrentScreen)
	require.NotNil(t, connected)
	assert.Equal(t, "bench", connected.Name)
	assert.True(t, strings.HasPrefix(app.DashboardModel.Target, "http://10.0.0.5"))
}

func TestDiscoveryManualAddress(t *testing.T) {
	m := NewDiscoveryModel(nil)
	next, _ := m.Update(scanDoneMsg{})
	m = next.(DiscoveryModel)
	assert.Contains(t, m.View(), "No daemons found")

	next, _ = m.Update(keyPress("m"))
	m = next.(DiscoveryModel)
	require.True(t, m.ManualMode)

	m.AddressInput.SetValue("capture2.local:8750")
	next, _ = m.Update(keyPress("enter"))
	m = next.(DiscoveryModel)
	assert.False(t, m.ManualMode)
	require.NotNil(t, m.Selected)
	assert.Equal(t, 8750, m.Selected.Port)
}
