package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/backend"
	"github.com/uavconcept/v4lctl/internal/engine"
)

// percentStep is how far ←/→ moves a percent attribute.
const percentStep = 5

// operationTimeout bounds a single backend call made by the dashboard.
const operationTimeout = 30 * time.Second

// Message types for async operations
type loadCompleteMsg struct {
	schema *attr.Schema
	rev    attr.Revision
	err    error
}

type applyCompleteMsg struct {
	rev     attr.Revision
	changes []engine.Change
	err     error
}

// RevisionMsg delivers a revision pushed by the daemon (e.g. from
// client.Watch) to a running dashboard.
type RevisionMsg struct {
	Config attr.Document
}

type dashboardKeyMap struct {
	Up, Down, Left, Right, Edit   key.Binding
	Apply, Undo, Defaults, Reload key.Binding
	Help, Quit                    key.Binding
}

func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Edit, k.Apply, k.Defaults, k.Help, k.Quit}
}

func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Edit},
		{k.Apply, k.Undo, k.Defaults, k.Reload},
		{k.Help, k.Quit},
	}
}

// editKeyMap replaces the help line while a value is typed.
type editKeyMap struct{ Confirm, Cancel key.Binding }

func (k editKeyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Confirm, k.Cancel} }
func (k editKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// DashboardModel shows every attribute of one card and lets the operator
// stage edits locally before applying them in one reconcile.
type DashboardModel struct {
	Backend backend.Backend
	Target  string // what the header shows, e.g. "http://capture1.local:8740"

	// Configuration state
	Schema  *attr.Schema
	Current attr.Revision // last revision reported by the backend
	Pending attr.Revision // Current plus staged edits

	// UI state
	Width  int
	Height int
	Cursor int

	Loading            bool
	Applying           bool
	Editing            bool
	ConfirmingDefaults bool
	Input              textinput.Model
	Spinner            spinner.Model

	LastChanges []engine.Change
	LastApplied time.Time
	Err         error

	Help     help.Model
	Keys     dashboardKeyMap
	EditKeys editKeyMap
}

// NewDashboardModel creates a dashboard over b. Init loads the schema and
// the current revision.
func NewDashboardModel(b backend.Backend, target string) DashboardModel {
	input := textinput.New()
	input.CharLimit = 32
	input.Width = 20

	return DashboardModel{
		Backend: b,
		Target:  target,
		Loading: true,
		Input:   input,
		Spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		Help:    help.New(),
		Keys: dashboardKeyMap{
			Up:       bind("↑/k", "up", "up", "k"),
			Down:     bind("↓/j", "down", "down", "j"),
			Left:     bind("←/h", "decrease", "left", "h"),
			Right:    bind("→/l", "increase", "right", "l", " "),
			Edit:     bind("enter", "type value", "enter", "e"),
			Apply:    bind("a", "apply", "a"),
			Undo:     bind("u", "discard edits", "u"),
			Defaults: bind("d", "defaults", "d"),
			Reload:   bind("r", "reload", "r"),
			Help:     bind("?", "more", "?"),
			Quit:     bind("q", "quit", "q", "ctrl+c"),
		},
		EditKeys: editKeyMap{
			Confirm: bind("enter", "stage", "enter"),
			Cancel:  bind("esc", "cancel", "esc"),
		},
	}
}

// Init loads the schema and current revision
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.Backend), m.Spinner.Tick)
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.Loading && !m.Applying {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case loadCompleteMsg:
		m.Loading = false
		m.Err = msg.err
		if msg.err == nil {
			m.Schema = msg.schema
			m.Current = msg.rev
			m.Pending = msg.rev
			m.Cursor = min(m.Cursor, m.Schema.Len()-1)
		}
		return m, nil

	case applyCompleteMsg:
		m.Applying = false
		m.Err = msg.err
		if msg.err == nil {
			m.Current = msg.rev
			m.Pending = msg.rev
			m.LastChanges = msg.changes
			m.LastApplied = time.Now()
		}
		return m, nil

	case RevisionMsg:
		return m.adoptPushed(msg), nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.ConfirmingDefaults:
			return m.updateConfirmDefaults(msg)
		case m.Editing:
			return m.updateEditing(msg)
		case m.Loading || m.Applying:
			// Block input while a backend call is in flight
			return m, nil
		}
		return m.updateNormalMode(msg)
	}

	if m.Editing {
		var cmd tea.Cmd
		m.Input, cmd = m.Input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateNormalMode handles navigation and staging keys
func (m DashboardModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll

	case key.Matches(msg, m.Keys.Reload):
		m.Loading = true
		m.Err = nil
		return m, tea.Batch(loadCmd(m.Backend), m.Spinner.Tick)
	}

	if m.Schema == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.Keys.Up):
		m.Cursor--
		if m.Cursor < 0 {
			m.Cursor = m.Schema.Len() - 1
		}

	case key.Matches(msg, m.Keys.Down):
		m.Cursor++
		if m.Cursor >= m.Schema.Len() {
			m.Cursor = 0
		}

	case key.Matches(msg, m.Keys.Left):
		m.stage(-1)

	case key.Matches(msg, m.Keys.Right):
		m.stage(+1)

	case key.Matches(msg, m.Keys.Edit):
		a := m.Schema.Attribute(m.Cursor)
		if a.Kind == attr.KindBool {
			m.stage(+1)
			break
		}
		m.Editing = true
		m.Err = nil
		m.Input.SetValue(m.Pending.At(m.Cursor).String())
		m.Input.Placeholder = inputHint(a)
		m.Input.CursorEnd()
		return m, m.Input.Focus()

	case key.Matches(msg, m.Keys.Undo):
		m.Pending = m.Current
		m.Err = nil

	case key.Matches(msg, m.Keys.Apply):
		doc := m.PendingDocument()
		if len(doc) == 0 {
			return m, nil
		}
		m.Applying = true
		m.Err = nil
		return m, tea.Batch(applyCmd(m.Backend, doc), m.Spinner.Tick)

	case key.Matches(msg, m.Keys.Defaults):
		m.ConfirmingDefaults = true
	}

	return m, nil
}

// updateEditing handles the typed value editor
func (m DashboardModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.EditKeys.Cancel):
		m.Editing = false
		m.Input.Blur()
		return m, nil

	case key.Matches(msg, m.EditKeys.Confirm):
		a := m.Schema.Attribute(m.Cursor)
		v, err := a.Parse(strings.TrimSpace(m.Input.Value()))
		if err != nil {
			m.Err = err
			return m, nil
		}
		next, err := m.Pending.With(a.Key, v)
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.Pending = next
		m.Editing = false
		m.Err = nil
		m.Input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

// updateConfirmDefaults waits for y to reset every attribute
func (m DashboardModel) updateConfirmDefaults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.ConfirmingDefaults = false
	if msg.String() != "y" {
		return m, nil
	}
	m.Applying = true
	m.Err = nil
	return m, tea.Batch(defaultsCmd(m.Backend), m.Spinner.Tick)
}

// stage moves the focused attribute one step in direction dir (-1 or +1).
func (m *DashboardModel) stage(dir int) {
	a := m.Schema.Attribute(m.Cursor)
	next, err := m.Pending.With(a.Key, Step(a, m.Pending.At(m.Cursor), dir))
	if err != nil {
		m.Err = err
		return
	}
	m.Pending = next
	m.Err = nil
}

// adoptPushed takes a revision pushed by the daemon. Staged edits survive
// unless the push already contains them.
func (m DashboardModel) adoptPushed(msg RevisionMsg) DashboardModel {
	if m.Schema == nil {
		return m
	}
	rev, err := m.Schema.Defaults().Merge(msg.Config)
	if err != nil {
		m.Err = err
		return m
	}

	edits := m.PendingDocument()
	m.Current = rev
	if next, err := rev.Merge(edits); err == nil {
		m.Pending = next
	} else {
		m.Pending = rev
	}
	return m
}

// PendingDocument returns the staged edits as a partial document.
func (m DashboardModel) PendingDocument() attr.Document {
	doc := attr.Document{}
	if m.Schema == nil {
		return doc
	}
	for _, i := range m.Current.Diff(m.Pending) {
		doc[m.Schema.Attribute(i).Key] = m.Pending.At(i).String()
	}
	return doc
}

// HasPendingEdits reports whether any attribute is staged
func (m DashboardModel) HasPendingEdits() bool {
	return m.Schema != nil && len(m.Current.Diff(m.Pending)) > 0
}

// Step returns v moved one step in direction dir: choices cycle, bools
// toggle, ints move by one and percents by five within their bounds.
func Step(a attr.Attribute, v attr.Value, dir int) attr.Value {
	switch a.Kind {
	case attr.KindBool:
		return attr.BoolValue(!v.Bool())

	case attr.KindChoice:
		if len(a.Options) == 0 {
			return v
		}
		i := slices.Index(a.Options, v.Choice())
		if i < 0 {
			return attr.ChoiceValue(a.Options[0])
		}
		n := len(a.Options)
		return attr.ChoiceValue(a.Options[((i+dir)%n+n)%n])

	case attr.KindInt:
		n := max(v.Int()+dir, 0)
		if a.Limit > 0 {
			n = min(n, a.Limit)
		}
		return attr.IntValue(n)

	case attr.KindPercent:
		return attr.PercentValue(v.Int() + dir*percentStep)
	}
	return v
}

func inputHint(a attr.Attribute) string {
	switch a.Kind {
	case attr.KindPercent:
		return "0-100"
	case attr.KindInt:
		if a.Limit > 0 {
			return fmt.Sprintf("0-%d", a.Limit)
		}
		return "integer"
	case attr.KindChoice:
		return strings.Join(a.Options, ", ")
	}
	return ""
}

func loadCmd(b backend.Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()

		schema, err := b.Schema(ctx)
		if err != nil {
			return loadCompleteMsg{err: fmt.Errorf("loading schema: %w", err)}
		}
		rev, err := b.Current(ctx)
		if err != nil {
			return loadCompleteMsg{err: fmt.Errorf("loading configuration: %w", err)}
		}
		return loadCompleteMsg{schema: schema, rev: rev}
	}
}

func applyCmd(b backend.Backend, doc attr.Document) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()

		rev, changes, err := b.Apply(ctx, doc)
		if err != nil {
			return applyCompleteMsg{err: fmt.Errorf("apply failed: %w", err)}
		}
		return applyCompleteMsg{rev: rev, changes: changes}
	}
}

func defaultsCmd(b backend.Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()

		rev, changes, err := b.Defaults(ctx)
		if err != nil {
			return applyCompleteMsg{err: fmt.Errorf("restoring defaults failed: %w", err)}
		}
		return applyCompleteMsg{rev: rev, changes: changes}
	}
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.ConfirmingDefaults {
		return overlay(m.renderConfirmDefaults(), m.Width, m.Height)
	}

	helpText := m.Help.View(m.Keys)
	if m.Editing {
		helpText = m.Help.View(m.EditKeys)
	}
	return frame(m.renderContent(), m.Target, helpText, m.Width, m.Height)
}

func (m DashboardModel) renderContent() string {
	if m.Schema == nil {
		if m.Loading {
			return SpinnerStyle.Render(m.Spinner.View() + " Reading attributes...")
		}
		if m.Err != nil {
			return errorBox(m.Err.Error())
		}
		return ""
	}

	sections := []string{m.renderStatusLine(), ""}
	sections = append(sections, m.renderAttributes()...)

	if m.Editing {
		a := m.Schema.Attribute(m.Cursor)
		sections = append(sections, "", fmt.Sprintf("  %s: %s", a.Name, m.Input.View()))
	}

	if m.Err != nil {
		sections = append(sections, "", errorBox(m.Err.Error()))
	}

	if len(m.LastChanges) > 0 {
		sections = append(sections, "", m.renderChanges())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderStatusLine() string {
	line := lipgloss.NewStyle().Foreground(TextColor).Render(backend.Summary(m.Current))

	switch {
	case m.Applying:
		return line + "  " + SpinnerStyle.Render(m.Spinner.View()+" applying...")
	case m.HasPendingEdits():
		return line + "  " + ModifiedStyle.Render(fmt.Sprintf("⚠ %d staged", len(m.PendingDocument())))
	case !m.LastApplied.IsZero():
		return line + "  " + OKChangeStyle.Render("✓ applied "+m.LastApplied.Format(time.TimeOnly))
	}
	return line
}

func (m DashboardModel) renderAttributes() []string {
	width := 0
	for _, a := range m.Schema.Attributes() {
		width = max(width, len(a.Name))
	}

	labelStyle := lipgloss.NewStyle().Width(width + 2).Foreground(SubtleColor)
	kindStyle := lipgloss.NewStyle().Width(9).Foreground(SubtleColor)

	lines := make([]string, 0, m.Schema.Len())
	for i, a := range m.Schema.Attributes() {
		selected := i == m.Cursor
		value := backend.DisplayValue(a, m.Pending.At(i))

		label, valueStyle := labelStyle, lipgloss.NewStyle()
		arrow := "  "
		if selected {
			arrow = "→ "
			label = label.Foreground(HighlightColor).Bold(true)
			valueStyle = valueStyle.Foreground(HighlightColor).Bold(true)
		}

		marker := ""
		if !m.Pending.At(i).Equal(m.Current.At(i)) {
			marker = ModifiedStyle.Render(" ● was " + backend.DisplayValue(a, m.Current.At(i)))
		}

		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
			arrow,
			label.Render(a.Name),
			kindStyle.Render(a.Kind.String()),
			valueStyle.Render(value),
			marker,
		))
	}
	return lines
}

func (m DashboardModel) renderChanges() string {
	lines := []string{subtitle("Last reconcile")}
	for _, c := range m.LastChanges {
		if c.OK {
			lines = append(lines, OKChangeStyle.Render(fmt.Sprintf("  ✓ %s %s", c.Command, c.Value)))
		} else {
			lines = append(lines, FailedChangeStyle.Render(fmt.Sprintf("  ✗ %s %s", c.Command, c.Value)))
		}
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderConfirmDefaults() string {
	title := lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ RESTORE DEFAULTS")
	body := lipgloss.NewStyle().Foreground(TextColor).Render(
		"Every attribute that differs from its default\nwill be written to the card.")
	prompt := lipgloss.NewStyle().Foreground(SubtleColor).Render("y to confirm, any other key to cancel")
	return ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", prompt))
}
