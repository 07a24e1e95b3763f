package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/uavconcept/v4lctl/internal/version"
)

// AppName heads every full-screen view.
const AppName = "V4LCTL ATTRIBUTE DASHBOARD"

// Fallback geometry until the first tea.WindowSizeMsg arrives.
const (
	fallbackWidth  = 80
	fallbackHeight = 30
)

var (
	AccentColor    = lipgloss.Color("#5FAFD7")
	HighlightColor = lipgloss.Color("#87D75F")
	WarningColor   = lipgloss.Color("#FFAF00")
	FailColor      = lipgloss.Color("#D75F5F")
	TextColor      = lipgloss.Color("#EEEEEE")
	SubtleColor    = lipgloss.Color("#767676")
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor).Padding(1, 0).MarginBottom(1)

	SelectedMenuItemStyle = lipgloss.NewStyle().Bold(true).Foreground(HighlightColor).PaddingLeft(2)

	SpinnerStyle = lipgloss.NewStyle().Foreground(AccentColor)

	ModifiedStyle     = lipgloss.NewStyle().Bold(true).Foreground(WarningColor)
	OKChangeStyle     = lipgloss.NewStyle().Foreground(HighlightColor)
	FailedChangeStyle = lipgloss.NewStyle().Foreground(FailColor)

	ModalStyle = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(WarningColor).Padding(1, 3)

	subtitleStyle = lipgloss.NewStyle().Italic(true).Foreground(SubtleColor)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(FailColor).
			Border(lipgloss.RoundedBorder()).BorderForeground(FailColor).Padding(0, 2)
)

func subtitle(text string) string { return subtitleStyle.Render(text) }

func errorBox(text string) string { return errorStyle.Render("✗ " + text) }

func geometry(width, height int) (int, int) {
	if width <= 0 {
		width = fallbackWidth
	}
	if height <= 0 {
		height = fallbackHeight
	}
	return width, height
}

func titleBar(target string) string {
	name := lipgloss.NewStyle().Bold(true).Foreground(TextColor).Render(AppName + " v" + version.Version)
	if target == "" {
		return name
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, name, "  ", lipgloss.NewStyle().Foreground(SubtleColor).Render(target))
}

// frame draws a screen inside the bordered full-screen chrome: a title bar
// naming the target on top, the key help underneath.
func frame(content, target, help string, width, height int) string {
	width, height = geometry(width, height)
	inner := width - 4

	rule := func(b lipgloss.Border) lipgloss.Style {
		return lipgloss.NewStyle().BorderStyle(b).BorderForeground(AccentColor).Width(inner).Padding(0, 1)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		rule(lipgloss.Border{Bottom: "─"}).Render(titleBar(target)),
		lipgloss.NewStyle().Width(inner).Render(content),
		rule(lipgloss.Border{Top: "─"}).Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(help)),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(AccentColor).
		Width(width - 2).
		Height(height - 2).
		AlignVertical(lipgloss.Top).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, box)
}

// overlay centers a modal on a shaded backdrop.
func overlay(modal string, width, height int) string {
	width, height = geometry(width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")))
}
