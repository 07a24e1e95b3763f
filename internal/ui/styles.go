package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette. The accent matches the dashboard so both front ends look alike.
var (
	AccentColor = lipgloss.Color("#5FAFD7") // borders, headers
	OKColor     = lipgloss.Color("#43BF6D") // written, reachable
	FailColor   = lipgloss.Color("#FF5555") // write did not run, errors
	StagedColor = lipgloss.Color("#FFA500") // partial outcomes, confirmations
	DimColor    = lipgloss.Color("#626262") // labels, secondary text
	FgColor     = lipgloss.Color("#EEEEEE")
)

// Width bounds for boxes
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(FgColor).Bold(true).PaddingLeft(2)
	dimStyle   = lipgloss.NewStyle().Foreground(DimColor)
	fgStyle    = lipgloss.NewStyle().Foreground(FgColor)

	// pairKeyStyle pads detail keys so values line up
	pairKeyStyle = lipgloss.NewStyle().Foreground(DimColor).Width(14)

	okStyle   = lipgloss.NewStyle().Foreground(OKColor)
	failStyle = lipgloss.NewStyle().Foreground(FailColor)
	warnStyle = lipgloss.NewStyle().Foreground(StagedColor)
)

// Result markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	WarningMarker = "⚠"
)

// GetTerminalWidth returns the width of stdout clamped to
// [MinTerminalWidth, MaxContentWidth], or MinTerminalWidth when stdout is
// not a terminal.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return clampWidth(width)
}

func clampWidth(width int) int {
	return min(max(width, MinTerminalWidth), MaxContentWidth)
}

// boxStyle is the frame around every component: rounded for headers,
// double for results.
func boxStyle(width int, color lipgloss.Color, double bool) lipgloss.Style {
	border := lipgloss.RoundedBorder()
	if double {
		border = lipgloss.DoubleBorder()
	}
	s := lipgloss.NewStyle().
		Border(border).
		BorderForeground(color).
		Width(width - 2)
	if double {
		s = s.Padding(0, 2)
	}
	return s
}

// banner is the first line of a result box, e.g. "✓  SUCCESS  ─  Write issued".
func banner(marker, label, title string, style lipgloss.Style) string {
	return style.Bold(true).Render("   " + marker + "  " + label + "  ─  " + title)
}

func divider(width int) string {
	return lipgloss.NewStyle().Foreground(AccentColor).Render(strings.Repeat("─", max(width, 10)))
}
