package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the banner printed before a command talks to a daemon.
type Header struct {
	Title   string            // e.g., "RESTORE DEFAULTS"
	Command string            // e.g., "v4lctl-cfg defaults"
	Params  map[string]string // e.g., {"Server": "http://capture1.local:8740"}
	Width   int
}

// NewHeader creates a new header sized to the terminal
func NewHeader(title, command string, params map[string]string) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the width for rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := max(h.Width, MinTerminalWidth)

	top := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(strings.ToUpper(h.Title)),
		dimStyle.PaddingLeft(2).Render(h.Command),
	)
	if len(h.Params) == 0 {
		return boxStyle(width, AccentColor, false).Render(top)
	}

	params := renderPairs(h.Params, dimStyle.PaddingLeft(2), fgStyle, "")
	return boxStyle(width, AccentColor, false).Render(
		lipgloss.JoinVertical(lipgloss.Left, top, divider(width-6), params))
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}

// renderPairs renders "key: value" lines in key order.
func renderPairs(pairs map[string]string, keyStyle, valueStyle lipgloss.Style, indent string) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, keyStyle.Render(indent+k+":")+" "+valueStyle.Render(pairs[k]))
	}
	return strings.Join(lines, "\n")
}
