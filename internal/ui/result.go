package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Outcome selects the colour and banner of a result box
type Outcome int

const (
	Success Outcome = iota
	Failure
	Warning
)

// Result is the box printed when a command finishes.
type Result struct {
	Outcome         Outcome
	Title           string            // e.g., "Write issued"
	Details         map[string]string // shown sorted by key
	Err             error
	Troubleshooting []string
	Width           int
}

// NewResult creates a result box sized to the terminal
func NewResult(outcome Outcome, title string) *Result {
	return &Result{
		Outcome: outcome,
		Title:   title,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the width for rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail adds a key-value line
func (r *Result) AddDetail(key, value string) *Result {
	if r.Details == nil {
		r.Details = make(map[string]string)
	}
	r.Details[key] = value
	return r
}

// WithDetails merges details into the box
func (r *Result) WithDetails(details map[string]string) *Result {
	for k, v := range details {
		r.AddDetail(k, v)
	}
	return r
}

// WithError attaches the error and hints of a failure
func (r *Result) WithError(err error, troubleshooting []string) *Result {
	r.Err = err
	r.Troubleshooting = troubleshooting
	return r
}

// Render returns the styled box
func (r *Result) Render() string {
	width := max(r.Width, MinTerminalWidth)

	var (
		head  string
		color lipgloss.Color
	)
	switch r.Outcome {
	case Failure:
		head, color = banner(FailureMarker, "FAILED", r.Title, failStyle), FailColor
	case Warning:
		head, color = banner(WarningMarker, "WARNING", r.Title, warnStyle), StagedColor
	default:
		head, color = banner(SuccessMarker, "SUCCESS", r.Title, okStyle), OKColor
	}

	lines := []string{"", head, ""}
	if len(r.Details) > 0 {
		lines = append(lines, renderPairs(r.Details, pairKeyStyle, fgStyle, "   "), "")
	}
	if r.Err != nil {
		lines = append(lines, failStyle.Render("   Error: "+r.Err.Error()), "")
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, renderHints(r.Troubleshooting, width), "")
	}

	return boxStyle(width, color, true).Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// renderHints draws the indented troubleshooting box of a failure
func renderHints(hints []string, width int) string {
	lines := []string{dimStyle.Bold(true).Render("Troubleshooting:"), ""}
	for _, h := range hints {
		lines = append(lines, dimStyle.Render("  • "+h))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimColor).
		Width(max(width-12, 40)).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}
