package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ConfirmPhrase is what the operator types to confirm a destructive operation.
const ConfirmPhrase = "yes"

// Confirm prints a warning box to out and reads one line from in. It returns
// true only when the line is ConfirmPhrase.
func Confirm(in io.Reader, out io.Writer, width int, title string, warnings []string) bool {
	width = max(width, MinTerminalWidth)

	lines := []string{"", banner(WarningMarker, "WARNING", title, warnStyle), ""}
	for _, warning := range warnings {
		lines = append(lines, fgStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	_, _ = fmt.Fprintln(out, boxStyle(width, StagedColor, true).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, warnStyle.Bold(true).Render(fmt.Sprintf("To proceed, type %q and press Enter: ", ConfirmPhrase)))

	input, _ := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)

	if strings.TrimSpace(input) == ConfirmPhrase {
		return true
	}

	_, _ = fmt.Fprintln(out, dimStyle.Render("  Operation cancelled."))
	return false
}

// ConfirmDefaults asks before every attribute is reset to its default.
func ConfirmDefaults(in io.Reader, out io.Writer, server string) bool {
	return Confirm(in, out, GetTerminalWidth(), "RESTORE DEFAULTS", []string{
		"Every attribute of the card on " + server + " will be written",
		"Values changed by other clients since the last read are overwritten",
		"The daemon records the defaults in its snapshot",
	})
}
