// Package ui renders the non-interactive output of v4lctl-cfg: command
// headers, result boxes and the typed confirmation asked before a
// destructive operation.
//
// Components are plain strings built with Lipgloss, so commands print them
// with a Printer and tests inspect them directly:
//
//	p := ui.NewPrinter(cmd.OutOrStdout())
//	p.PrintHeader("Restore defaults", "v4lctl-cfg defaults", map[string]string{
//	    "Server": "http://capture1.local:8740",
//	})
//	p.PrintSuccess("Defaults applied", map[string]string{"Written": "3"})
//
// Widths follow the terminal (via golang.org/x/term) and fall back to
// MinTerminalWidth when stdout is not a terminal.
//
// Logging is controlled separately: zap output stays silent unless
// V4LCTL_LOG_LEVEL (or --log-level) asks for it, so these components are
// the only thing an operator sees by default.
package ui
