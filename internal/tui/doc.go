// Package tui implements the full-screen attribute dashboard of v4lctl-cfg.
//
// Built on Bubble Tea, it follows the Model-Update-View pattern with two
// screens:
//   - Discovery: browse the network for v4lctld instances over mDNS, or
//     type an address
//   - Dashboard: every attribute of the card, edited in place and applied
//     in one reconcile
//
// The dashboard talks to a backend.Backend, so the same screen drives a
// remote daemon through the HTTP client or an in-process engine.
//
// # Editing
//
// Edits are staged locally and only written when applied:
//   - ←/→ cycle choices, toggle booleans, and step integers by one and
//     percentages by five, within the attribute's bounds
//   - enter opens a text field for typing a value, validated with the
//     attribute's own parser
//   - a applies the staged edits, u discards them, d restores defaults
//     after a confirmation
//
// After each apply the writes the daemon issued are listed with their
// outcome. Revisions pushed by the daemon arrive as RevisionMsg and are
// merged without losing staged edits.
//
// # Usage Example
//
//	app := tui.NewDashboardApp(c, c.BaseURL)
//	program := tea.NewProgram(app, tea.WithAltScreen())
//	go c.Watch(ctx, func(f api.Frame) { program.Send(tui.RevisionMsg{Config: f.Config}) })
//
//	if _, err := program.Run(); err != nil {
//	    log.Fatal(err)
//	}
package tui
