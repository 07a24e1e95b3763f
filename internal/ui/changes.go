package ui

import (
	"fmt"
	"strings"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/backend"
	"github.com/uavconcept/v4lctl/internal/engine"
)

// RenderChanges draws the writes of one reconcile as a result box: green
// when every write ran, orange when some did not, red when none did.
func RenderChanges(title string, changes []engine.Change, width int) string {
	if len(changes) == 0 {
		return NewResult(Success, title).
			SetWidth(width).
			AddDetail("Written", "nothing, already in sync").
			Render()
	}

	failed := 0
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		line := fmt.Sprintf("%-18s %s %s", c.Key, c.Command, c.Value)
		if c.OK {
			lines = append(lines, okStyle.Render("   "+SuccessMarker+" "+line))
		} else {
			failed++
			lines = append(lines, failStyle.Render("   "+FailureMarker+" "+line))
		}
	}

	outcome := Success
	switch {
	case failed == len(changes):
		outcome = Failure
	case failed > 0:
		outcome = Warning
	}

	r := NewResult(outcome, title).SetWidth(width)
	r.AddDetail("Written", fmt.Sprintf("%d", len(changes)-failed))
	if failed > 0 {
		r.AddDetail("Failed", fmt.Sprintf("%d", failed))
	}

	return r.Render() + "\n" + strings.Join(lines, "\n")
}

// RenderDiff lists what a reconcile changed, old value dimmed.
func RenderDiff(old, next attr.Revision) string {
	if old.Schema() != next.Schema() || old.IsZero() {
		return dimStyle.Render(strings.TrimSpace(backend.FormatDiff(old, next)))
	}

	idx := old.Diff(next)
	if len(idx) == 0 {
		return dimStyle.Render("  (no differences detected)")
	}

	lines := make([]string, 0, len(idx))
	for _, i := range idx {
		a := old.Schema().Attribute(i)
		lines = append(lines, fmt.Sprintf("  %s %s %s %s",
			fgStyle.Render(a.Key+":"),
			dimStyle.Render(backend.DisplayValue(a, old.At(i))),
			dimStyle.Render("→"),
			warnStyle.Render(backend.DisplayValue(a, next.At(i))),
		))
	}
	return strings.Join(lines, "\n")
}
