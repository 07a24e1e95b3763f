package backend

import (
	"fmt"
	"strings"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/engine"
)

// Output formats accepted by Format.
const (
	FormatNameDetailed = "detailed"
	FormatNameCompact  = "compact"
	FormatNameJSON     = "json"
)

// Summary returns a one-line summary of a revision
func Summary(rev attr.Revision) string {
	s := rev.Schema()
	if s == nil {
		return "(no configuration)"
	}
	return fmt.Sprintf("%s: %d attributes", s.Model(), s.Len())
}

// DisplayValue renders a value the way an operator types it.
func DisplayValue(a attr.Attribute, v attr.Value) string {
	if a.Kind == attr.KindPercent {
		return v.String() + "%"
	}
	return v.String()
}

// FormatCompact returns one "key=value" pair per line in declaration order.
func FormatCompact(rev attr.Revision) string {
	var b strings.Builder

	s := rev.Schema()
	if s == nil {
		return ""
	}
	for i, a := range s.Attributes() {
		b.WriteString(fmt.Sprintf("%s=%s\n", a.Key, rev.At(i).String()))
	}

	return b.String()
}

// FormatDetailed returns an aligned table with kinds, defaults and a marker
// for values that differ from their default.
func FormatDetailed(rev attr.Revision) string {
	var b strings.Builder

	s := rev.Schema()
	if s == nil {
		return "(no configuration)\n"
	}

	b.WriteString(fmt.Sprintf("=== %s ===\n", s.Model()))

	width := 0
	for _, a := range s.Attributes() {
		width = max(width, len(a.Name))
	}

	for i, a := range s.Attributes() {
		v := rev.At(i)
		marker := " "
		if !v.Equal(s.Default(i)) {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("%s %-*s  %-8s %-12s (default %s)\n",
			marker, width, a.Name, a.Kind, DisplayValue(a, v), DisplayValue(a, s.Default(i))))
	}

	b.WriteString("\n* differs from default\n")
	return b.String()
}

// FormatChanges returns the writes issued by a reconcile.
func FormatChanges(changes []engine.Change) string {
	var b strings.Builder

	if len(changes) == 0 {
		b.WriteString("(no changes)\n")
		return b.String()
	}

	failed := 0
	for _, c := range changes {
		status := "ok"
		if !c.OK {
			status = "FAILED"
			failed++
		}
		b.WriteString(fmt.Sprintf("  %-14s %s %s  [%s]\n", c.Key, c.Command, c.Value, status))
	}

	b.WriteString(fmt.Sprintf("%d written, %d failed\n", len(changes)-failed, failed))
	return b.String()
}

// FormatDiff returns the attributes that differ between two revisions of
// the same schema.
func FormatDiff(old, next attr.Revision) string {
	var b strings.Builder

	s := old.Schema()
	if s == nil || next.Schema() != s {
		return "(revisions are not comparable)\n"
	}

	changed := old.Diff(next)
	if len(changed) == 0 {
		b.WriteString("(no differences detected)\n")
		return b.String()
	}

	for _, i := range changed {
		a := s.Attribute(i)
		b.WriteString(fmt.Sprintf("  %s: %s → %s\n", a.Key, DisplayValue(a, old.At(i)), DisplayValue(a, next.At(i))))
	}
	return b.String()
}

// ValidFormat reports whether name is an accepted output format
func ValidFormat(name string) bool {
	switch name {
	case FormatNameDetailed, FormatNameCompact, FormatNameJSON:
		return true
	}
	return false
}
