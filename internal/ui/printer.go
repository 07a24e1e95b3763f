package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/engine"
)

// Printer writes components to one output at one width.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer on w (os.Stdout when nil) sized to the
// terminal.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Width returns the width used by this printer
func (p *Printer) Width() int {
	return p.width
}

func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(NewHeader(title, command, params).SetWidth(p.width).Render())
}

// PrintSuccess prints a success box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(NewResult(Success, title).SetWidth(p.width).WithDetails(details).Render())
}

// PrintWarning prints a warning box
func (p *Printer) PrintWarning(title string, details map[string]string) {
	p.Println(NewResult(Warning, title).SetWidth(p.width).WithDetails(details).Render())
}

// PrintError prints a failure box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(NewResult(Failure, title).SetWidth(p.width).WithError(err, troubleshooting).Render())
}

// PrintChanges prints the writes of a reconcile
func (p *Printer) PrintChanges(title string, changes []engine.Change) {
	p.Println(RenderChanges(title, changes, p.width))
}

// PrintDiff prints the attributes that changed between two revisions
func (p *Printer) PrintDiff(old, next attr.Revision) {
	p.Println(RenderDiff(old, next))
}
