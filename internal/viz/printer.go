package viz

import (
	"fmt"
	"io"
)

// Printer writes styled progress messages. A nil *Printer discards output.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Header(title string) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.w, HeaderStyle.Render(title))
}

// Step announces work about to start.
func (p *Printer) Step(format string, args ...interface{}) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.w, Subtle.Render("•")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Done(format string, args ...interface{}) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.w, StatusOK.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Warn(format string, args ...interface{}) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.w, StatusWarn.Render("!")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Metric(label string, value interface{}) {
	if p == nil {
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", MetricLabel.Render(label+":"), MetricValue.Render(fmt.Sprint(value)))
}

// Raw writes s unstyled.
func (p *Printer) Raw(s string) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.w, s)
}
