// Package console renders the human-readable suite report.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color modes accepted by NewPrinter.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// RuleWidth is the width of the "=" rules framing headers.
const RuleWidth = 60

// ANSI palette indices (bright variants).
var (
	colorBlue   = lipgloss.Color("12")
	colorGreen  = lipgloss.Color("10")
	colorRed    = lipgloss.Color("9")
	colorYellow = lipgloss.Color("11")
)

// Printer writes colorized report lines to an output stream.
type Printer struct {
	w io.Writer

	header  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	info    lipgloss.Style
}

// NewPrinter creates a printer for w. mode is one of ColorAuto, ColorAlways
// or ColorNever; anything else behaves like ColorAuto.
func NewPrinter(w io.Writer, mode string) *Printer {
	renderer := lipgloss.NewRenderer(w)
	switch strings.ToLower(mode) {
	case ColorAlways:
		renderer.SetColorProfile(termenv.ANSI)
	case ColorNever:
		renderer.SetColorProfile(termenv.Ascii)
	}

	return &Printer{
		w:       w,
		header:  renderer.NewStyle().Foreground(colorBlue),
		success: renderer.NewStyle().Foreground(colorGreen),
		failure: renderer.NewStyle().Foreground(colorRed),
		info:    renderer.NewStyle().Foreground(colorYellow),
	}
}

// Banner prints a framed title, used to open and close a run.
func (p *Printer) Banner(title string) {
	p.blank()
	p.framed(p.header, title)
	p.blank()
}

// Test prints the header that introduces a scenario.
func (p *Printer) Test(name string) {
	p.blank()
	p.framed(p.header, "TEST: "+name)
}

// Section prints an uncolored group heading.
func (p *Printer) Section(title string) {
	p.blank()
	rule := strings.Repeat("=", RuleWidth)
	p.line(rule)
	p.line(title)
	p.line(rule)
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.success.Render("✓ " + fmt.Sprintf(format, args...)))
}

// Failure prints a red cross line.
func (p *Printer) Failure(format string, args ...any) {
	p.line(p.failure.Render("✗ " + fmt.Sprintf(format, args...)))
}

// Info prints a yellow arrow line.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.info.Render("→ " + fmt.Sprintf(format, args...)))
}

// Detail prints an indented "Label: value" line.
func (p *Printer) Detail(label string, value any) {
	p.line(fmt.Sprintf("  %s: %v", label, value))
}

// Plain prints an unstyled line.
func (p *Printer) Plain(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// Rule prints a horizontal rule made of ch.
func (p *Printer) Rule(ch string) {
	p.line(strings.Repeat(ch, RuleWidth))
}

// framed renders line by line: lipgloss pads multi-line blocks to equal width.
func (p *Printer) framed(style lipgloss.Style, title string) {
	rule := strings.Repeat("=", RuleWidth)
	p.line(style.Render(rule))
	p.line(style.Render(title))
	p.line(style.Render(rule))
}

func (p *Printer) blank() {
	fmt.Fprintln(p.w)
}

func (p *Printer) line(s string) {
	fmt.Fprintln(p.w, s)
}
