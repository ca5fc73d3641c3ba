package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Banner printed at the start of a grab run
const Banner = `
  ╔═══════════════════════════════════════╗
  ║  imgrab · imgur album & image grabber ║
  ╚═══════════════════════════════════════╝
`

var (
	accentCyan   = lipgloss.Color("#00FFFF")
	accentYellow = lipgloss.Color("#FFFF00")
	accentGreen  = lipgloss.Color("#39FF14")
	accentOrange = lipgloss.Color("#FF6700")
	accentRed    = lipgloss.Color("#FF0000")
	dimGray      = lipgloss.Color("#808080")

	bannerStyle  = lipgloss.NewStyle().Foreground(accentCyan).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(accentCyan).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(accentYellow)
	successStyle = lipgloss.NewStyle().Foreground(accentGreen).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(accentOrange).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(accentRed).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(dimGray)
)

// Printer writes styled, human-facing output. Styling is dropped when the
// writer is not a terminal or color is disabled; quiet suppresses everything
// except errors.
type Printer struct {
	out   io.Writer
	color bool
	quiet bool
}

// NewPrinter creates a printer for w
func NewPrinter(w io.Writer, quiet, noColor bool) *Printer {
	return &Printer{
		out:   w,
		color: !noColor && IsTerminal(w),
		quiet: quiet,
	}
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Interactive reports whether live progress output makes sense
func (p *Printer) Interactive() bool {
	return !p.quiet && IsTerminal(p.out)
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

// Banner prints the application banner
func (p *Printer) Banner() {
	if p.quiet {
		return
	}
	fmt.Fprint(p.out, p.render(bannerStyle, Banner))
}

// Info prints a label/value pair
func (p *Printer) Info(label, value string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s: %s\n", p.render(labelStyle, label), p.render(valueStyle, value))
}

// Success prints a success line
func (p *Printer) Success(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.render(successStyle, "✓ "+msg))
}

// Warning prints a warning line
func (p *Printer) Warning(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.render(warningStyle, "! "+msg))
}

// Error prints an error line, even in quiet mode
func (p *Printer) Error(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(p.out, p.render(errorStyle, "✗ "+msg))
}

// Dim prints a low-emphasis line
func (p *Printer) Dim(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.render(dimStyle, msg))
}
