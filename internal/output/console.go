// Package output provides terminal output utilities for gicowa.
//
// This package includes:
//   - Console, the line-oriented output boundary of every command, which
//     keeps a transcript of what it printed so the report can be mailed
//   - ANSI colouring of repository names, dates and committer names
//   - A progress bar for long fetches, drawn only on terminals
//   - Table rendering for the run history
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ANSI color codes used in reports
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Console prints report lines and remembers everything it printed.
type Console struct {
	w       io.Writer
	colored bool
	echoed  strings.Builder
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer, colored bool) *Console {
	return &Console{w: w, colored: colored}
}

// Echo prints text followed by a newline and appends it to the transcript.
func (c *Console) Echo(text string) {
	fmt.Fprintln(c.w, text)
	c.echoed.WriteString(text)
	c.echoed.WriteString("\n")
}

// Echoed returns the whole transcript.
func (c *Console) Echoed() string {
	return c.echoed.String()
}

// LineCount returns the number of lines echoed so far.
func (c *Console) LineCount() int {
	return strings.Count(c.echoed.String(), "\n")
}

// Colored reports whether colour codes are emitted.
func (c *Console) Colored() bool {
	return c.colored
}

func (c *Console) Red(text string) string   { return c.paint(text, colorRed) }
func (c *Console) Green(text string) string { return c.paint(text, colorGreen) }
func (c *Console) Blue(text string) string  { return c.paint(text, colorBlue) }

func (c *Console) paint(text, color string) string {
	if !c.colored {
		return text
	}
	return color + text + colorReset
}
