package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar displays a progress bar with percentage and description.
// Example: [=========>          ] 45% mySubscription2
//
// Nothing is drawn unless the writer is a terminal, so reports produced by
// cron jobs stay free of progress noise.
type ProgressBar struct {
	total       int
	current     int
	description string
	width       int
	mu          sync.Mutex
	writer      io.Writer
	force       bool
}

// NewProgress creates a new progress bar writing to w.
func NewProgress(w io.Writer, total int, description string) *ProgressBar {
	return &ProgressBar{
		total:       total,
		description: description,
		width:       30,
		writer:      w,
	}
}

// SetWidth sets the width of the progress bar in characters.
func (p *ProgressBar) SetWidth(width int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = width
}

// ForceRender draws even when the writer is not a terminal (useful for testing).
func (p *ProgressBar) ForceRender() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.force = true
}

// Increment advances the bar by one and updates the description.
func (p *ProgressBar) Increment(description string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	if p.current > p.total {
		p.current = p.total
	}
	p.description = description

	p.render()
}

// Finish clears the bar from the terminal line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.visible() {
		return
	}
	fmt.Fprintf(p.writer, "\r%s\r", strings.Repeat(" ", p.width+8+len(p.description)))
}

func (p *ProgressBar) visible() bool {
	return p.force || writerIsTTY(p.writer)
}

// render draws the progress bar (must be called with lock held).
func (p *ProgressBar) render() {
	if !p.visible() {
		return
	}

	percentage := 0
	filled := 0
	if p.total > 0 {
		percentage = (p.current * 100) / p.total
		filled = (p.current * p.width) / p.total
	}

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < p.width; i++ {
		switch {
		case i < filled-1:
			bar.WriteString("=")
		case i == filled-1:
			bar.WriteString(">")
		default:
			bar.WriteString(" ")
		}
	}
	bar.WriteString("]")

	fmt.Fprintf(p.writer, "\r%s %3d%% %s", bar.String(), percentage, p.description)
}
