package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress draws a "[done/total] label name" line that is redrawn in place.
// It stays silent unless enabled, which NewProgress decides from whether the
// writer is a terminal. Safe for concurrent use.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	total   int
	done    int
	label   string
	frame   int
}

// NewProgress returns a progress line on w for total items.
func NewProgress(w io.Writer, total int, label string) *Progress {
	return &Progress{w: w, enabled: IsTerminal(w), total: total, label: label}
}

// NewProgressTo returns a progress line that draws regardless of terminal
// detection, or never when enabled is false.
func NewProgressTo(w io.Writer, total int, label string, enabled bool) *Progress {
	return &Progress{w: w, enabled: enabled, total: total, label: label}
}

// Increment marks one item finished and redraws with name as the detail.
func (p *Progress) Increment(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.draw(name)
}

// Done returns how many items have finished.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Finish clears the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		fmt.Fprint(p.w, "\r\033[K")
	}
}

func (p *Progress) draw(name string) {
	if !p.enabled {
		return
	}
	frame := spinnerFrames[p.frame%len(spinnerFrames)]
	p.frame++
	width := len(fmt.Sprint(p.total))
	fmt.Fprintf(p.w, "\r\033[K\033[36m%s\033[0m [%*d/%d] %s %s", frame, width, p.done, p.total, p.label, name)
}
