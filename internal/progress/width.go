package progress

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// DefaultWidth is used when the terminal size cannot be queried
const DefaultWidth = 80

// WidthFunc returns the current terminal width in columns
type WidthFunc func() int

// TermWidth tracks the width of the terminal attached to a file
// descriptor. The width is queried once and again after every resize.
type TermWidth struct {
	fd    int
	width int
	stale atomic.Bool
	stop  func()
}

// NewTermWidth creates a width tracker for the error stream and starts
// watching for terminal resizes
func NewTermWidth() *TermWidth {
	w := &TermWidth{fd: int(os.Stderr.Fd())}
	w.stale.Store(true)
	w.stop = watchResize(&w.stale)
	return w
}

// Width returns the terminal width, re-querying it after a resize
func (w *TermWidth) Width() int {
	if w.width == 0 || w.stale.Swap(false) {
		width, _, err := term.GetSize(w.fd)
		if err != nil || width <= 0 {
			width = DefaultWidth
		}
		w.width = width
	}
	return w.width
}

// Close stops watching for resizes
func (w *TermWidth) Close() {
	if w.stop != nil {
		w.stop()
		w.stop = nil
	}
}
