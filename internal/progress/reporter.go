package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/yourusername/mediaget-go/internal/domain"
)

// State is the state of a Reporter
type State int

const (
	StateNotStarted State = iota
	StateActive
	StateDone
	StateFailed
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateActive:
		return "active"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// UpdateInterval is the minimum time between two printed progress lines
const UpdateInterval = 500 * time.Millisecond

var frames = [...]string{"=---", "-=--", "--=-", "---="}

// Header describes the file being transferred
type Header struct {
	FileName      string
	ContentLength int64 // 0 means unknown
	ContentType   string
	InitialOffset int64
	Mode          domain.TransferMode
}

// Reporter renders the file header and a single, periodically rewritten
// progress line for one transfer. It is not safe for concurrent use.
type Reporter struct {
	out   io.Writer
	now   func() time.Time
	width WidthFunc

	state   State
	total   int64
	initial int64
	count   int64

	started    time.Time
	lastUpdate time.Duration
	frame      int
}

// Option configures a Reporter
type Option func(*Reporter)

// WithWriter sets the output stream, stderr by default
func WithWriter(w io.Writer) Option {
	return func(r *Reporter) { r.out = w }
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// WithWidth sets the terminal width source
func WithWidth(width WidthFunc) Option {
	return func(r *Reporter) { r.width = width }
}

// NewReporter creates a reporter. The transfer clock starts now.
func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{
		out:   os.Stderr,
		now:   time.Now,
		width: func() int { return DefaultWidth },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.started = r.now()
	return r
}

// State returns the current state
func (r *Reporter) State() State {
	return r.state
}

// Start prints the header. Skip modes freeze the reporter, any other mode
// makes it active.
func (r *Reporter) Start(h Header) {
	if r.state != StateNotStarted {
		return
	}

	r.total = h.ContentLength
	r.initial = h.InitialOffset

	length, unit := ToUnit(float64(h.ContentLength))

	var b strings.Builder
	fmt.Fprintf(&b, "file: %s  [media]\n", h.FileName)
	fmt.Fprintf(&b, "  content length: %.1f%s", length, unit)
	if h.ContentType != "" {
		fmt.Fprintf(&b, "  content type: %s", h.ContentType)
	}
	b.WriteString("  mode: ")

	switch h.Mode {
	case domain.ModeRetrievedAlready:
		b.WriteString("skip <retrieved already>")
		r.state = StateSkipped
	case domain.ModeForcedSkip:
		b.WriteString("skip <forced>")
		r.state = StateSkipped
	default:
		if h.InitialOffset == 0 {
			b.WriteString("write")
		} else {
			b.WriteString("resume")
		}
		r.state = StateActive
	}
	b.WriteString("\n")

	io.WriteString(r.out, b.String())
}

// Update reports the number of bytes transferred so far, not counting the
// initial offset. Lines are printed at most once per UpdateInterval.
func (r *Reporter) Update(transferred int64) {
	if r.state != StateActive || transferred <= 0 {
		return
	}
	r.count = transferred

	elapsed := r.now().Sub(r.started)
	if elapsed-r.lastUpdate < UpdateInterval {
		return
	}
	r.print(elapsed)
}

// Finish prints the final line unless the transfer failed or was skipped
func (r *Reporter) Finish() {
	if r.state != StateActive {
		return
	}
	if r.total > 0 && r.count+r.initial > r.total {
		r.total = r.initial + r.count
	}
	r.state = StateDone
	r.print(r.now().Sub(r.started))
}

// Fail freezes the progress line
func (r *Reporter) Fail() {
	if r.state == StateDone || r.state == StateSkipped {
		return
	}
	r.state = StateFailed
}

// Percent returns the completed percentage of a byte count, capped at 100.
// The boolean is false when the total is unknown.
func (r *Reporter) Percent(transferred int64) (float64, bool) {
	if r.total <= 0 {
		return 0, false
	}
	percent := 100 * float64(transferred+r.initial) / float64(r.total)
	if percent > 100 {
		percent = 100
	}
	return percent, true
}

func (r *Reporter) print(elapsed time.Duration) {
	done := r.state == StateDone
	seconds := elapsed.Seconds()

	pct := " --%"
	rate := "  --.-"
	eta := "--:--"

	if r.total > 0 {
		transferred := r.count
		if done {
			transferred = r.total - r.initial
		}
		percent, _ := r.Percent(transferred)
		pct = fmt.Sprintf("%3.0f%%", percent)

		var bytesPerSec float64
		if seconds > 0 {
			bytesPerSec = float64(transferred) / seconds
		}

		switch {
		case done:
			eta = FormatETA(int64(seconds))
		case bytesPerSec > 0:
			left := float64(r.total-(transferred+r.initial)) / bytesPerSec
			eta = FormatETA(int64(left + .5))
		}

		value, unit := ToUnit(bytesPerSec)
		rate = fmt.Sprintf("%6.1f%s", value, unit)
	}

	line := fmt.Sprintf("copy: %s  %s  %s/s  %4s", frames[r.frame], pct, rate, eta)
	r.frame = (r.frame + 1) % len(frames)

	if pad := r.width() - len(line) - 1; pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	if done {
		line += "\n"
	} else {
		line += "\r"
	}

	io.WriteString(r.out, line)
	r.lastUpdate = elapsed
}
