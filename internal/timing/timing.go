// Package timing records how long each launcher startup phase takes.
package timing

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/javanstorm/vmlaunch/internal/logging"
)

// Startup phases marked by the launcher.
const (
	PhaseConfigLoad = "config_load"
	PhaseBundle     = "bundle"
	PhaseVMPrepare  = "vm_prepare"
	PhaseVMStart    = "vm_start"
)

// Timer tracks durations of named phases. A nil *Timer is valid and
// records nothing, so callers need not check whether timing is enabled.
type Timer struct {
	out    io.Writer
	start  time.Time
	last   time.Time
	phases []Phase
}

// Phase represents a timed phase with name and duration.
type Phase struct {
	Name     string
	Duration time.Duration
}

// New creates a new Timer starting from now that reports to out.
func New(out io.Writer) *Timer {
	now := time.Now()
	return &Timer{out: out, start: now, last: now}
}

// Mark records a named phase ending now, measured from the previous mark.
func (t *Timer) Mark(ctx context.Context, name string) {
	if t == nil {
		return
	}
	now := time.Now()
	d := now.Sub(t.last)
	t.last = now
	t.phases = append(t.phases, Phase{Name: name, Duration: d})
	logging.Ctx(ctx).DebugContext(ctx, "phase done", "phase", name, "duration", d)
}

// Total returns the total elapsed time since timer creation.
func (t *Timer) Total() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.start)
}

// Phases returns all recorded phases.
func (t *Timer) Phases() []Phase {
	if t == nil {
		return nil
	}
	return t.phases
}

// Report prints a timing report to the timer's writer.
func (t *Timer) Report() {
	if t == nil || t.out == nil {
		return
	}
	w := t.out
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "=== Startup Timing ===")
	for _, p := range t.phases {
		fmt.Fprintf(w, "  %-20s %s\n", p.Name+":", formatDuration(p.Duration))
	}
	fmt.Fprintf(w, "  %-20s %s\n", "TOTAL:", formatDuration(t.Total()))
	fmt.Fprintln(w, "======================")
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
