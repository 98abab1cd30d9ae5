package builder

import (
	"bcrgo/internal/util"
)

// Observer receives progress and diagnostic callbacks from a Builder run.
// It generalizes the teacher's package-level verbose flag (util.Log's bool
// parameter is fine for a library with one long-running phase, but BCR has
// distinct cycles and per-bucket workers worth reporting on separately) into
// an interface a caller can inject, matching the rest of the ambient stack's
// preference for explicit configuration over globals.
type Observer interface {
	// OnCycleStart is called once at the beginning of each column cycle,
	// before any bucket's next_bwt work has been dispatched.
	OnCycleStart(cycle int, maxLen int)
	// OnCycleEnd is called once after a cycle's set_bwt/next_bwt work has
	// fully completed and all six streams are consistent again.
	OnCycleEnd(cycle int, maxLen int)
	// OnBucketComplete is called once per non-sentinel bucket that had
	// rows in the current cycle, after every bucket's step for that
	// cycle has finished.
	OnBucketComplete(cycle int, symbol int)
	// Logf receives free-form diagnostic messages.
	Logf(format string, args ...any)
}

// NoopObserver discards every callback. It is the Observer used when a
// caller passes nil, so Builder never needs a nil check at the call site.
type NoopObserver struct{}

func (NoopObserver) OnCycleStart(cycle int, maxLen int)     {}
func (NoopObserver) OnCycleEnd(cycle int, maxLen int)       {}
func (NoopObserver) OnBucketComplete(cycle int, symbol int) {}
func (NoopObserver) Logf(format string, args ...any)        {}

// StdObserver reports cycle progress through a util.ProgressLogger (the
// teacher's own throttled-stderr progress reporter) and diagnostics through
// util.Log, so a caller that wants console output gets exactly the texture
// the teacher's other commands print during long-running phases.
type StdObserver struct {
	verbose bool
	pl      *util.ProgressLogger
}

// NewStdObserver returns an observer that prints a percent-complete line as
// cycles advance (one event per cycle, out of maxLen+1 total) and routes
// Logf through util.Log gated by verbose.
func NewStdObserver(maxLen int, verbose bool) *StdObserver {
	return &StdObserver{
		verbose: verbose,
		pl:      util.NewProgressLogger(uint64(maxLen+1), "bcr: building ", "", verbose),
	}
}

func (o *StdObserver) OnCycleStart(cycle int, maxLen int) {}

func (o *StdObserver) OnCycleEnd(cycle int, maxLen int) {
	if o.pl == nil {
		return
	}
	if cycle == maxLen {
		o.pl.Finalize()
		return
	}
	o.pl.Log()
}

func (o *StdObserver) OnBucketComplete(cycle int, symbol int) {}

func (o *StdObserver) Logf(format string, args ...any) {
	util.Log(o.verbose, format, args...)
}
