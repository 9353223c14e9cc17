package reactive

import "fmt"

// OnErrorFunc receives errors recovered during watcher evaluation, callback
// invocation, or a flush abort. The watcher may be nil for errors that are
// not attributable to a single watcher.
type OnErrorFunc func(w *Watcher, err error)

// SystemConfig configures a ReactiveSystem. The zero value is usable:
// async scheduling on, cycle guard at DefaultMaxWatcherRuns, errors kept
// for TakeLastError.
type SystemConfig struct {
	// OnError is invoked for every recovered error. When nil, the last
	// error is retained and can be pulled with TakeLastError.
	OnError OnErrorFunc

	// MaxWatcherRuns is the number of times a single watcher may run
	// within one top-level flush before the flush aborts. 0 means
	// DefaultMaxWatcherRuns.
	MaxWatcherRuns int

	// Sync disables async scheduling globally: every watcher runs inline
	// when notified, as if it had been created with the Sync option.
	Sync bool
}

// DefaultMaxWatcherRuns is the cycle-guard threshold used when
// SystemConfig.MaxWatcherRuns is zero.
const DefaultMaxWatcherRuns = 100

// ReactiveSystem is the recording context shared by every Dep, container and
// Watcher created from it. Reads made while a watcher is evaluating register
// that watcher as a subscriber; writes notify and schedule re-evaluation.
//
// A system is single-threaded: all observation, notification and flushing
// happen on one logical thread of control, so none of its state is locked.
type ReactiveSystem struct {
	cfg SystemConfig

	idCounter uint64

	// target is the watcher currently recording dependencies, nil when no
	// evaluation is in progress. targetStack holds the outer targets so
	// nested evaluations restore their caller.
	target      *Watcher
	targetStack []*Watcher

	batchDepth int
	sched      *scheduler

	lastErr error

	stats SystemStats
}

// SystemStats is a snapshot of counters kept for diagnostics and tooling.
type SystemStats struct {
	DepsCreated     uint64
	WatchersCreated uint64
	WatcherRuns     uint64
	Flushes         uint64
}

// New creates a ReactiveSystem.
func New(cfg SystemConfig) *ReactiveSystem {
	if cfg.MaxWatcherRuns <= 0 {
		cfg.MaxWatcherRuns = DefaultMaxWatcherRuns
	}
	sys := &ReactiveSystem{cfg: cfg}
	sys.sched = newScheduler(sys)
	return sys
}

func (sys *ReactiveSystem) nextID() uint64 {
	sys.idCounter++
	return sys.idCounter
}

// pushTarget makes w the recording watcher, saving the previous one.
func (sys *ReactiveSystem) pushTarget(w *Watcher) {
	sys.targetStack = append(sys.targetStack, sys.target)
	sys.target = w
}

func (sys *ReactiveSystem) popTarget() {
	n := len(sys.targetStack) - 1
	sys.target = sys.targetStack[n]
	sys.targetStack = sys.targetStack[:n]
}

// PauseTracking suspends dependency recording: reads made until the matching
// ResumeTracking register nothing, whatever watcher is evaluating.
func (sys *ReactiveSystem) PauseTracking() {
	sys.pushTarget(nil)
}

// ResumeTracking undoes the most recent PauseTracking.
func (sys *ReactiveSystem) ResumeTracking() {
	sys.popTarget()
}

// Untracked runs fn with dependency recording paused.
func (sys *ReactiveSystem) Untracked(fn func()) {
	sys.PauseTracking()
	defer sys.ResumeTracking()
	fn()
}

// StartBatch opens a batch. While at least one batch is open, scheduled
// watchers stay queued; the outermost EndBatch is the tick boundary that
// flushes them.
func (sys *ReactiveSystem) StartBatch() {
	sys.batchDepth++
}

// EndBatch closes a batch and flushes once the outermost one ends.
func (sys *ReactiveSystem) EndBatch() {
	sys.batchDepth--
	if sys.batchDepth == 0 {
		sys.sched.maybeFlush()
	}
}

// Batch runs fn inside StartBatch/EndBatch. Mutations made by fn coalesce:
// a watcher dirtied any number of times runs once when the batch ends, with
// the value computed after the last mutation.
func (sys *ReactiveSystem) Batch(fn func()) {
	sys.StartBatch()
	defer sys.EndBatch()
	fn()
}

// NextTick registers fn to run after the pending flush settles. When no
// flush is pending and no batch is open, fn runs immediately.
func (sys *ReactiveSystem) NextTick(fn func()) {
	if sys.batchDepth == 0 && !sys.sched.flushing && !sys.sched.waiting {
		fn()
		return
	}
	sys.sched.settled = append(sys.sched.settled, fn)
}

// Flush drains the scheduler now if anything is pending. It is a no-op
// inside a batch or while a flush is already running.
func (sys *ReactiveSystem) Flush() {
	if sys.batchDepth == 0 {
		sys.sched.maybeFlush()
	}
}

// TakeLastError returns and clears the most recent error recovered while no
// OnError hook was configured. It is the best-effort re-surfacing channel
// for callback errors that must not abort a flush.
func (sys *ReactiveSystem) TakeLastError() error {
	err := sys.lastErr
	sys.lastErr = nil
	return err
}

// Stats returns a snapshot of the system's diagnostic counters.
func (sys *ReactiveSystem) Stats() SystemStats {
	return sys.stats
}

func (sys *ReactiveSystem) reportError(w *Watcher, err error) {
	if sys.cfg.OnError != nil {
		sys.cfg.OnError(w, err)
		return
	}
	sys.lastErr = err
}

func (sys *ReactiveSystem) recoverInto(w *Watcher, what string) {
	if r := recover(); r != nil {
		if err, ok := r.(error); ok {
			sys.reportError(w, fmt.Errorf("%s of watcher %q: %w", what, w.Expression(), err))
			return
		}
		sys.reportError(w, fmt.Errorf("%s of watcher %q: %v", what, w.Expression(), r))
	}
}
