package reactive

import "fmt"

// scheduler batches dirtied watchers and flushes them in two ordered bands:
// the internal queue first, then the user queue, so user-registered
// watchers observe the effects of internal ones. A flush is synchronously
// exhaustive: watchers dirtied while flushing are drained before the flush
// returns to the caller.
type scheduler struct {
	sys *ReactiveSystem

	queue     []*Watcher
	userQueue []*Watcher

	// has marks watcher ids already queued for this flush. The marker is
	// removed just before a watcher runs, so a re-trigger from its own
	// run lands in the next drain pass instead of being dropped.
	has map[uint64]bool

	// circular counts runs per watcher across one whole recursive flush.
	circular map[uint64]int

	waiting  bool
	flushing bool

	settled []func()
}

func newScheduler(sys *ReactiveSystem) *scheduler {
	return &scheduler{
		sys:      sys,
		has:      make(map[uint64]bool),
		circular: make(map[uint64]int),
	}
}

func (s *scheduler) enqueue(w *Watcher, shallow bool) {
	if s.has[w.id] {
		w.shallow = w.shallow && shallow
		return
	}
	s.has[w.id] = true
	w.shallow = shallow
	if w.user {
		s.userQueue = append(s.userQueue, w)
	} else {
		s.queue = append(s.queue, w)
	}
	s.waiting = true
}

// maybeFlush flushes when a flush is due and allowed: something is queued,
// no batch is open, and no flush is already running.
func (s *scheduler) maybeFlush() {
	if s.sys.batchDepth > 0 || s.flushing || !s.waiting {
		return
	}
	s.flush()
}

func (s *scheduler) flush() {
	s.flushing = true
	s.sys.stats.Flushes++

	defer func() {
		s.flushing = false
		s.waiting = false
		s.queue = nil
		s.userQueue = nil
		s.has = make(map[uint64]bool)
		s.circular = make(map[uint64]int)

		callbacks := s.settled
		s.settled = nil
		for _, fn := range callbacks {
			fn()
		}
	}()

	for len(s.queue) > 0 || len(s.userQueue) > 0 {
		if !s.runBand(&s.queue) {
			return
		}
		if !s.runBand(&s.userQueue) {
			return
		}
	}
}

// runBand drains one priority band FIFO. Returns false when the cycle
// guard aborted the flush.
func (s *scheduler) runBand(band *[]*Watcher) bool {
	pending := *band
	*band = nil
	for _, w := range pending {
		delete(s.has, w.id)
		w.run()
		s.circular[w.id]++
		if s.circular[w.id] > s.sys.cfg.MaxWatcherRuns {
			s.queue = nil
			s.userQueue = nil
			s.sys.reportError(w, fmt.Errorf(
				"%w: watcher %q ran more than %d times in one flush",
				ErrRunawayUpdate, w.Expression(), s.sys.cfg.MaxWatcherRuns))
			return false
		}
	}
	return true
}
