package reactive

import (
	"errors"
	"fmt"
)

// ErrRunawayUpdate is wrapped into the error delivered when a single
// watcher re-triggers itself past the configured MaxWatcherRuns within one
// top-level flush. The flush aborts; effects already applied by earlier
// well-behaved watchers are not rolled back.
var ErrRunawayUpdate = errors.New("runaway update cycle")

func evalError(w *Watcher, r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("evaluating watcher %q: %w", w.expression, err)
	}
	return fmt.Errorf("evaluating watcher %q: %v", w.expression, r)
}
