// Package reactive is a state-tracking and change-propagation engine:
// plain data held in reactive containers, watchers that discover their own
// dependencies by evaluating an expression while recording which properties
// it reads, and a batching scheduler that re-runs only the affected
// watchers, deduplicated and in a deterministic order.
//
// Everything hangs off a ReactiveSystem, the explicit recording context:
//
//	sys := reactive.New(reactive.SystemConfig{})
//	state := sys.NewMap(map[string]any{"a": 1, "b": 2})
//	w, _ := sys.Watch(state, "a", func(newV, oldV any) {
//		log.Printf("a: %v -> %v", oldV, newV)
//	}, reactive.WatcherOptions{})
//
//	state.Set("b", 3) // watcher untouched: it never read "b"
//	state.Set("a", 2) // callback fires once with (2, 1)
//	_ = w
//
// Mutations inside Batch coalesce into a single flush at the end of the
// outermost batch; a mutation outside any batch flushes when its
// notification cascade completes. A system is single-threaded; goroutines
// that want an implicit engine use the per-goroutine Default system.
package reactive
