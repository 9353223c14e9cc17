package reactive

import (
	"sync"

	"github.com/petermattis/goid"
)

// Each goroutine gets its own implicit default system, so the package-level
// helpers work without threading a handle around while never sharing
// single-threaded engine state across goroutines.
var defaultSystems sync.Map // int64 -> *ReactiveSystem

// Default returns the calling goroutine's default ReactiveSystem, creating
// it with a zero SystemConfig on first use.
func Default() *ReactiveSystem {
	gid := goid.Get()
	if sys, ok := defaultSystems.Load(gid); ok {
		return sys.(*ReactiveSystem)
	}
	sys := New(SystemConfig{})
	defaultSystems.Store(gid, sys)
	return sys
}

// ResetDefault discards the calling goroutine's default system. Goroutines
// that used Default should call this before exiting so the registry does
// not retain their engine state.
func ResetDefault() {
	defaultSystems.Delete(goid.Get())
}

// NewMap builds a reactive map on the goroutine's default system.
func NewMap(init map[string]any) *Map {
	return Default().NewMap(init)
}

// NewArray builds a reactive array on the goroutine's default system.
func NewArray(init []any) *Array {
	return Default().NewArray(init)
}

// Observe observes value on the goroutine's default system.
func Observe(value any) *Observer {
	return Default().Observe(value)
}

// Watch creates an expression watcher on the goroutine's default system.
func Watch(scope *Map, expr string, cb Callback, opts WatcherOptions) (*Watcher, error) {
	return Default().Watch(scope, expr, cb, opts)
}

// WatchFn creates a function watcher on the goroutine's default system.
func WatchFn(scope *Map, getter GetterFunc, cb Callback, opts WatcherOptions) *Watcher {
	return Default().WatchFn(scope, getter, cb, opts)
}

// Batch batches mutations on the goroutine's default system.
func Batch(fn func()) {
	Default().Batch(fn)
}

// NextTick defers fn past the default system's pending flush.
func NextTick(fn func()) {
	Default().NextTick(fn)
}
