package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// GetterFunc evaluates an expression against a scope.
type GetterFunc func(scope *Map) any

// SetterFunc writes a value back through an expression (two-way bindings).
type SetterFunc func(scope *Map, value any)

// Callback receives the new and previous value after a watcher run decides
// the value changed.
type Callback func(newValue, oldValue any)

// WatcherOptions tune a watcher's evaluation and scheduling behavior.
type WatcherOptions struct {
	// Deep forces a full traversal of the returned value's observed graph
	// after every evaluation, so mutations anywhere below it re-trigger.
	Deep bool

	// Sync bypasses the scheduler: the watcher re-runs inline inside the
	// notification that dirtied it.
	Sync bool

	// Lazy switches to pull mode: notifications only mark the watcher
	// dirty, and the value is recomputed when pulled via Value/Evaluate.
	// Backs computed values.
	Lazy bool

	// User routes the watcher to the scheduler's lower-priority band, so
	// it observes the effects of internal watchers that ran first.
	User bool

	// Setter is invoked by Set for function-getter watchers. Expression
	// watchers derive their setter from the path automatically.
	Setter SetterFunc

	// PreProcess, Filters and PostProcess are opaque value transforms
	// applied in that order around the raw evaluation result. Their
	// semantics belong to the expression/filter layer above the engine.
	PreProcess  func(any) any
	Filters     []func(any) any
	PostProcess func(any) any
}

// Watcher evaluates an expression against a scope, records exactly the deps
// it read while doing so, and re-subscribes to exactly that set after every
// evaluation: deps read previously but not this time are dropped, which
// keeps conditional expressions (a ? b : c) subscribed only to the branch
// they actually took.
type Watcher struct {
	sys        *ReactiveSystem
	id         uint64
	scope      *Map
	expression string
	getter     GetterFunc
	setter     SetterFunc
	cb         Callback

	value any

	// Current and pending dependency sets, double-buffered: addDep fills
	// the new set during evaluation, cleanupDeps diffs it against the old
	// one and swaps.
	deps      []*Dep
	depIDs    mapset.Set[uint64]
	newDeps   []*Dep
	newDepIDs mapset.Set[uint64]

	deep bool
	sync bool
	lazy bool
	user bool

	pre     func(any) any
	filters []func(any) any
	post    func(any) any

	active bool
	dirty  bool

	// shallow coalesces trigger shallowness while queued: the queued run
	// is shallow only if every trigger since enqueueing was shallow.
	shallow bool
}

// Watch creates a watcher over a dot-path expression. The watcher evaluates
// immediately (unless lazy) and invokes cb on subsequent changes.
func (sys *ReactiveSystem) Watch(scope *Map, expr string, cb Callback, opts WatcherOptions) (*Watcher, error) {
	getter, err := pathGetter(expr)
	if err != nil {
		return nil, err
	}
	if opts.Setter == nil {
		if setter, serr := pathSetter(expr); serr == nil {
			opts.Setter = setter
		}
	}
	return sys.newWatcher(scope, expr, getter, cb, opts), nil
}

// WatchFn creates a watcher over a getter function.
func (sys *ReactiveSystem) WatchFn(scope *Map, getter GetterFunc, cb Callback, opts WatcherOptions) *Watcher {
	return sys.newWatcher(scope, "<function>", getter, cb, opts)
}

func (sys *ReactiveSystem) newWatcher(scope *Map, expr string, getter GetterFunc, cb Callback, opts WatcherOptions) *Watcher {
	sys.stats.WatchersCreated++
	w := &Watcher{
		sys:        sys,
		id:         sys.nextID(),
		scope:      scope,
		expression: expr,
		getter:     getter,
		setter:     opts.Setter,
		cb:         cb,
		depIDs:     mapset.NewThreadUnsafeSet[uint64](),
		newDepIDs:  mapset.NewThreadUnsafeSet[uint64](),
		deep:       opts.Deep,
		sync:       opts.Sync,
		lazy:       opts.Lazy,
		user:       opts.User,
		pre:        opts.PreProcess,
		filters:    opts.Filters,
		post:       opts.PostProcess,
		active:     true,
		dirty:      opts.Lazy,
	}
	if !w.lazy {
		w.value = w.get()
	}
	return w
}

// ID returns the watcher's unique id.
func (w *Watcher) ID() uint64 {
	return w.id
}

// Expression returns the watched expression, "<function>" for getters.
func (w *Watcher) Expression() string {
	return w.expression
}

// Active reports whether the watcher has not been torn down.
func (w *Watcher) Active() bool {
	return w.active
}

// Value returns the last computed value without re-evaluating.
func (w *Watcher) Value() any {
	return w.value
}

// get evaluates the getter with this watcher recording, applies the value
// transforms, forces deep traversal when configured, and reconciles the
// dependency sets. A panicking getter is reported and the previous value
// kept, leaving the recording state intact.
func (w *Watcher) get() any {
	w.sys.pushTarget(w)

	value := w.evaluateGetter()
	if w.deep {
		w.traverse(value)
	}
	if w.post != nil {
		value = w.applyTransform(w.post, value)
	}

	w.sys.popTarget()
	w.cleanupDeps()
	return value
}

func (w *Watcher) evaluateGetter() (value any) {
	defer func() {
		if r := recover(); r != nil {
			w.sys.reportError(w, evalError(w, r))
			value = w.value
		}
	}()
	value = w.getter(w.scope)
	if w.pre != nil {
		value = w.pre(value)
	}
	for _, f := range w.filters {
		value = f(value)
	}
	return value
}

func (w *Watcher) applyTransform(fn func(any) any, value any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			w.sys.reportError(w, evalError(w, r))
			out = value
		}
	}()
	return fn(value)
}

// addDep records d as a dependency of the current evaluation. Subscribing
// happens at most once per dep: deps already held from the previous
// evaluation are only re-marked, not re-subscribed.
func (w *Watcher) addDep(d *Dep) {
	if w.newDepIDs.Contains(d.id) {
		return
	}
	w.newDepIDs.Add(d.id)
	w.newDeps = append(w.newDeps, d)
	if !w.depIDs.Contains(d.id) {
		d.addSub(w)
	}
}

// cleanupDeps unsubscribes from deps held previously but not read this
// pass, then swaps the buffers so the fresh set becomes current.
func (w *Watcher) cleanupDeps() {
	for _, d := range w.deps {
		if !w.newDepIDs.Contains(d.id) {
			d.removeSub(w)
		}
	}
	w.deps, w.newDeps = w.newDeps, w.deps[:0]
	w.depIDs, w.newDepIDs = w.newDepIDs, w.depIDs
	w.newDepIDs.Clear()
}

// traverse visits every reachable observed container below value so each
// nested read registers its dep. The seen set, keyed by container dep id,
// guards against reference cycles.
func (w *Watcher) traverse(value any) {
	seen := mapset.NewThreadUnsafeSet[uint64]()
	traverseValue(value, seen)
}

func traverseValue(value any, seen mapset.Set[uint64]) {
	switch v := value.(type) {
	case *Map:
		if ob := v.Observer(); ob != nil {
			if seen.Contains(ob.dep.id) {
				return
			}
			seen.Add(ob.dep.id)
		}
		for _, key := range v.Keys() {
			traverseValue(v.Get(key), seen)
		}
	case *Array:
		if ob := v.Observer(); ob != nil {
			if seen.Contains(ob.dep.id) {
				return
			}
			seen.Add(ob.dep.id)
		}
		for i, n := 0, v.Len(); i < n; i++ {
			traverseValue(v.Get(i), seen)
		}
	}
}

// update is called by a dep's Notify. Lazy watchers just go dirty; sync
// watchers (or a globally sync system) run inline; everything else lands on
// the scheduler, coalescing repeated triggers into one queued run.
func (w *Watcher) update(shallow bool) {
	if !w.active {
		return
	}
	if w.lazy {
		w.dirty = true
		return
	}
	if w.sync || w.sys.cfg.Sync {
		w.shallow = shallow
		w.run()
		return
	}
	w.sys.sched.enqueue(w, shallow)
}

// run re-evaluates and fires the callback when the value changed. A value
// is changed when it differs by strict equality, or unconditionally when it
// is non-primitive (same reference, mutated innards) or the watcher is deep
// — unless every coalesced trigger was shallow. Callback panics are
// reported and never abort the surrounding flush.
func (w *Watcher) run() {
	if !w.active {
		return
	}
	shallow := w.shallow
	w.shallow = false
	w.sys.stats.WatcherRuns++

	value := w.get()
	changed := !sameValue(value, w.value) ||
		((!isPrimitive(value) || w.deep) && !shallow)
	if !changed {
		return
	}

	oldValue := w.value
	w.value = value
	if w.cb != nil {
		func() {
			defer w.sys.recoverInto(w, "callback")
			w.cb(value, oldValue)
		}()
	}
}

// Evaluate recomputes a lazy watcher's value and clears its dirty flag.
// Multiple dependents pulling between invalidations evaluate once.
func (w *Watcher) Evaluate() any {
	if w.dirty {
		w.value = w.get()
		w.dirty = false
	}
	return w.value
}

// Dirty reports whether a lazy watcher has been invalidated since its last
// evaluation.
func (w *Watcher) Dirty() bool {
	return w.dirty
}

// Get forces a synchronous re-evaluation and returns the value.
func (w *Watcher) Get() any {
	w.value = w.get()
	w.dirty = false
	return w.value
}

// Depend re-registers every currently held dep on the watcher that is
// presently recording. A computed value's consumers call this through the
// computed's getter, so they transitively depend on the computed's inputs.
func (w *Watcher) Depend() {
	for _, d := range w.deps {
		d.Depend()
	}
}

// Set routes a value through the configured setter, the two-way binding
// path.
func (w *Watcher) Set(value any) {
	if w.setter == nil {
		return
	}
	func() {
		defer w.sys.recoverInto(w, "setter")
		w.setter(w.scope, value)
	}()
}

// Teardown unsubscribes from every dep and deactivates the watcher. After
// teardown no mutation re-enqueues it, and a queued torn-down watcher is a
// no-op during flush.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	w.active = false
	for _, d := range w.deps {
		d.removeSub(w)
	}
	w.deps = nil
	w.newDeps = nil
	w.depIDs.Clear()
	w.newDepIDs.Clear()
	w.scope = nil
	w.cb = nil
}
