package reactive

import "sort"

// Array is a reactive array container. Go has no prototype to swap, so the
// wrapped mutators are the sanctioned mutation API: each performs the plain
// slice operation, observes any newly inserted elements, and notifies the
// array's own dep. Raw index assignment has no back door; SetAt and
// RemoveAt are the convenience mutators, built on Splice so they inherit
// observation and notification for free.
type Array struct {
	sys    *ReactiveSystem
	ob     *Observer
	frozen bool
	items  []any
}

// NewArray builds a reactive array from init (which may be nil) and
// observes it, converting nested plain containers recursively.
func (sys *ReactiveSystem) NewArray(init []any) *Array {
	items := make([]any, len(init))
	for i, v := range init {
		items[i] = sys.convert(v)
	}
	a := &Array{sys: sys, items: items}
	sys.Observe(a)
	return a
}

// Get returns the element at index i, nil when out of range. While a
// watcher is recording, the read registers the array's own dep, and the
// element's container dep when it has one.
func (a *Array) Get(i int) any {
	if a.sys.target != nil && a.ob != nil {
		a.ob.dep.Depend()
	}
	if i < 0 || i >= len(a.items) {
		return nil
	}
	v := a.items[i]
	if a.sys.target != nil {
		if childOb := observerOf(v); childOb != nil {
			childOb.dep.Depend()
		}
	}
	return v
}

// Len returns the element count, registering the array's dep while
// recording.
func (a *Array) Len() int {
	if a.sys.target != nil && a.ob != nil {
		a.ob.dep.Depend()
	}
	return len(a.items)
}

// Values returns a copy of the elements, registering the array's dep while
// recording.
func (a *Array) Values() []any {
	if a.sys.target != nil && a.ob != nil {
		a.ob.dep.Depend()
	}
	out := make([]any, len(a.items))
	copy(out, a.items)
	return out
}

// dependElements registers the dep of every observed element (recursing
// into nested arrays) on the recording watcher. Called when the array is
// read as a property value, so element-level structural changes reach
// consumers that only read the array reference.
func (a *Array) dependElements() {
	for _, v := range a.items {
		if childOb := observerOf(v); childOb != nil {
			childOb.dep.Depend()
		}
		if nested, ok := v.(*Array); ok {
			nested.dependElements()
		}
	}
}

func (a *Array) notify() {
	if a.ob != nil {
		a.ob.dep.Notify(false)
	}
}

// Push appends items and notifies.
func (a *Array) Push(items ...any) {
	if a.frozen || len(items) == 0 {
		return
	}
	for i, v := range items {
		items[i] = a.sys.convert(v)
	}
	a.items = append(a.items, items...)
	a.notify()
}

// Pop removes and returns the last element, nil on an empty array.
func (a *Array) Pop() any {
	if a.frozen || len(a.items) == 0 {
		return nil
	}
	n := len(a.items) - 1
	v := a.items[n]
	a.items = a.items[:n]
	a.notify()
	return v
}

// Shift removes and returns the first element, nil on an empty array.
func (a *Array) Shift() any {
	if a.frozen || len(a.items) == 0 {
		return nil
	}
	v := a.items[0]
	a.items = append(a.items[:0], a.items[1:]...)
	a.notify()
	return v
}

// Unshift prepends items and notifies.
func (a *Array) Unshift(items ...any) {
	if a.frozen || len(items) == 0 {
		return
	}
	for i, v := range items {
		items[i] = a.sys.convert(v)
	}
	a.items = append(items, a.items...)
	a.notify()
}

// Splice removes deleteCount elements at start, inserts items in their
// place, and returns the removed elements. Start is clamped into range and
// negative start counts from the end. Inserted items are observed.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	if a.frozen {
		return nil
	}
	n := len(a.items)
	if start < 0 {
		start += n
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}

	removed := make([]any, deleteCount)
	copy(removed, a.items[start:start+deleteCount])

	for i, v := range items {
		items[i] = a.sys.convert(v)
	}
	rest := a.items[start+deleteCount:]
	next := make([]any, 0, n-deleteCount+len(items))
	next = append(next, a.items[:start]...)
	next = append(next, items...)
	next = append(next, rest...)
	a.items = next

	a.notify()
	return removed
}

// Sort sorts the elements in place with less and notifies. The sort is
// stable so equal elements keep their order across repeated sorts.
func (a *Array) Sort(less func(x, y any) bool) {
	if a.frozen {
		return
	}
	sort.SliceStable(a.items, func(i, j int) bool {
		return less(a.items[i], a.items[j])
	})
	a.notify()
}

// Reverse reverses the elements in place and notifies.
func (a *Array) Reverse() {
	if a.frozen {
		return
	}
	for i, j := 0, len(a.items)-1; i < j; i, j = i+1, j-1 {
		a.items[i], a.items[j] = a.items[j], a.items[i]
	}
	a.notify()
}

// SetAt assigns value at index i with notification, the sanctioned form of
// index assignment. An index at or past the end grows the array.
func (a *Array) SetAt(i int, value any) {
	if a.frozen || i < 0 {
		return
	}
	if i >= len(a.items) {
		pad := make([]any, i-len(a.items))
		pad = append(pad, value)
		a.Splice(len(a.items), 0, pad...)
		return
	}
	a.Splice(i, 1, value)
}

// RemoveAt removes the element at index i with notification.
func (a *Array) RemoveAt(i int) {
	if i < 0 || i >= len(a.items) {
		return
	}
	a.Splice(i, 1)
}

// Remove removes the first element identical to value, if any.
func (a *Array) Remove(value any) {
	for i, v := range a.items {
		if sameValue(v, value) {
			a.Splice(i, 1)
			return
		}
	}
}

// Freeze marks the array non-observable and read-only.
func (a *Array) Freeze() {
	a.frozen = true
}

// Observer returns the array's observer.
func (a *Array) Observer() *Observer {
	return a.ob
}
