package reactive

// slot is one reactive property: the boxed value, its dep, and optional
// user accessors the reactive layer composes with instead of destroying.
type slot struct {
	value any
	dep   *Dep
	get   func() any
	set   func(any)
}

func (s *slot) current() any {
	if s.get != nil {
		return s.get()
	}
	return s.value
}

func (s *slot) store(v any) {
	if s.set != nil {
		s.set(v)
		return
	}
	s.value = v
}

// Map is a reactive key/value container, the stand-in for installing
// accessor pairs on a plain object's properties. Reading a key during a
// watcher evaluation registers the key's dep (and, when the value is an
// observed container, the container's own dep) on that watcher; writing a
// key notifies its dep unless the value is unchanged.
type Map struct {
	sys    *ReactiveSystem
	ob     *Observer
	frozen bool
	slots  map[string]*slot
}

// NewMap builds a reactive map from init (which may be nil) and observes it.
// Nested map[string]any and []any values are converted into reactive
// containers recursively.
func (sys *ReactiveSystem) NewMap(init map[string]any) *Map {
	m := &Map{sys: sys, slots: make(map[string]*slot, len(init))}
	for k, v := range init {
		m.slots[k] = &slot{value: sys.convert(v), dep: NewDep(sys)}
	}
	sys.Observe(m)
	return m
}

func (m *Map) observeSlots() {
	for _, s := range m.slots {
		m.sys.Observe(s.value)
	}
}

// Get returns the value at key, nil when absent. While a watcher is
// recording, the read registers the key's dep; if the value is an observed
// container its own dep is registered too, and for arrays the dep of every
// observed element, so structural array mutations reach consumers that only
// ever read the array reference.
func (m *Map) Get(key string) any {
	s := m.slots[key]
	if s == nil {
		// Probing an absent key leans on the container dep, so the
		// reader re-runs if the key is later added.
		if m.sys.target != nil && m.ob != nil {
			m.ob.dep.Depend()
		}
		return nil
	}
	v := s.current()
	if m.sys.target != nil {
		s.dep.Depend()
		if childOb := observerOf(v); childOb != nil {
			childOb.dep.Depend()
			if arr, ok := v.(*Array); ok {
				arr.dependElements()
			}
		}
	}
	return v
}

// Has reports whether key exists, without registering a dependency.
func (m *Map) Has(key string) bool {
	_, ok := m.slots[key]
	return ok
}

// Set writes value at key. Writing a value identical to the current one
// (strict equality, both-NaN counts as identical) is a no-op that notifies
// nothing. A genuinely new value is converted/observed and the key's dep
// notified. Setting a key that does not exist yet installs a new reactive
// property and notifies the container's own dep instead, so watchers over
// the whole map see additions.
func (m *Map) Set(key string, value any) {
	if m.frozen {
		return
	}
	s := m.slots[key]
	if s == nil {
		m.slots[key] = &slot{value: m.sys.convert(value), dep: NewDep(m.sys)}
		if m.ob != nil {
			m.ob.dep.Notify(false)
		}
		return
	}
	if sameValue(value, s.current()) {
		return
	}
	s.store(m.sys.convert(value))
	s.dep.Notify(false)
}

// Delete removes key and notifies the container's own dep. Missing keys and
// frozen maps are a no-op.
func (m *Map) Delete(key string) {
	if m.frozen {
		return
	}
	if _, ok := m.slots[key]; !ok {
		return
	}
	delete(m.slots, key)
	if m.ob != nil {
		m.ob.dep.Notify(false)
	}
}

// DefineReactive installs a reactive property at key around value,
// replacing any existing slot. It is the per-key installation contract;
// NewMap and Set use the same shape internally.
func (m *Map) DefineReactive(key string, value any) {
	if m.frozen {
		return
	}
	m.slots[key] = &slot{value: m.sys.convert(value), dep: NewDep(m.sys)}
}

// DefineAccessor installs a reactive property whose storage is the given
// getter/setter pair. The reactive layer wraps the accessors: reads still
// record the key's dep and writes still notify it, while the actual value
// lives behind get/set.
func (m *Map) DefineAccessor(key string, get func() any, set func(any)) {
	if m.frozen {
		return
	}
	m.slots[key] = &slot{dep: NewDep(m.sys), get: get, set: set}
}

// Freeze marks the map non-observable and read-only: Observe returns nil
// for it and Set/Delete become silent no-ops.
func (m *Map) Freeze() {
	m.frozen = true
}

// Keys returns the map's keys without registering a dependency.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.slots))
	for k := range m.slots {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of keys without registering a dependency.
func (m *Map) Len() int {
	return len(m.slots)
}

// Observer returns the map's observer, nil when frozen before observation.
func (m *Map) Observer() *Observer {
	return m.ob
}
