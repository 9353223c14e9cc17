package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Observer is the machinery attached to exactly one container (*Map or
// *Array). It carries the container-level dep, fired when the container is
// structurally mutated or replaced wholesale, and the set of owners that
// currently expose the container's data.
type Observer struct {
	sys   *ReactiveSystem
	value any
	dep   *Dep

	// owners is a non-owning many-to-many back-reference used only for
	// cleanup bookkeeping: an owner being disposed removes itself here to
	// stop forwarding notifications.
	owners mapset.Set[any]
}

// Dep returns the container-level dep.
func (ob *Observer) Dep() *Dep {
	return ob.dep
}

// Value returns the observed container.
func (ob *Observer) Value() any {
	return ob.value
}

// AddOwner registers an owning context with the observer.
func (ob *Observer) AddOwner(owner any) {
	ob.owners.Add(owner)
}

// RemoveOwner drops an owning context. Unknown owners are ignored.
func (ob *Observer) RemoveOwner(owner any) {
	ob.owners.Remove(owner)
}

// OwnerCount returns how many contexts currently share this container.
func (ob *Observer) OwnerCount() int {
	return ob.owners.Cardinality()
}

// Observe makes a container reactive and returns its Observer. It is
// idempotent: a container already carrying an observer returns the existing
// one. Nil, primitives, non-container values and frozen containers return
// nil; callers must treat observation as best-effort.
func (sys *ReactiveSystem) Observe(value any) *Observer {
	switch v := value.(type) {
	case *Map:
		if v == nil || v.frozen {
			return nil
		}
		if v.ob != nil {
			return v.ob
		}
		ob := sys.newObserver(v)
		v.ob = ob
		v.observeSlots()
		return ob
	case *Array:
		if v == nil || v.frozen {
			return nil
		}
		if v.ob != nil {
			return v.ob
		}
		ob := sys.newObserver(v)
		v.ob = ob
		for _, item := range v.items {
			sys.Observe(item)
		}
		return ob
	default:
		return nil
	}
}

// ObserveOwned observes value and registers owner with the resulting
// observer in one step.
func (sys *ReactiveSystem) ObserveOwned(value any, owner any) *Observer {
	ob := sys.Observe(value)
	if ob != nil && owner != nil {
		ob.AddOwner(owner)
	}
	return ob
}

func (sys *ReactiveSystem) newObserver(value any) *Observer {
	return &Observer{
		sys:    sys,
		value:  value,
		dep:    NewDep(sys),
		owners: mapset.NewThreadUnsafeSet[any](),
	}
}

// convert turns plain data written into a reactive slot into reactive
// containers: map[string]any becomes a *Map, []any becomes an *Array, and
// containers are (re-)observed. Everything else passes through untouched.
func (sys *ReactiveSystem) convert(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return sys.NewMap(v)
	case []any:
		return sys.NewArray(v)
	case *Map, *Array:
		sys.Observe(v)
		return v
	default:
		return value
	}
}

// observerOf returns the observer carried by v, or nil when v is not an
// observed container.
func observerOf(v any) *Observer {
	switch c := v.(type) {
	case *Map:
		if c != nil {
			return c.ob
		}
	case *Array:
		if c != nil {
			return c.ob
		}
	}
	return nil
}
