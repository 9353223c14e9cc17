package reactive

// Dep is the per-property (or per-container) broadcast list of watchers to
// notify on change. Watchers dedupe which deps they subscribe to, so addSub
// never needs to.
type Dep struct {
	sys  *ReactiveSystem
	id   uint64
	subs []*Watcher
}

// NewDep creates a standalone dependency subject. Containers create their
// own deps internally; standalone deps are for external layers that need a
// manual notification channel wired into the same recording machinery.
func NewDep(sys *ReactiveSystem) *Dep {
	sys.stats.DepsCreated++
	return &Dep{sys: sys, id: sys.nextID()}
}

// ID returns the dep's unique id.
func (d *Dep) ID() uint64 {
	return d.id
}

func (d *Dep) addSub(w *Watcher) {
	d.subs = append(d.subs, w)
}

func (d *Dep) removeSub(w *Watcher) {
	for i, sub := range d.subs {
		if sub == w {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// Depend registers this dep on the watcher currently recording, if any.
func (d *Dep) Depend() {
	if t := d.sys.target; t != nil {
		t.addDep(d)
	}
}

// Notify calls update on every subscriber. It iterates a snapshot because a
// subscriber's update may mutate the subscriber list (teardown mid-notify).
// A shallow notification tells deep watchers not to force re-traversal.
func (d *Dep) Notify(shallow bool) {
	subs := make([]*Watcher, len(d.subs))
	copy(subs, d.subs)
	for _, w := range subs {
		w.update(shallow)
	}
	d.sys.sched.maybeFlush()
}
