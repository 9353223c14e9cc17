package reactive_test

import (
	"math"
	"testing"

	"github.com/pf12345/vue-source/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T) *reactive.ReactiveSystem {
	t.Helper()
	return reactive.New(reactive.SystemConfig{
		OnError: func(w *reactive.Watcher, err error) {
			assert.FailNow(t, err.Error())
		},
	})
}

// should notify only watchers of the written property
func TestMapNotifiesOnlyReadProperty(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"a": 1, "b": 2})

	runs := 0
	var gotNew, gotOld any
	w, err := rs.Watch(m, "a", func(newV, oldV any) {
		runs++
		gotNew, gotOld = newV, oldV
	}, reactive.WatcherOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, w.Value())
	assert.Equal(t, 0, runs)

	m.Set("b", 3)
	assert.Equal(t, 0, runs)

	m.Set("a", 1)
	assert.Equal(t, 0, runs)

	m.Set("a", 2)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 2, gotNew)
	assert.Equal(t, 1, gotOld)
}

// should treat a write of the current value as a no-op
func TestMapEqualValueShortCircuits(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"s": "hi", "n": 1})

	runs := 0
	_, err := rs.Watch(m, "s", func(newV, oldV any) { runs++ }, reactive.WatcherOptions{})
	require.NoError(t, err)

	m.Set("s", "hi")
	m.Set("n", 1)
	assert.Equal(t, 0, runs)

	m.Set("s", "yo")
	assert.Equal(t, 1, runs)
}

// should not notify when overwriting NaN with NaN
func TestMapNaNOverwriteIsNoOp(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"n": math.NaN()})

	runs := 0
	_, err := rs.Watch(m, "n", func(newV, oldV any) { runs++ }, reactive.WatcherOptions{})
	require.NoError(t, err)

	m.Set("n", math.NaN())
	assert.Equal(t, 0, runs)

	m.Set("n", 1.0)
	assert.Equal(t, 1, runs)
}

// should notify container watchers when a new key is added
func TestMapAddKeyNotifiesContainer(t *testing.T) {
	rs := newTestSystem(t)
	parent := rs.NewMap(map[string]any{"child": map[string]any{"x": 1}})
	child := parent.Get("child").(*reactive.Map)

	runs := 0
	_ = rs.WatchFn(parent, func(scope *reactive.Map) any {
		return scope.Get("child")
	}, func(newV, oldV any) { runs++ }, reactive.WatcherOptions{})

	child.Set("y", 2)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 2, child.Get("y"))
}

// should notify container watchers when a key is deleted
func TestMapDeleteKeyNotifiesContainer(t *testing.T) {
	rs := newTestSystem(t)
	parent := rs.NewMap(map[string]any{"child": map[string]any{"x": 1, "y": 2}})
	child := parent.Get("child").(*reactive.Map)

	runs := 0
	_ = rs.WatchFn(parent, func(scope *reactive.Map) any {
		return scope.Get("child")
	}, func(newV, oldV any) { runs++ }, reactive.WatcherOptions{})

	child.Delete("x")
	assert.Equal(t, 1, runs)
	assert.False(t, child.Has("x"))

	// deleting a key that is already gone changes nothing
	child.Delete("x")
	assert.Equal(t, 1, runs)
}

// should re-run a watcher that probed a key before it existed
func TestMapAbsentKeyProbeSubscribes(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(nil)

	runs := 0
	var gotNew any
	w, err := rs.Watch(m, "later", func(newV, oldV any) {
		runs++
		gotNew = newV
	}, reactive.WatcherOptions{})
	require.NoError(t, err)
	assert.Nil(t, w.Value())

	m.Set("later", 42)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 42, gotNew)
}

// should convert nested plain containers into reactive ones
func TestMapConvertsNestedContainers(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{
		"obj":  map[string]any{"k": 1},
		"list": []any{1, map[string]any{"deep": true}},
	})

	obj, ok := m.Get("obj").(*reactive.Map)
	require.True(t, ok)
	assert.NotNil(t, obj.Observer())

	list, ok := m.Get("list").(*reactive.Array)
	require.True(t, ok)
	assert.NotNil(t, list.Observer())

	deep, ok := list.Get(1).(*reactive.Map)
	require.True(t, ok)
	assert.Equal(t, true, deep.Get("deep"))

	// conversion also applies to values written later
	m.Set("more", map[string]any{"z": 3})
	more, ok := m.Get("more").(*reactive.Map)
	require.True(t, ok)
	assert.Equal(t, 3, more.Get("z"))
}

// should make frozen maps read-only and non-observable
func TestMapFreeze(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"a": 1})
	m.Freeze()

	runs := 0
	_, err := rs.Watch(m, "a", func(newV, oldV any) { runs++ }, reactive.WatcherOptions{})
	require.NoError(t, err)

	m.Set("a", 2)
	m.Set("b", 9)
	m.Delete("a")
	assert.Equal(t, 0, runs)
	assert.Equal(t, 1, m.Get("a"))
	assert.False(t, m.Has("b"))

	assert.Nil(t, rs.Observe(m))
}

// should compose reactivity with user-supplied accessors
func TestMapDefineAccessor(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(nil)

	backing := "ada"
	m.DefineAccessor("name", func() any {
		return backing + "!"
	}, func(v any) {
		backing = v.(string)
	})

	runs := 0
	var gotNew any
	w, err := rs.Watch(m, "name", func(newV, oldV any) {
		runs++
		gotNew = newV
	}, reactive.WatcherOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ada!", w.Value())

	m.Set("name", "grace")
	assert.Equal(t, 1, runs)
	assert.Equal(t, "grace!", gotNew)
	assert.Equal(t, "grace", backing)
}

// should install a fresh reactive property over an existing one
func TestMapDefineReactiveReplacesSlot(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"a": 1})

	m.DefineReactive("a", 10)
	assert.Equal(t, 10, m.Get("a"))

	runs := 0
	_, err := rs.Watch(m, "a", func(newV, oldV any) { runs++ }, reactive.WatcherOptions{})
	require.NoError(t, err)

	m.Set("a", 11)
	assert.Equal(t, 1, runs)
}
