package reactive_test

import (
	"errors"
	"testing"

	"github.com/pf12345/vue-source/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// should coalesce repeated triggers into one run with the final value
func TestSchedulerBatchCoalesces(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"n": 0})

	runs := 0
	var gotNew, gotOld any
	_, err := rs.Watch(m, "n", func(newV, oldV any) {
		runs++
		gotNew, gotOld = newV, oldV
	}, reactive.WatcherOptions{})
	require.NoError(t, err)

	rs.Batch(func() {
		for i := 1; i <= 100; i++ {
			m.Set("n", i)
		}
		assert.Equal(t, 0, runs)
	})

	assert.Equal(t, 1, runs)
	assert.Equal(t, 100, gotNew)
	assert.Equal(t, 0, gotOld)
}

// should flush only when the outermost batch ends
func TestSchedulerNestedBatches(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"n": 0})

	runs := 0
	_, err := rs.Watch(m, "n", func(newV, oldV any) { runs++ }, reactive.WatcherOptions{})
	require.NoError(t, err)

	rs.StartBatch()
	m.Set("n", 1)
	rs.StartBatch()
	m.Set("n", 2)
	rs.EndBatch()
	assert.Equal(t, 0, runs)
	rs.EndBatch()
	assert.Equal(t, 1, runs)
}

// should drain watchers dirtied by other watchers before returning
func TestSchedulerRecursiveSettlement(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"celsius": 0, "fahrenheit": 32})

	_, err := rs.Watch(m, "celsius", func(newV, oldV any) {
		m.Set("fahrenheit", newV.(int)*9/5+32)
	}, reactive.WatcherOptions{})
	require.NoError(t, err)

	var gotF any
	_, err = rs.Watch(m, "fahrenheit", func(newV, oldV any) { gotF = newV }, reactive.WatcherOptions{})
	require.NoError(t, err)

	m.Set("celsius", 100)
	assert.Equal(t, 212, gotF)
}

// should run the internal band before the user band
func TestSchedulerUserBandRunsLast(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"a": 1})

	var order []string
	_, err := rs.Watch(m, "a", func(newV, oldV any) {
		order = append(order, "user")
	}, reactive.WatcherOptions{User: true})
	require.NoError(t, err)
	_, err = rs.Watch(m, "a", func(newV, oldV any) {
		order = append(order, "internal")
	}, reactive.WatcherOptions{})
	require.NoError(t, err)

	m.Set("a", 2)
	assert.Equal(t, []string{"internal", "user"}, order)
}

// should abort the flush when a watcher keeps retriggering itself
func TestSchedulerRunawayGuard(t *testing.T) {
	var captured error
	rs := reactive.New(reactive.SystemConfig{
		MaxWatcherRuns: 5,
		OnError:        func(w *reactive.Watcher, err error) { captured = err },
	})
	m := rs.NewMap(map[string]any{"n": 0})

	_, err := rs.Watch(m, "n", func(newV, oldV any) {
		m.Set("n", newV.(int)+1)
	}, reactive.WatcherOptions{})
	require.NoError(t, err)

	m.Set("n", 1)
	require.Error(t, captured)
	assert.True(t, errors.Is(captured, reactive.ErrRunawayUpdate))
	assert.Contains(t, captured.Error(), `"n"`)

	// the system stays usable after the abort
	captured = nil
	m2 := rs.NewMap(map[string]any{"x": 1})
	runs := 0
	_, err = rs.Watch(m2, "x", func(newV, oldV any) { runs++ }, reactive.WatcherOptions{})
	require.NoError(t, err)
	m2.Set("x", 2)
	assert.Equal(t, 1, runs)
	assert.NoError(t, captured)
}

// should defer next-tick callbacks past the pending flush
func TestSchedulerNextTickOrdering(t *testing.T) {
	rs := newTestSystem(t)
	m := rs.NewMap(map[string]any{"a": 1})

	var order []string
	_, err := rs.Watch(m, "a", func(newV, oldV any) {
		order = append(order, "watcher")
	}, reactive.WatcherOptions{})
	require.NoError(t, err)

	rs.Batch(func() {
		m.Set("a", 2)
		rs.NextTick(func() { order = append(order, "tick") })
		assert.Empty(t, order)
	})
	assert.Equal(t, []string{"watcher", "tick"}, order)

	// with nothing pending the callback runs immediately
	ran := false
	rs.NextTick(func() { ran = true })
	assert.True(t, ran)
}

// should suppress the run only when every coalesced trigger was shallow
func TestSchedulerShallowCoalescing(t *testing.T) {
	rs := newTestSystem(t)
	scope := rs.NewMap(nil)
	d := reactive.NewDep(rs)

	runs := 0
	_ = rs.WatchFn(scope, func(s *reactive.Map) any {
		d.Depend()
		return s
	}, func(newV, oldV any) { runs++ }, reactive.WatcherOptions{})

	// all-shallow burst: queued run stays shallow, value unchanged, no callback
	rs.Batch(func() {
		d.Notify(true)
		d.Notify(true)
	})
	assert.Equal(t, 0, runs)

	// one non-shallow trigger in the burst upgrades the run
	rs.Batch(func() {
		d.Notify(true)
		d.Notify(false)
	})
	assert.Equal(t, 1, runs)

	d.Notify(false)
	assert.Equal(t, 2, runs)
}
