package reactive

import (
	"math"
	"reflect"
)

// sameValue reports whether two values are identical under strict-equality
// semantics: same dynamic type and ==, with the one exception that two NaNs
// compare equal (a self-unequal value must not notify forever). Values of
// uncomparable types are never the same, so writes of fresh slices or maps
// always notify.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	if a == b {
		return true
	}
	switch av := a.(type) {
	case float64:
		return math.IsNaN(av) && math.IsNaN(b.(float64))
	case float32:
		return math.IsNaN(float64(av)) && math.IsNaN(float64(b.(float32)))
	}
	return false
}

// isPrimitive reports whether v is a plain scalar. Non-primitive values
// (containers, maps, slices, pointers, structs) are always treated as
// changed by a watcher run, since their innards may have mutated behind the
// same reference.
func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128:
		return true
	}
	return false
}
