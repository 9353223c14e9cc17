package reactive

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Path expressions are the dot-path subset a watcher can be created from
// directly ("user.profile.name"). Anything richer belongs to the expression
// compiler that sits above this engine and hands in getter closures.

var pathCache sync.Map // uint64 -> []string

// parsePath splits a dot-path expression into segments, caching parsed
// results keyed by the expression's xxhash.
func parsePath(expr string) ([]string, error) {
	key := xxhash.Sum64String(expr)
	if cached, ok := pathCache.Load(key); ok {
		return cached.([]string), nil
	}
	if expr == "" {
		return nil, fmt.Errorf("empty watch expression")
	}
	segs := strings.Split(expr, ".")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("invalid watch expression %q", expr)
		}
	}
	pathCache.Store(key, segs)
	return segs, nil
}

// pathGetter compiles expr into a getter that walks the scope map one
// segment at a time. Reads go through Map.Get, so every traversed key
// registers its dep with the recording watcher. A broken path yields nil.
func pathGetter(expr string) (GetterFunc, error) {
	segs, err := parsePath(expr)
	if err != nil {
		return nil, err
	}
	return func(scope *Map) any {
		var cur any = scope
		for _, seg := range segs {
			m, ok := cur.(*Map)
			if !ok {
				return nil
			}
			cur = m.Get(seg)
		}
		return cur
	}, nil
}

// pathSetter compiles expr into a setter that writes the final segment,
// creating intermediate maps for missing segments along the way so two-way
// bindings can target paths that do not exist yet.
func pathSetter(expr string) (SetterFunc, error) {
	segs, err := parsePath(expr)
	if err != nil {
		return nil, err
	}
	return func(scope *Map, value any) {
		cur := scope
		for _, seg := range segs[:len(segs)-1] {
			next, ok := cur.Get(seg).(*Map)
			if !ok {
				next = cur.sys.NewMap(nil)
				cur.Set(seg, next)
			}
			cur = next
		}
		cur.Set(segs[len(segs)-1], value)
	}, nil
}
