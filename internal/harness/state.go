package harness

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/listate/extra"
)

// action is what the scenario store dispatches.
type action struct {
	Step Step
}

// removed marks an entry for deletion in updateIn.
type removed struct{}

// reducer applies scenario steps to a JSON-shaped state, copying every
// container on the updated path. The first failure is kept in err; the
// state is left unchanged for a failing step.
type reducer struct {
	err error
}

func (r *reducer) reduce(state any, act any) any {
	a, ok := act.(action)
	if !ok {
		return state
	}

	next, err := apply(state, a.Step)
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		return state
	}
	return next
}

func apply(state any, step Step) (any, error) {
	segs := splitPath(step.Path)
	switch step.Action {
	case ActionSet:
		return updateIn(state, segs, true, func(any) (any, error) {
			return step.Value, nil
		})
	case ActionInc:
		by := 1
		if step.By != nil {
			by = *step.By
		}
		return updateIn(state, segs, true, func(old any) (any, error) {
			switch n := old.(type) {
			case int:
				return n + by, nil
			case nil:
				return by, nil
			default:
				if extra.IsAbsent(old) {
					return by, nil
				}
				return nil, fmt.Errorf("inc %q: value is %T, not int", step.Path, old)
			}
		})
	case ActionDelete:
		return updateIn(state, segs, false, func(any) (any, error) {
			return removed{}, nil
		})
	case ActionTouch:
		return updateIn(state, segs, false, func(old any) (any, error) {
			return shallowCopy(old)
		})
	default:
		return state, nil
	}
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// updateIn replaces the value at segs with fn(old). Containers along the
// way are copied. Missing map entries are created only when create is set.
func updateIn(node any, segs []string, create bool, fn func(old any) (any, error)) (any, error) {
	if len(segs) == 0 {
		return fn(node)
	}
	seg, rest := segs[0], segs[1:]

	switch n := node.(type) {
	case map[string]any:
		child, ok := n[seg]
		if !ok {
			if !create {
				return nil, fmt.Errorf("path segment %q not found", seg)
			}
			if len(rest) > 0 {
				child = map[string]any{}
			} else {
				child = extra.Absent
			}
		}
		v, err := updateIn(child, rest, create, fn)
		if err != nil {
			return nil, err
		}
		next := maps.Clone(n)
		if _, ok := v.(removed); ok {
			delete(next, seg)
		} else {
			next[seg] = v
		}
		return next, nil

	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(n) {
			return nil, fmt.Errorf("index %q out of range for list of %d", seg, len(n))
		}
		v, err := updateIn(n[i], rest, create, fn)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(removed); ok {
			return slices.Delete(slices.Clone(n), i, i+1), nil
		}
		next := slices.Clone(n)
		next[i] = v
		return next, nil

	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", node, seg)
	}
}

func shallowCopy(v any) (any, error) {
	switch c := v.(type) {
	case map[string]any:
		return maps.Clone(c), nil
	case []any:
		return slices.Clone(c), nil
	default:
		return nil, fmt.Errorf("touch needs a map or list, found %T", v)
	}
}
