package extra

import (
	"reflect"

	"github.com/roach88/listate/internal/ident"
)

// Unlike reports whether state differs from prev by comparing their contents.
//
// Values that are not containers (maps, slices, arrays, and structs whose
// fields are all exported) are compared by identity. Structs with any
// unexported field, such as time.Time, are opaque values. A sequence never
// equals a keyed container. Sequences of equal
// length and keyed containers with the same key set are compared entry by
// entry: an entry pair differs when the two values are not identical and,
// in deep mode only, still differ when compared recursively.
//
// A key that is missing on one side always counts as a change, even when
// the other side holds nil there. Struct fields are keyed by their Go name,
// not their json tag, and structs of different types with the same field
// names compare by content.
//
//	Unlike(map[string]any{"a": 1}, map[string]any{"a": 2}, false)         // true
//	Unlike(map[string]any{"b": []int{3}}, map[string]any{"b": []int{3}}, false) // true
//	Unlike(map[string]any{"b": []int{3}}, map[string]any{"b": []int{3}}, true)  // false
func Unlike(state, prev any, deep bool) bool {
	a := ident.Indirect(reflect.ValueOf(state))
	b := ident.Indirect(reflect.ValueOf(prev))
	if !isContainer(a) || !isContainer(b) {
		return !ident.Same(state, prev)
	}

	aSeq, bSeq := isSequence(a), isSequence(b)
	switch {
	case aSeq && bSeq:
		if a.Len() != b.Len() {
			return true
		}
		for i := 0; i < a.Len(); i++ {
			if differs(a.Index(i), b.Index(i), deep) {
				return true
			}
		}
	case aSeq || bSeq:
		return true
	default:
		for _, e := range entries(a) {
			other, ok := lookupEntry(b, e.name)
			if !ok || differs(e.value, other, deep) {
				return true
			}
		}
		for _, e := range entries(b) {
			if _, ok := lookupEntry(a, e.name); !ok {
				return true
			}
		}
	}
	return false
}

// UnlikeDeep is Unlike in deep mode.
func UnlikeDeep(state, prev any) bool {
	return Unlike(state, prev, true)
}

func differs(x, y reflect.Value, deep bool) bool {
	xv, yv := valueOf(x), valueOf(y)
	return !ident.Same(xv, yv) && (!deep || Unlike(xv, yv, deep))
}

// lookupEntry matches keys the way entries names them, so maps and structs
// compare by the same key strings.
func lookupEntry(v reflect.Value, name string) (reflect.Value, bool) {
	if v.Kind() == reflect.Struct {
		f := v.FieldByName(name)
		if !f.IsValid() {
			return reflect.Value{}, false
		}
		sf, _ := v.Type().FieldByName(name)
		if !sf.IsExported() || len(sf.Index) != 1 {
			return reflect.Value{}, false
		}
		return f, true
	}
	return lookup(v, name)
}

var absentType = reflect.TypeOf(absent{})

func isContainer(v reflect.Value) bool {
	if !v.IsValid() || v.Type() == absentType {
		return false
	}
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		return !v.IsNil()
	case reflect.Array:
		return true
	case reflect.Struct:
		return allExported(v.Type())
	}
	return false
}

func allExported(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			return false
		}
	}
	return true
}

func isSequence(v reflect.Value) bool {
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}
