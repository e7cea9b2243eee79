package extra

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/roach88/listate/internal/ident"
)

type absent struct{}

func (absent) String() string { return "<absent>" }

// Absent is returned when a path cannot be resolved.
var Absent any = absent{}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// PathValue returns the value found at the dot-delimited path inside root,
// or Absent when any segment is missing or crosses a non-indexable value.
//
//	obj := map[string]any{"a": map[string]any{"d": true}, "f": []any{1, "z", nil}}
//	PathValue(obj, "a.d")   // true
//	PathValue(obj, "f.1")   // "z"
//	PathValue(obj, "f.8")   // Absent
//	PathValue(obj, "a.d.x") // Absent
func PathValue(root any, path string) any {
	v := reflect.ValueOf(root)
	for _, seg := range strings.Split(path, ".") {
		next, ok := child(v, seg)
		if !ok {
			return Absent
		}
		v = next
	}
	return valueOf(v)
}

// child resolves one segment. Pointers and interfaces are followed first.
func child(v reflect.Value, seg string) (reflect.Value, bool) {
	v = ident.Indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}

	switch v.Kind() {
	case reflect.Map:
		return lookup(v, seg)
	case reflect.Struct:
		return lookup(v, seg)
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(i), true
	default:
		return reflect.Value{}, false
	}
}

// entry is one key of a keyed container.
type entry struct {
	name  string
	value reflect.Value
}

// entries lists the keys of a map or the exported fields of a struct.
func entries(v reflect.Value) []entry {
	switch v.Kind() {
	case reflect.Map:
		out := make([]entry, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out = append(out, entry{name: keyName(iter.Key()), value: iter.Value()})
		}
		return out
	case reflect.Struct:
		t := v.Type()
		out := make([]entry, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			out = append(out, entry{name: f.Name, value: v.Field(i)})
		}
		return out
	}
	return nil
}

// lookup finds name among the keys of a map, or among the exported fields of
// a struct by Go name or json tag.
func lookup(v reflect.Value, name string) (reflect.Value, bool) {
	switch v.Kind() {
	case reflect.Map:
		kt := v.Type().Key()
		if kt.Kind() == reflect.String {
			val := v.MapIndex(reflect.ValueOf(name).Convert(kt))
			return val, val.IsValid()
		}
		iter := v.MapRange()
		for iter.Next() {
			if keyName(iter.Key()) == name {
				return iter.Value(), true
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if f.Name == name || jsonName(f) == name {
				return v.Field(i), true
			}
		}
	}
	return reflect.Value{}, false
}

func keyName(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

func jsonName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

// valueOf unwraps v into an interface value; an invalid value is nil.
func valueOf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}
