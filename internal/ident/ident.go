// Package ident decides reference identity between arbitrary Go values.
//
// Identity is the Go reading of a strict "same value or same object" test:
//   - maps are identical when they share the same backing map
//   - slices are identical when they share a data pointer and length
//   - pointers, channels and funcs compare by address
//   - comparable values (scalars, strings, comparable structs) compare with ==
//   - non-comparable values are never identical to each other
//
// Two nil interfaces are identical. A typed nil and an untyped nil are not.
package ident

import "reflect"

// Same reports whether a and b are the same value or the same reference.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}

// Indirect strips pointers and interfaces from v.
// The result is invalid when a nil pointer or nil interface is reached.
func Indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
