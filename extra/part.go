package extra

import "github.com/roach88/listate"

// PartSpec describes which parts of a source value ObjectPart extracts.
// Implemented by Path, Fields and Parts.
type PartSpec interface {
	parts() Parts
}

// Path is a dot-delimited path. As a PartSpec, Path("k") is Parts{"k": "k"}.
type Path string

// Fields lists paths that are also used as result keys.
type Fields []string

// Parts maps result keys to source paths.
type Parts map[string]string

func (p Path) parts() Parts { return Parts{string(p): string(p)} }

func (f Fields) parts() Parts {
	m := make(Parts, len(f))
	for _, path := range f {
		m[path] = path
	}
	return m
}

func (p Parts) parts() Parts { return p }

// ObjectPart builds a flat map holding, for every result key of parts, the
// value at the corresponding path of source. Unresolved paths hold Absent.
//
//	ObjectPart(obj, Parts{"f1": "a.b.d", "f2": "a.f.1"}) // {f1: true, f2: "z"}
//	ObjectPart(obj, Fields{"k", "l"})                    // {k: "king", l: "last"}
//	ObjectPart(obj, Path("g"))                           // {g: 7}
func ObjectPart(source any, parts PartSpec) map[string]any {
	if parts == nil {
		return map[string]any{}
	}
	return extract(source, parts.parts())
}

func extract(source any, m Parts) map[string]any {
	result := make(map[string]any, len(m))
	for key, path := range m {
		result[key] = PathValue(source, path)
	}
	return result
}

// FieldFilter returns a filter yielding the value at path.
func FieldFilter(path string) listate.Filter {
	return func(state any) any {
		return PathValue(state, path)
	}
}

// PartFilter returns a filter yielding ObjectPart(state, parts).
// The part map is resolved once, when the filter is built.
func PartFilter(parts PartSpec) listate.Filter {
	var m Parts
	if parts != nil {
		m = parts.parts()
	}
	return func(state any) any {
		return extract(state, m)
	}
}
