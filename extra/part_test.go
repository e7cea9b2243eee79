package extra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectPart(t *testing.T) {
	obj := testObject()

	assert.Equal(t, map[string]any{"a": obj["a"]}, ObjectPart(obj, Path("a")))
	assert.Equal(t, map[string]any{"m.n": "next"}, ObjectPart(obj, Path("m.n")))
	assert.Equal(t,
		map[string]any{"l": "last", "r": obj["r"]},
		ObjectPart(obj, Fields{"l", "r"}),
	)
	assert.Equal(t,
		map[string]any{"f1": "second", "f2": map[string]any{}, "f3": "quattro"},
		ObjectPart(obj, Parts{"f1": "a.b.h.i.1", "f2": "a.k", "f3": "m.o.q"}),
	)
	assert.Equal(t,
		map[string]any{"a": Absent, "b": Absent, "c": 7},
		ObjectPart(obj, Parts{"a": "a.b.d", "b": "l.c.3", "c": "m.o.p.2"}),
	)
}

func TestObjectPart_KeySetMatchesParts(t *testing.T) {
	obj := testObject()
	parts := Parts{"x": "nope", "y": "a.j", "z": "a.b.g"}

	got := ObjectPart(obj, parts)

	assert.Len(t, got, len(parts))
	for key, path := range parts {
		assert.Equal(t, PathValue(obj, path), got[key], "key %q", key)
	}
}

func TestObjectPart_NilParts(t *testing.T) {
	assert.Equal(t, map[string]any{}, ObjectPart(testObject(), nil))
}

func TestObjectPart_DoesNotMutate(t *testing.T) {
	obj := testObject()
	ObjectPart(obj, Fields{"l", "missing"})

	_, ok := obj["missing"]
	assert.False(t, ok)
}

func TestFieldFilter(t *testing.T) {
	filter := FieldFilter("a.d")

	assert.Equal(t, 17, filter(map[string]any{"a": map[string]any{"d": 17}}))
	assert.True(t, IsAbsent(filter(map[string]any{"a": 1, "b": 2})))
}

func TestPartFilter(t *testing.T) {
	filter := PartFilter(Parts{"f1": "a.b.c.f", "f2": "r.s", "f3": "l"})

	assert.Equal(t,
		map[string]any{"f1": "value", "f2": 2, "f3": "last"},
		filter(testObject()),
	)
	assert.Equal(t,
		map[string]any{"f1": Absent, "f2": Absent, "f3": 73},
		filter(map[string]any{"a": 1, "b": 2, "l": 73}),
	)
}

func TestPartFilter_FreshMapPerCall(t *testing.T) {
	filter := PartFilter(Fields{"l"})
	obj := testObject()

	first := filter(obj).(map[string]any)
	first["l"] = "changed"

	assert.Equal(t, "last", filter(obj).(map[string]any)["l"])
}
