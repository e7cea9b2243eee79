package extra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testObject() map[string]any {
	return map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"c": map[string]any{"d": 1, "e": 2, "f": "value"},
				"g": nil,
				"h": map[string]any{
					"i": []any{"first", "second", map[string]any{"t": "third"}},
				},
			},
			"j": false,
			"k": map[string]any{},
		},
		"l": "last",
		"m": map[string]any{
			"n": "next",
			"o": map[string]any{
				"p": []int{9, 8, 7, 6, 5},
				"q": "quattro",
			},
		},
		"r": map[string]any{"s": 2},
	}
}

func TestPathValue_Resolves(t *testing.T) {
	obj := testObject()
	a := obj["a"].(map[string]any)
	b := a["b"].(map[string]any)

	assert.Equal(t, a, PathValue(obj, "a"))
	assert.Equal(t, b, PathValue(obj, "a.b"))
	assert.Equal(t, 1, PathValue(obj, "a.b.c.d"))
	assert.Equal(t, "value", PathValue(obj, "a.b.c.f"))
	assert.Nil(t, PathValue(obj, "a.b.g"))
	assert.False(t, IsAbsent(PathValue(obj, "a.b.g")), "explicit nil is a value")
	assert.Equal(t, "third", PathValue(obj, "a.b.h.i.2.t"))
	assert.Equal(t, false, PathValue(obj, "a.j"))
	assert.Equal(t, map[string]any{}, PathValue(obj, "a.k"))
	assert.Equal(t, "last", PathValue(obj, "l"))
	assert.Equal(t, 7, PathValue(obj, "m.o.p.2"))
}

func TestPathValue_Absent(t *testing.T) {
	obj := testObject()

	for _, path := range []string{
		"x",
		"a.x",
		"a.b.c.x",
		"a.b.h.i.x",
		"a.b.h.i.2.x",
		"a.k.x",
		"a.b.g.x",
		"l.c.3",
		"m.o.p.8",
		"m.o.p.-1",
		"a.j.x",
		"",
	} {
		assert.True(t, IsAbsent(PathValue(obj, path)), "path %q", path)
	}

	assert.True(t, IsAbsent(PathValue(nil, "a")))
	assert.True(t, IsAbsent(PathValue(42, "a")))
}

type inner struct {
	Count int `json:"count"`
}

type outer struct {
	Name   string
	Inner  *inner `json:"inner"`
	Tags   []string
	hidden int
}

func TestPathValue_Structs(t *testing.T) {
	v := &outer{Name: "cart", Inner: &inner{Count: 3}, Tags: []string{"x", "y"}, hidden: 1}

	assert.Equal(t, "cart", PathValue(v, "Name"))
	assert.Equal(t, 3, PathValue(v, "Inner.Count"))
	assert.Equal(t, 3, PathValue(v, "inner.count"), "json tag names resolve")
	assert.Equal(t, "y", PathValue(v, "Tags.1"))
	assert.True(t, IsAbsent(PathValue(v, "hidden")), "unexported fields are not visible")

	empty := &outer{}
	assert.True(t, IsAbsent(PathValue(empty, "Inner.Count")), "nil pointer stops the walk")
}

func TestPathValue_NonStringKeys(t *testing.T) {
	m := map[int]string{1: "one", 2: "two"}
	assert.Equal(t, "two", PathValue(m, "2"))
	assert.True(t, IsAbsent(PathValue(m, "3")))
}

func TestAbsentString(t *testing.T) {
	assert.Equal(t, "<absent>", Absent.(interface{ String() string }).String())
	assert.False(t, IsAbsent(nil))
}
