package extra

import (
	"fmt"

	"github.com/theory/jsonpath"

	"github.com/roach88/listate"
)

// QueryFilter returns a filter yielding the first node selected by the
// RFC 9535 JSONPath expression expr, or Absent when nothing matches.
//
// Queries apply to JSON-shaped state (map[string]any, []any and scalars).
//
//	f, _ := QueryFilter("$.cart.items[0].sku")
func QueryFilter(expr string) (listate.Filter, error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse query %q: %w", expr, err)
	}

	return func(state any) any {
		nodes := path.Select(state)
		if len(nodes) == 0 {
			return Absent
		}
		return nodes[0]
	}, nil
}
