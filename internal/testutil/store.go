package testutil

import (
	"maps"

	"github.com/roach88/listate/internal/memstore"
)

// Action is the action type understood by CounterReducer.
type Action struct {
	Type    string
	Key     string
	Value   any
	Payload int
}

// Inc increments the counter by one.
func Inc() Action { return Action{Type: "INC", Payload: 1} }

// IncBy increments the counter by n.
func IncBy(n int) Action { return Action{Type: "INC", Payload: n} }

// Set stores value under key in the "map" section.
func Set(key string, value any) Action { return Action{Type: "SET", Key: key, Value: value} }

// InitialState returns a fresh state: {counter: 0, data: {}, map: {}}.
func InitialState() map[string]any {
	return map[string]any{
		"counter": 0,
		"data":    map[string]any{},
		"map":     map[string]any{},
	}
}

// CounterReducer copies the touched parts of the state on every change and
// returns the same state for unknown actions.
func CounterReducer(state any, action any) any {
	st := state.(map[string]any)
	act, ok := action.(Action)
	if !ok {
		return st
	}

	switch act.Type {
	case "INC":
		next := maps.Clone(st)
		next["counter"] = st["counter"].(int) + act.Payload
		return next
	case "SET":
		next := maps.Clone(st)
		section := maps.Clone(st["map"].(map[string]any))
		section[act.Key] = act.Value
		next["map"] = section
		return next
	default:
		return st
	}
}

// NewCounterStore creates a memstore seeded with InitialState.
func NewCounterStore() *memstore.Store {
	return memstore.New(CounterReducer, InitialState())
}
