// Package harness runs listener scenarios against an in-memory store.
//
// A scenario declares an initial state, a set of listeners, a timed list
// of steps and assertions over the notifications that fired. Scenarios are
// YAML or CUE files:
//
//	name: debounce
//	description: "rapid increments settle into one call"
//	initial: {counter: 0}
//	listeners:
//	  - name: settled
//	    filter: {path: counter}
//	    delay_ms: 200
//	steps:
//	  - {at_ms: 0, action: inc, path: counter}
//	  - {at_ms: 100, action: inc, path: counter}
//	assertions:
//	  - {type: fire_count, listener: settled, count: 1}
//
// # Listeners
//
// api selects the registration entry point: "extra" (default) uses
// extra.Listen, "base" uses listate.Listen. when picks the predicate:
// "base" (reference identity), "unlike" or "deep". The default follows the
// api. filter takes exactly one of path, fields, parts or query.
//
// # Steps
//
//   - set: store value at path
//   - inc: add by (default 1) to the integer at path
//   - delete: remove the key or element at path
//   - touch: replace the container at path with a copy holding the same entries
//   - noop: dispatch an action the reducer ignores
//   - unlisten: detach the named listener
//
// # Assertion Types
//
//   - fire_count: the listener fired exactly count times
//   - fire_order: listeners first fired in the given order
//   - last_value: the last Current seen by the listener equals value
//   - final_state: the value at path in the final state equals value
//
// # Deterministic Execution
//
// Time is virtual (testutil.ManualScheduler): before each step the clock
// advances to its at_ms, firing due debounced handlers, and after the last
// step every pending handler is drained. Values are recorded as canonical
// JSON, so a scenario always produces byte-identical traces.
package harness
