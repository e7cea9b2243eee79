// Package listate attaches change listeners to a store.
//
// A store is anything exposing GetState, Dispatch and Subscribe. Listen
// subscribes to it and, on every notification, runs a small pipeline:
//
//  1. read the state and reduce it with Filter to the tracked value
//  2. ask When whether the tracked value changed against the previous one
//  3. invoke Handle now, or after Delay when debouncing
//  4. tear the registration down after the first call when Once is set
//
// The previous tracked value and the previous state are seeded from the
// store at registration time and advance on every notification, whether
// or not the handler fired.
//
// CONCURRENCY:
//
// Notifications are expected to arrive serially, as stores deliver them.
// Debounced handlers fire on the Scheduler's goroutine. The registration
// guards its cursors with a mutex that is never held while Filter, When or
// Handle run, so a handler may dispatch to the same store and the nested
// notification completes before the outer one resumes.
//
// Package extra builds on Listen with path based filters and a structural
// default for When.
package listate
