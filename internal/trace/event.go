package trace

import "fmt"

// Event is one fired notification.
//
// Current, Prev and Data hold canonical JSON. AtMS is the scheduler time
// at which the handler ran. Step is the index of the scenario step whose
// dispatch led to the notification; a debounced handler carries the step
// that scheduled it.
type Event struct {
	RunID    string `json:"run_id" cbor:"1,keyasint"`
	Seq      int    `json:"seq" cbor:"2,keyasint"`
	Listener string `json:"listener" cbor:"3,keyasint"`
	Step     int    `json:"step" cbor:"4,keyasint"`
	AtMS     int64  `json:"at_ms" cbor:"5,keyasint"`
	Current  string `json:"current" cbor:"6,keyasint"`
	Prev     string `json:"prev" cbor:"7,keyasint"`
	Data     string `json:"data,omitempty" cbor:"8,keyasint,omitempty"`
}

// String renders the event on one line, the format used by golden traces.
func (e Event) String() string {
	s := fmt.Sprintf("#%d t=%dms step=%d %s current=%s prev=%s", e.Seq, e.AtMS, e.Step, e.Listener, e.Current, e.Prev)
	if e.Data != "" {
		s += " data=" + e.Data
	}
	return s
}

// Run is the trace of one scenario execution.
type Run struct {
	ID       string  `json:"id" cbor:"1,keyasint"`
	Scenario string  `json:"scenario" cbor:"2,keyasint"`
	Events   []Event `json:"events" cbor:"3,keyasint"`
}

// NewEvent builds an event, rendering the values as canonical JSON.
func NewEvent(runID string, seq int, listener string, step int, atMS int64, current, prev, data any) (Event, error) {
	cur, err := CanonicalString(current)
	if err != nil {
		return Event{}, fmt.Errorf("event %d current: %w", seq, err)
	}
	prv, err := CanonicalString(prev)
	if err != nil {
		return Event{}, fmt.Errorf("event %d prev: %w", seq, err)
	}

	e := Event{
		RunID:    runID,
		Seq:      seq,
		Listener: listener,
		Step:     step,
		AtMS:     atMS,
		Current:  cur,
		Prev:     prv,
	}
	if data != nil {
		e.Data, err = CanonicalString(data)
		if err != nil {
			return Event{}, fmt.Errorf("event %d data: %w", seq, err)
		}
	}
	return e, nil
}

// Filter returns the events fired by listener, in order.
// An empty listener matches every event.
func (r Run) Filter(listener string) []Event {
	out := []Event{}
	for _, e := range r.Events {
		if listener == "" || e.Listener == listener {
			out = append(out, e)
		}
	}
	return out
}
