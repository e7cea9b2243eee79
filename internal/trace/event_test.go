package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/listate/extra"
)

func TestNewEvent(t *testing.T) {
	e, err := NewEvent("run-1", 3, "total", 2, 150, map[string]any{"n": 1}, extra.Absent, nil)
	require.NoError(t, err)

	assert.Equal(t, Event{
		RunID:    "run-1",
		Seq:      3,
		Listener: "total",
		Step:     2,
		AtMS:     150,
		Current:  `{"n":1}`,
		Prev:     `{"$absent":true}`,
	}, e)
	assert.Equal(t, `#3 t=150ms step=2 total current={"n":1} prev={"$absent":true}`, e.String())
}

func TestNewEvent_Data(t *testing.T) {
	e, err := NewEvent("run-1", 1, "l", 0, 0, 1, 0, map[string]any{"tag": "x"})
	require.NoError(t, err)

	assert.Equal(t, `{"tag":"x"}`, e.Data)
	assert.Equal(t, `#1 t=0ms step=0 l current=1 prev=0 data={"tag":"x"}`, e.String())
}

func TestNewEvent_Error(t *testing.T) {
	_, err := NewEvent("run-1", 1, "l", 0, 0, func() {}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 1 current")
}

func TestRun_Filter(t *testing.T) {
	run := Run{Events: []Event{
		{Seq: 1, Listener: "a"},
		{Seq: 2, Listener: "b"},
		{Seq: 3, Listener: "a"},
	}}

	assert.Len(t, run.Filter(""), 3)
	assert.Equal(t, []Event{{Seq: 1, Listener: "a"}, {Seq: 3, Listener: "a"}}, run.Filter("a"))
	assert.Equal(t, []Event{}, run.Filter("missing"))
}
