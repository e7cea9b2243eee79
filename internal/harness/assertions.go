package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/listate/extra"
	"github.com/roach88/listate/internal/trace"
)

// AssertionError is a failed assertion with its expected and actual outcome.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

func evaluateAssertions(result *Result, assertions []Assertion) {
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFireCount:
		return assertFireCount(result.Run, a)
	case AssertFireOrder:
		return assertFireOrder(result.Run, a)
	case AssertLastValue:
		return assertLastValue(result.Run, a)
	case AssertFinalState:
		return assertFinalState(result.Final, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertFireCount(run trace.Run, a Assertion) error {
	got := len(run.Filter(a.Listener))
	if got != a.Count {
		return &AssertionError{
			Type:     AssertFireCount,
			Expected: fmt.Sprintf("%s to fire %d times", a.Listener, a.Count),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

// assertFireOrder checks the first firing of each listener follows the
// given order. Other events may come in between.
func assertFireOrder(run trace.Run, a Assertion) error {
	first := make(map[string]int)
	for _, e := range run.Events {
		if _, seen := first[e.Listener]; !seen {
			first[e.Listener] = e.Seq
		}
	}

	for _, name := range a.Listeners {
		if _, ok := first[name]; !ok {
			return &AssertionError{
				Type:     AssertFireOrder,
				Expected: fmt.Sprintf("all listeners fired: %s", strings.Join(a.Listeners, ", ")),
				Actual:   fmt.Sprintf("%s never fired", name),
			}
		}
	}

	for i := 1; i < len(a.Listeners); i++ {
		prev, cur := a.Listeners[i-1], a.Listeners[i]
		if first[prev] >= first[cur] {
			return &AssertionError{
				Type:     AssertFireOrder,
				Expected: fmt.Sprintf("%s before %s", prev, cur),
				Actual:   fmt.Sprintf("%s first at #%d, %s first at #%d", prev, first[prev], cur, first[cur]),
			}
		}
	}
	return nil
}

func assertLastValue(run trace.Run, a Assertion) error {
	events := run.Filter(a.Listener)
	want, err := trace.CanonicalString(a.Value)
	if err != nil {
		return fmt.Errorf("last_value %s: %w", a.Listener, err)
	}
	if len(events) == 0 {
		return &AssertionError{
			Type:     AssertLastValue,
			Expected: fmt.Sprintf("%s to end with %s", a.Listener, want),
			Actual:   "no notifications",
		}
	}

	got := events[len(events)-1].Current
	if got != want {
		return &AssertionError{
			Type:     AssertLastValue,
			Expected: fmt.Sprintf("%s to end with %s", a.Listener, want),
			Actual:   got,
		}
	}
	return nil
}

func assertFinalState(final any, a Assertion) error {
	want, err := trace.CanonicalString(a.Value)
	if err != nil {
		return fmt.Errorf("final_state %s: %w", a.Path, err)
	}
	got, err := trace.CanonicalString(extra.PathValue(final, a.Path))
	if err != nil {
		return fmt.Errorf("final_state %s: %w", a.Path, err)
	}
	if got != want {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s = %s", a.Path, want),
			Actual:   got,
		}
	}
	return nil
}
