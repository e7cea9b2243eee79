package harness

import (
	"fmt"

	"github.com/roach88/listate/internal/trace"
)

// Error codes for scenario problems.
const (
	ErrCodeRead    = "E_READ"    // file could not be read
	ErrCodeParse   = "E_PARSE"   // YAML or CUE is malformed
	ErrCodeInvalid = "E_INVALID" // scenario fails validation
	ErrCodeFormat  = "E_FORMAT"  // unsupported file extension
)

// ScenarioError describes a scenario that cannot be loaded or run.
type ScenarioError struct {
	Code    string
	Message string
	Err     error
}

func (e *ScenarioError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...any) *ScenarioError {
	return &ScenarioError{Code: ErrCodeInvalid, Message: fmt.Sprintf(format, args...)}
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Run holds the fired notifications in firing order.
	Run trace.Run `json:"run"`

	// Errors lists failed assertions.
	Errors []string `json:"errors,omitempty"`

	// Final is the store state after all steps and drained timers.
	Final any `json:"-"`

	// Dispatches counts the actions the store reduced.
	Dispatches int `json:"dispatches"`
}

// NewResult creates a passing result for run.
func NewResult(runID, scenario string) *Result {
	return &Result{
		Pass:   true,
		Run:    trace.Run{ID: runID, Scenario: scenario, Events: []trace.Event{}},
		Errors: []string{},
	}
}

// AddError records a failed assertion.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns how many times listener fired.
func (r *Result) Count(listener string) int {
	return len(r.Run.Filter(listener))
}
