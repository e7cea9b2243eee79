package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/listate/extra"
)

// Scenario describes one listener run.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// RunID fixes the run identifier. When empty a UUIDv7 is generated.
	RunID string `yaml:"run_id,omitempty" json:"run_id,omitempty"`

	// Initial is the starting state. Defaults to an empty map.
	Initial any `yaml:"initial,omitempty" json:"initial,omitempty"`

	Listeners  []ListenerSpec `yaml:"listeners" json:"listeners"`
	Steps      []Step         `yaml:"steps" json:"steps"`
	Assertions []Assertion    `yaml:"assertions,omitempty" json:"assertions,omitempty"`
}

// ListenerSpec declares one registration.
type ListenerSpec struct {
	Name string `yaml:"name" json:"name"`

	// API is "extra" (default) or "base".
	API string `yaml:"api,omitempty" json:"api,omitempty"`

	Filter *FilterSpec `yaml:"filter,omitempty" json:"filter,omitempty"`

	// When is "base", "unlike" or "deep". Defaults to "unlike" for the
	// extra api and "base" for the base api.
	When string `yaml:"when,omitempty" json:"when,omitempty"`

	// DelayMS debounces the handler. Absent means immediate; a negative
	// value is immediate too.
	DelayMS *int64 `yaml:"delay_ms,omitempty" json:"delay_ms,omitempty"`

	Once bool `yaml:"once,omitempty" json:"once,omitempty"`
	Data any  `yaml:"data,omitempty" json:"data,omitempty"`
}

// FilterSpec selects the tracked part of the state. Exactly one field is set.
type FilterSpec struct {
	Path   string            `yaml:"path,omitempty" json:"path,omitempty"`
	Fields []string          `yaml:"fields,omitempty" json:"fields,omitempty"`
	Parts  map[string]string `yaml:"parts,omitempty" json:"parts,omitempty"`
	Query  string            `yaml:"query,omitempty" json:"query,omitempty"`
}

// Step is one dispatch or control action at a virtual time.
type Step struct {
	AtMS     int64  `yaml:"at_ms,omitempty" json:"at_ms,omitempty"`
	Action   string `yaml:"action" json:"action"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	Value    any    `yaml:"value,omitempty" json:"value,omitempty"`
	By       *int   `yaml:"by,omitempty" json:"by,omitempty"`
	Listener string `yaml:"listener,omitempty" json:"listener,omitempty"`
}

// Assertion checks the trace or the final state.
type Assertion struct {
	Type      string   `yaml:"type" json:"type"`
	Listener  string   `yaml:"listener,omitempty" json:"listener,omitempty"`
	Listeners []string `yaml:"listeners,omitempty" json:"listeners,omitempty"`
	Count     int      `yaml:"count,omitempty" json:"count,omitempty"`
	Path      string   `yaml:"path,omitempty" json:"path,omitempty"`
	Value     any      `yaml:"value,omitempty" json:"value,omitempty"`
}

// Step actions.
const (
	ActionSet      = "set"
	ActionInc      = "inc"
	ActionDelete   = "delete"
	ActionTouch    = "touch"
	ActionNoop     = "noop"
	ActionUnlisten = "unlisten"
)

// Assertion types.
const (
	AssertFireCount  = "fire_count"
	AssertFireOrder  = "fire_order"
	AssertLastValue  = "last_value"
	AssertFinalState = "final_state"
)

// Listener apis and predicates.
const (
	APIExtra   = "extra"
	APIBase    = "base"
	WhenBase   = "base"
	WhenUnlike = "unlike"
	WhenDeep   = "deep"
)

// LoadScenario reads a .yaml, .yml or .cue scenario file and validates it.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ScenarioError{Code: ErrCodeRead, Message: "read scenario file", Err: err}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".cue":
		return ParseCUE(data, filepath.Base(path))
	default:
		return nil, &ScenarioError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported scenario extension %q", ext)}
	}
}

// ParseYAML decodes a scenario, rejecting unknown fields.
func ParseYAML(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, &ScenarioError{Code: ErrCodeParse, Message: "parse YAML", Err: err}
	}
	return finish(&s)
}

// ParseCUE evaluates a CUE scenario. The value must be concrete.
// Unknown fields are rejected the same way as in YAML.
func ParseCUE(data []byte, filename string) (*Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, &ScenarioError{Code: ErrCodeParse, Message: "compile CUE", Err: err}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &ScenarioError{Code: ErrCodeParse, Message: "CUE value is not concrete", Err: err}
	}

	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, &ScenarioError{Code: ErrCodeParse, Message: "export CUE", Err: err}
	}

	var s Scenario
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	decoder.UseNumber()
	if err := decoder.Decode(&s); err != nil {
		return nil, &ScenarioError{Code: ErrCodeParse, Message: "decode CUE", Err: err}
	}
	return finish(&s)
}

// finish normalizes decoded values and validates the scenario.
func finish(s *Scenario) (*Scenario, error) {
	s.Initial = normalizeValue(s.Initial)
	for i := range s.Listeners {
		s.Listeners[i].Data = normalizeValue(s.Listeners[i].Data)
	}
	for i := range s.Steps {
		s.Steps[i].Value = normalizeValue(s.Steps[i].Value)
	}
	for i := range s.Assertions {
		s.Assertions[i].Value = normalizeValue(s.Assertions[i].Value)
	}

	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks required fields and cross references.
func Validate(s *Scenario) error {
	if s.Name == "" {
		return invalid("name is required")
	}
	if len(s.Listeners) == 0 {
		return invalid("listeners list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Listeners))
	for i, l := range s.Listeners {
		if err := validateListener(i, l); err != nil {
			return err
		}
		if names[l.Name] {
			return invalid("listeners[%d]: duplicate name %q", i, l.Name)
		}
		names[l.Name] = true
	}

	var last int64
	for i, step := range s.Steps {
		if err := validateStep(i, step, names); err != nil {
			return err
		}
		if step.AtMS < last {
			return invalid("steps[%d]: at_ms %d is before the previous step (%d)", i, step.AtMS, last)
		}
		last = step.AtMS
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, names); err != nil {
			return err
		}
	}
	return nil
}

func validateListener(i int, l ListenerSpec) error {
	if l.Name == "" {
		return invalid("listeners[%d]: name is required", i)
	}
	switch l.API {
	case "", APIExtra, APIBase:
	default:
		return invalid("listeners[%d]: unknown api %q", i, l.API)
	}
	switch l.When {
	case "", WhenBase, WhenUnlike, WhenDeep:
	default:
		return invalid("listeners[%d]: unknown when %q", i, l.When)
	}

	if f := l.Filter; f != nil {
		set := 0
		if f.Path != "" {
			set++
		}
		if len(f.Fields) > 0 {
			set++
		}
		if len(f.Parts) > 0 {
			set++
		}
		if f.Query != "" {
			set++
			if _, err := extra.QueryFilter(f.Query); err != nil {
				return &ScenarioError{Code: ErrCodeInvalid, Message: fmt.Sprintf("listeners[%d]: bad query", i), Err: err}
			}
		}
		if set != 1 {
			return invalid("listeners[%d]: filter needs exactly one of path, fields, parts or query", i)
		}
	}
	return nil
}

func validateStep(i int, step Step, listeners map[string]bool) error {
	if step.AtMS < 0 {
		return invalid("steps[%d]: at_ms must be non-negative", i)
	}
	switch step.Action {
	case ActionSet, ActionInc, ActionDelete:
		if step.Path == "" {
			return invalid("steps[%d]: path is required for %s", i, step.Action)
		}
	case ActionTouch, ActionNoop:
	case ActionUnlisten:
		if !listeners[step.Listener] {
			return invalid("steps[%d]: unknown listener %q", i, step.Listener)
		}
	case "":
		return invalid("steps[%d]: action is required", i)
	default:
		return invalid("steps[%d]: unknown action %q", i, step.Action)
	}
	return nil
}

func validateAssertion(i int, a Assertion, listeners map[string]bool) error {
	switch a.Type {
	case AssertFireCount, AssertLastValue:
		if !listeners[a.Listener] {
			return invalid("assertions[%d]: unknown listener %q for %s", i, a.Listener, a.Type)
		}
		if a.Count < 0 {
			return invalid("assertions[%d]: count must be non-negative", i)
		}
	case AssertFireOrder:
		if len(a.Listeners) == 0 {
			return invalid("assertions[%d]: listeners list is required for fire_order", i)
		}
		for _, name := range a.Listeners {
			if !listeners[name] {
				return invalid("assertions[%d]: unknown listener %q for fire_order", i, name)
			}
		}
	case AssertFinalState:
		if a.Path == "" {
			return invalid("assertions[%d]: path is required for final_state", i)
		}
	case "":
		return invalid("assertions[%d]: type is required", i)
	default:
		return invalid("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}

// normalizeValue converts decoded numbers to int where they are whole and
// rebuilds containers as map[string]any and []any.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		f, _ := val.Float64()
		return f
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeValue(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
