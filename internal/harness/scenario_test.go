package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
name: minimal
listeners:
  - name: all
steps:
  - {action: inc, path: n}
`

func TestParseYAML_Minimal(t *testing.T) {
	s, err := ParseYAML([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Listeners, 1)
	assert.Equal(t, "all", s.Listeners[0].Name)
	assert.Nil(t, s.Listeners[0].Filter)
	assert.Nil(t, s.Listeners[0].DelayMS)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, ActionInc, s.Steps[0].Action)
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML([]byte(minimalYAML + "assertion: []\n"))
	require.Error(t, err)

	var se *ScenarioError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ErrCodeParse, se.Code)
}

func TestParseYAML_Malformed(t *testing.T) {
	_, err := ParseYAML([]byte("name: [unclosed"))
	require.Error(t, err)

	var se *ScenarioError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeParse, se.Code)
}

func TestParseYAML_Values(t *testing.T) {
	s, err := ParseYAML([]byte(`
name: values
initial: {a: {b: [1, 2.5, "x", null, true]}}
listeners:
  - name: l
    delay_ms: 0
    data: {n: 1}
steps: []
`))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": map[string]any{"b": []any{1, 2.5, "x", nil, true}}}, s.Initial)
	require.NotNil(t, s.Listeners[0].DelayMS)
	assert.Equal(t, int64(0), *s.Listeners[0].DelayMS)
	assert.Equal(t, map[string]any{"n": 1}, s.Listeners[0].Data)
}

func TestParseCUE(t *testing.T) {
	s, err := ParseCUE([]byte(`
name: "cue"
initial: {n: 0, f: 1.5}
listeners: [{name: "l", filter: path: "n", delay_ms: 20}]
steps: [{action: "inc", path: "n", by: 3}]
assertions: [{type: "final_state", path: "n", value: 3}]
`), "cue.cue")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"n": 0, "f": 1.5}, s.Initial)
	require.NotNil(t, s.Listeners[0].Filter)
	assert.Equal(t, "n", s.Listeners[0].Filter.Path)
	assert.Equal(t, int64(20), *s.Listeners[0].DelayMS)
	require.NotNil(t, s.Steps[0].By)
	assert.Equal(t, 3, *s.Steps[0].By)
	assert.Equal(t, 3, s.Assertions[0].Value)
}

func TestParseCUE_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `name: "x`},
		{"not concrete", `name: string, listeners: [{name: "l"}], steps: []`},
		{"conflict", `name: "a", name: "b"`},
		{"unknown field", `name: "x", listeners: [{name: "l"}], steps: [], extra: 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE([]byte(tt.src), "bad.cue")
			require.Error(t, err)

			var se *ScenarioError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, ErrCodeParse, se.Code)
		})
	}
}

func TestLoadScenario_Files(t *testing.T) {
	for _, name := range []string{"debounce.yaml", "compare.yaml", "once.cue"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
			require.NoError(t, err)
			assert.NotEmpty(t, s.Name)
			assert.NotEmpty(t, s.RunID)
		})
	}
}

func TestLoadScenario_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadScenario(filepath.Join(dir, "missing.yaml"))
	var se *ScenarioError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeRead, se.Code)

	txt := filepath.Join(dir, "scenario.txt")
	require.NoError(t, os.WriteFile(txt, []byte(minimalYAML), 0o644))
	_, err = LoadScenario(txt)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeFormat, se.Code)

	yml := filepath.Join(dir, "scenario.yml")
	require.NoError(t, os.WriteFile(yml, []byte(minimalYAML), 0o644))
	_, err = LoadScenario(yml)
	assert.NoError(t, err)
}

func validScenario() *Scenario {
	return &Scenario{
		Name:      "valid",
		Listeners: []ListenerSpec{{Name: "a"}, {Name: "b"}},
		Steps:     []Step{{Action: ActionInc, Path: "n"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Scenario)
		want   string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no listeners", func(s *Scenario) { s.Listeners = nil }, "listeners list is required"},
		{"unnamed listener", func(s *Scenario) { s.Listeners[0].Name = "" }, "listeners[0]: name is required"},
		{"duplicate listener", func(s *Scenario) { s.Listeners[1].Name = "a" }, `duplicate name "a"`},
		{"unknown api", func(s *Scenario) { s.Listeners[0].API = "v2" }, `unknown api "v2"`},
		{"unknown when", func(s *Scenario) { s.Listeners[0].When = "sometimes" }, `unknown when "sometimes"`},
		{"empty filter", func(s *Scenario) { s.Listeners[0].Filter = &FilterSpec{} }, "exactly one of"},
		{"two filters", func(s *Scenario) {
			s.Listeners[0].Filter = &FilterSpec{Path: "a", Fields: []string{"b"}}
		}, "exactly one of"},
		{"bad query", func(s *Scenario) { s.Listeners[0].Filter = &FilterSpec{Query: "$["} }, "bad query"},
		{"missing action", func(s *Scenario) { s.Steps[0].Action = "" }, "steps[0]: action is required"},
		{"unknown action", func(s *Scenario) { s.Steps[0].Action = "explode" }, `unknown action "explode"`},
		{"missing path", func(s *Scenario) { s.Steps[0].Path = "" }, "path is required for inc"},
		{"unknown unlisten", func(s *Scenario) {
			s.Steps = append(s.Steps, Step{Action: ActionUnlisten, Listener: "zz"})
		}, `unknown listener "zz"`},
		{"negative time", func(s *Scenario) { s.Steps[0].AtMS = -1 }, "at_ms must be non-negative"},
		{"time goes back", func(s *Scenario) {
			s.Steps = []Step{{AtMS: 10, Action: ActionNoop}, {AtMS: 5, Action: ActionNoop}}
		}, "before the previous step"},
		{"missing assertion type", func(s *Scenario) { s.Assertions = []Assertion{{}} }, "type is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions = []Assertion{{Type: "vibes"}} }, `unknown assertion type "vibes"`},
		{"count for unknown listener", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertFireCount, Listener: "zz"}}
		}, `unknown listener "zz"`},
		{"empty order", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertFireOrder}} }, "listeners list is required for fire_order"},
		{"final state without path", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertFinalState}}
		}, "path is required for final_state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScenario()
			tt.mutate(s)

			err := Validate(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var se *ScenarioError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, ErrCodeInvalid, se.Code)
		})
	}

	assert.NoError(t, Validate(validScenario()))
}
