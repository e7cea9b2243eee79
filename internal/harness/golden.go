package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/listate/internal/trace"
)

// FormatTrace renders run as text, one event per line.
func FormatTrace(run trace.Run) string {
	var b strings.Builder
	for _, e := range run.Events {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// RunWithGolden executes a scenario and compares its trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the trace of result with the named golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(FormatTrace(result.Run)))
}
