package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const debounceScenario = `name: debounce
run_id: run-debounce
initial:
  counter: 0
listeners:
  - name: every
    filter: {path: counter}
  - name: settled
    filter: {path: counter}
    delay_ms: 200
steps:
  - {at_ms: 0, action: inc, path: counter}
  - {at_ms: 100, action: inc, path: counter}
  - {at_ms: 150, action: inc, path: counter}
assertions:
  - {type: fire_count, listener: every, count: 3}
  - {type: fire_count, listener: settled, count: 1}
`

const debounceTrace = `#1 t=0ms step=0 every current=1 prev=0
#2 t=100ms step=1 every current=2 prev=1
#3 t=150ms step=2 every current=3 prev=2
#4 t=350ms step=2 settled current=3 prev=2
`

const failingScenario = `name: failing
run_id: run-failing
initial:
  n: 0
listeners:
  - name: watch
    filter: {path: n}
steps:
  - {action: set, path: n, value: 1}
assertions:
  - {type: fire_count, listener: watch, count: 5}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns its stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
