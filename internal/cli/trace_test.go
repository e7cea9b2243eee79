package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeDebounceRun runs the debounce scenario into a fresh database and
// capture file.
func storeDebounceRun(t *testing.T) (dbPath, capturePath string) {
	t.Helper()
	dir := t.TempDir()
	path := writeFile(t, dir, "debounce.yaml", debounceScenario)
	dbPath = filepath.Join(dir, "trace.db")
	capturePath = filepath.Join(dir, "debounce.cbor")

	_, _, err := execute(NewRunCommand(&RootOptions{Format: "text"}), path, "--db", dbPath, "--capture", capturePath)
	require.NoError(t, err)
	return dbPath, capturePath
}

func TestTraceCommandRequiresSource(t *testing.T) {
	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one of the flags in the group [db capture] is required")
}

func TestTraceCommandListRuns(t *testing.T) {
	dbPath, _ := storeDebounceRun(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "run-debounce\n", out)
}

func TestTraceCommandEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No runs stored.\n", out)
}

func TestTraceCommandShowRun(t *testing.T) {
	dbPath, _ := storeDebounceRun(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "run-debounce")
	require.NoError(t, err)
	assert.Equal(t, "run run-debounce (debounce)\n"+debounceTrace+"4 notification(s)\n", out)
}

func TestTraceCommandListenerFilter(t *testing.T) {
	dbPath, _ := storeDebounceRun(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}),
		"--db", dbPath, "--run", "run-debounce", "--listener", "settled")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Events, 1)
	assert.Equal(t, 4, resp.Data.Events[0].Seq)
	assert.Equal(t, map[string]int{"settled": 1}, resp.Data.Stats.ByListener)
}

func TestTraceCommandRunNotFound(t *testing.T) {
	dbPath, _ := storeDebounceRun(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_RUN_NOT_FOUND]")
}

func TestTraceCommandCapture(t *testing.T) {
	_, capturePath := storeDebounceRun(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--capture", capturePath, "--listener", "every")
	require.NoError(t, err)
	assert.Contains(t, out, "run run-debounce (debounce)\n")
	assert.Contains(t, out, "3 notification(s)\n")
	assert.NotContains(t, out, "settled")
}

func TestTraceCommandSourcesExclusive(t *testing.T) {
	dbPath, capturePath := storeDebounceRun(t)

	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--capture", capturePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}
