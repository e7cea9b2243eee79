package trace

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.cbor")
	run := sampleRun("run-1")

	require.NoError(t, WriteCapture(path, run))

	got, err := ReadCapture(path)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestCapture_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, EncodeRun(&a, sampleRun("run-1")))
	require.NoError(t, EncodeRun(&b, sampleRun("run-1")))

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestCapture_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeRun(&buf, Run{ID: "quiet"}))

	got, err := DecodeRun(&buf)
	require.NoError(t, err)
	assert.Equal(t, "quiet", got.ID)
	assert.Equal(t, []Event{}, got.Events)
}

func TestCapture_Errors(t *testing.T) {
	_, err := ReadCapture(filepath.Join(t.TempDir(), "missing.cbor"))
	assert.Error(t, err)

	_, err = DecodeRun(bytes.NewReader([]byte{0xff}))
	assert.Error(t, err)
}
