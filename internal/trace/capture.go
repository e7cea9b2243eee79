package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

var (
	captureEncMode cbor.EncMode
	captureDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	captureEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	captureDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR decoder mode: %v", err))
	}
}

// EncodeRun writes run to w as a single CBOR item.
func EncodeRun(w io.Writer, run Run) error {
	if err := captureEncMode.NewEncoder(w).Encode(run); err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	return nil
}

// DecodeRun reads one run from r.
func DecodeRun(r io.Reader) (Run, error) {
	var run Run
	if err := captureDecMode.NewDecoder(r).Decode(&run); err != nil {
		return Run{}, fmt.Errorf("decode run: %w", err)
	}
	if run.Events == nil {
		run.Events = []Event{}
	}
	return run, nil
}

// WriteCapture writes run to the file at path, replacing it.
func WriteCapture(path string, run Run) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create capture: %w", err)
	}
	if err := EncodeRun(f, run); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCapture reads a capture file written by WriteCapture.
func ReadCapture(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()
	return DecodeRun(f)
}
