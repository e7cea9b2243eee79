package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/listate"
	"github.com/roach88/listate/internal/harness"
	"github.com/roach88/listate/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Capture  string

	// IDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs listate.IDGenerator
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	RunID      string        `json:"run_id"`
	Scenario   string        `json:"scenario"`
	Pass       bool          `json:"pass"`
	Dispatches int           `json:"dispatches"`
	Events     []trace.Event `json:"events"`
	Errors     []string      `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a listener scenario",
		Long: `Run a YAML or CUE scenario and print the notifications that fired.

The trace can be appended to a SQLite log (--db) for the trace command,
and written as a CBOR capture file (--capture).

Exit codes:
  0 - All assertions held
  1 - One or more assertions failed
  2 - Command error (bad scenario, unwritable database, etc.)

Examples:
  listate run ./scenarios/debounce.yaml
  listate run ./scenarios/once.cue --db ./trace.db --capture ./once.cbor
  listate run ./scenarios/debounce.yaml --format json -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "append the trace to this SQLite database")
	cmd.Flags().StringVar(&opts.Capture, "capture", "", "write the trace to this CBOR file")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.Logger(cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	logger.Debug("running scenario", "name", scenario.Name, "listeners", len(scenario.Listeners), "steps", len(scenario.Steps))

	result, err := harness.RunWithOptions(scenario, harness.Options{IDs: opts.IDs, Logger: logger})
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	if opts.Database != "" {
		if err := appendToLog(cmd, opts.Database, result.Run); err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to store trace", err)
		}
		logger.Info("trace stored", "db", opts.Database, "run", result.Run.ID)
	}

	if opts.Capture != "" {
		if err := trace.WriteCapture(opts.Capture, result.Run); err != nil {
			_ = formatter.Error(ErrCodeCapture, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write capture", err)
		}
		logger.Info("capture written", "path", opts.Capture)
	}

	out := RunOutput{
		RunID:      result.Run.ID,
		Scenario:   result.Run.Scenario,
		Pass:       result.Pass,
		Dispatches: result.Dispatches,
		Events:     result.Run.Events,
		Errors:     result.Errors,
	}
	text := formatRunText(result)

	if !result.Pass {
		msg := fmt.Sprintf("%d assertion(s) failed", len(result.Errors))
		if err := formatter.Failure(ErrCodeAssertion, msg, out, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(out, text)
}

func appendToLog(cmd *cobra.Command, path string, run trace.Run) error {
	log, err := trace.OpenLog(path)
	if err != nil {
		return err
	}
	defer log.Close()
	return log.Append(cmd.Context(), run)
}

func formatRunText(result *harness.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s)\n", result.Run.ID, result.Run.Scenario)
	b.WriteString(harness.FormatTrace(result.Run))
	status := "pass"
	if !result.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "%d notification(s), %d dispatch(es): %s\n", len(result.Run.Events), result.Dispatches, status)
	for _, e := range result.Errors {
		fmt.Fprintf(&b, "  %s\n", e)
	}
	return b.String()
}
