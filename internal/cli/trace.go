package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/listate/internal/harness"
	"github.com/roach88/listate/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Listener string // optional - filter to one listener
	Capture  string // read a CBOR capture instead of the database
}

// TraceStats summarizes a stored run.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByListener  map[string]int `json:"by_listener"`
}

// TraceResult is the JSON payload of the trace command.
type TraceResult struct {
	RunID    string        `json:"run_id"`
	Scenario string        `json:"scenario"`
	Events   []trace.Event `json:"events"`
	Stats    TraceStats    `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show a stored run",
		Long: `Show the notifications of a run stored by "listate run --db",
or of a capture file written by "listate run --capture".

Without --run, lists the run IDs in the database.

Examples:
  listate trace --db ./trace.db
  listate trace --db ./trace.db --run 0190a7c2-...
  listate trace --db ./trace.db --run 0190a7c2-... --listener settled
  listate trace --capture ./once.cbor --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite trace database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Listener, "listener", "", "only show this listener")
	cmd.Flags().StringVar(&opts.Capture, "capture", "", "read a CBOR capture file")
	cmd.MarkFlagsMutuallyExclusive("db", "capture")
	cmd.MarkFlagsOneRequired("db", "capture")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var run trace.Run
	if opts.Capture != "" {
		r, err := trace.ReadCapture(opts.Capture)
		if err != nil {
			_ = formatter.Error(ErrCodeCapture, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read capture", err)
		}
		r.Events = r.Filter(opts.Listener)
		run = r
	} else {
		log, err := trace.OpenLog(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer log.Close()

		if opts.RunID == "" {
			return listRuns(formatter, log, cmd)
		}

		run, err = log.ReadRun(cmd.Context(), opts.RunID, opts.Listener)
		if errors.Is(err, trace.ErrRunNotFound) {
			_ = formatter.Error(ErrCodeRunNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
	}

	result := TraceResult{
		RunID:    run.ID,
		Scenario: run.Scenario,
		Events:   run.Events,
		Stats:    traceStats(run),
	}
	return formatter.Success(result, formatTraceText(result))
}

func listRuns(formatter *OutputFormatter, log *trace.Log, cmd *cobra.Command) error {
	ids, err := log.RunIDs(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	text := "No runs stored.\n"
	if len(ids) > 0 {
		text = strings.Join(ids, "\n") + "\n"
	}
	return formatter.Success(map[string]any{"runs": ids}, text)
}

func traceStats(run trace.Run) TraceStats {
	stats := TraceStats{TotalEvents: len(run.Events), ByListener: map[string]int{}}
	for _, e := range run.Events {
		stats.ByListener[e.Listener]++
	}
	return stats
}

func formatTraceText(r TraceResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s)\n", r.RunID, r.Scenario)
	b.WriteString(harness.FormatTrace(trace.Run{Events: r.Events}))
	fmt.Fprintf(&b, "%d notification(s)\n", r.Stats.TotalEvents)
	return b.String()
}
