package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/listate/internal/harness"
)

// ValidationResult is one validated scenario file.
type ValidationResult struct {
	Path      string `json:"path"`
	Name      string `json:"name,omitempty"`
	Valid     bool   `json:"valid"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Listeners int    `json:"listeners,omitempty"`
	Steps     int    `json:"steps,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files without running them",
		Long: `Parse and validate YAML or CUE scenario files.

Checks unknown fields, filter and step definitions, and references to
listener names, without executing anything.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	results := make([]ValidationResult, 0, len(paths))
	invalid := 0
	for _, path := range paths {
		r := validateFile(path)
		if !r.Valid {
			invalid++
		}
		formatter.VerboseLog("validated %s: valid=%t", path, r.Valid)
		results = append(results, r)
	}

	var b strings.Builder
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(&b, "✓ %s (%s: %d listener(s), %d step(s))\n", r.Path, r.Name, r.Listeners, r.Steps)
		} else {
			fmt.Fprintf(&b, "✗ %s\n  %s\n", r.Path, r.Message)
		}
	}

	if invalid > 0 {
		msg := fmt.Sprintf("%d of %d scenario(s) invalid", invalid, len(results))
		if err := formatter.Failure(harness.ErrCodeInvalid, msg, results, b.String()); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, msg)
	}
	return formatter.Success(results, b.String())
}

func validateFile(path string) ValidationResult {
	s, err := harness.LoadScenario(path)
	if err != nil {
		r := ValidationResult{Path: path, Code: ErrCodeGeneric, Message: err.Error()}
		var se *harness.ScenarioError
		if errors.As(err, &se) {
			r.Code = se.Code
		}
		return r
	}
	return ValidationResult{
		Path:      path,
		Name:      s.Name,
		Valid:     true,
		Listeners: len(s.Listeners),
		Steps:     len(s.Steps),
	}
}
