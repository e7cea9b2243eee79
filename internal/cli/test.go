package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/listate/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run every scenario in a directory",
		Long: `Run every YAML and CUE scenario found under a directory.

A scenario passes when its assertions hold and, if a golden file exists
at golden/<file>.golden next to it, its trace matches that file.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  listate test ./scenarios
  listate test ./scenarios --filter "debounce*"
  listate test ./scenarios --update
  listate test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	if len(files) == 0 {
		return formatter.Success(result, "No scenarios found.\n")
	}

	for _, file := range files {
		r := runScenario(opts, file)
		formatter.VerboseLog("%s: pass=%t", file, r.Pass)
		result.Scenarios = append(result.Scenarios, r)
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	text := formatTestText(result, opts.Update)
	if result.Failed > 0 {
		msg := fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total)
		if err := formatter.Failure(ErrCodeTestsFailed, msg, result, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(result, text)
}

// findScenarioFiles finds all YAML and CUE scenario files in a directory.
// Files under golden/ directories are skipped.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		switch ext {
		case ".yaml", ".yml", ".cue":
		default:
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario executes a single scenario file and checks its golden file.
func runScenario(opts *TestOptions, file string) ScenarioResult {
	r := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		r.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return r
	}
	r.Name = scenario.Name

	result, err := harness.Run(scenario)
	if err != nil {
		r.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return r
	}
	r.Errors = result.Errors

	got := []byte(harness.FormatTrace(result.Run))
	goldenPath := goldenFilePath(file)

	if opts.Update {
		if err := writeGoldenFile(goldenPath, got); err != nil {
			r.Errors = append(r.Errors, err.Error())
			return r
		}
		r.Pass = result.Pass
		return r
	}

	want, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		// No golden file: assertions alone decide.
	case err != nil:
		r.Errors = append(r.Errors, fmt.Sprintf("failed to read golden file: %v", err))
		return r
	case !bytes.Equal(want, got):
		r.Errors = append(r.Errors, "trace does not match golden file (run with --update to regenerate)")
		return r
	}

	r.Pass = result.Pass
	return r
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func formatTestText(result TestResult, updated bool) string {
	var b strings.Builder
	for _, s := range result.Scenarios {
		if s.Pass {
			suffix := ""
			if updated {
				suffix = " (golden updated)"
			}
			fmt.Fprintf(&b, "✓ %s%s\n", s.Name, suffix)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	fmt.Fprintf(&b, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	return b.String()
}
