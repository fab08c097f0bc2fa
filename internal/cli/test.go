package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/timeline/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter    string // substring of scenario names to run
	GoldenDir string // compare traces against <dir>/<name>.golden
	Update    bool   // rewrite golden files instead of comparing
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

func newTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run editing scenarios against a scratch editor",
		Long: `Run YAML scenarios through the action executor.

Each scenario runs in isolation against an in-memory timeline; nothing is
read from or written to the session database. With --golden, each
scenario's trace is compared against <golden-dir>/<name>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)`,
		Example: `  timeline test ./scenarios
  timeline test ./scenarios --filter undo
  timeline test ./scenarios --golden ./golden --update`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name contains this")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden)")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	out := newFormatter(cmd, opts.RootOptions)
	files, err := harness.RunDir(cmd.Context(), dir, opts.Filter)
	if errors.Is(err, harness.ErrNoScenarios) {
		return out.Success(TestResult{Scenarios: []ScenarioResult{}}, "No scenarios found.")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "run scenarios", err)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, fr := range files {
		sr := scenarioResult(fr)
		if sr.Pass && opts.GoldenDir != "" {
			if err := checkGolden(opts, fr); err != nil {
				sr.Pass = false
				sr.Errors = append(sr.Errors, err.Error())
			}
		}
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	if err := out.Success(result, renderTestResult(result)); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func scenarioResult(fr harness.FileResult) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(fr.Path), File: fr.Path}
	if fr.Scenario != nil {
		sr.Name = fr.Scenario.Name
	}
	switch {
	case fr.Err != nil:
		sr.Errors = []string{fr.Err.Error()}
	case !fr.Result.Pass:
		sr.Errors = fr.Result.Errors
	default:
		sr.Pass = true
	}
	return sr
}

// checkGolden compares (or, with --update, rewrites) the scenario's trace.
func checkGolden(opts *TestOptions, fr harness.FileResult) error {
	data, err := harness.MarshalTrace(fr.Scenario.Name, fr.Result)
	if err != nil {
		return err
	}
	path := filepath.Join(opts.GoldenDir, fr.Scenario.Name+".golden")
	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("golden file: %w", err)
	}
	if !bytes.Equal(want, data) {
		return fmt.Errorf("trace differs from %s (rerun with --update to accept)", path)
	}
	return nil
}

func renderTestResult(r TestResult) string {
	var b bytes.Buffer
	for _, s := range r.Scenarios {
		if s.Pass {
			fmt.Fprintf(&b, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	fmt.Fprintf(&b, "\nTest Summary: %d passed, %d failed, %d total", r.Passed, r.Failed, r.Total)
	if r.Failed == 0 {
		b.WriteString("\n✓ All scenarios passed")
	}
	return b.String()
}
