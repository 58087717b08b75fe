package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/reconcile/internal/harness"
	"github.com/roach88/reconcile/internal/trace"
)

// Golden file states reported per scenario.
const (
	GoldenMatched  = "matched"
	GoldenUpdated  = "updated"
	GoldenMissing  = "missing"
	GoldenMismatch = "mismatch"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden directory; default <scenarios-dir>/golden
}

// ScenarioResult holds the outcome of one scenario file.
type ScenarioResult struct {
	Name      string   `json:"name"`
	File      string   `json:"file"`
	Pass      bool     `json:"pass"`
	Steps     int      `json:"steps"`
	Committed int      `json:"committed"`
	Aborted   int      `json:"aborted"`
	Golden    string   `json:"golden,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func (sr *ScenarioResult) fail(format string, args ...any) {
	sr.Pass = false
	sr.Errors = append(sr.Errors, fmt.Sprintf(format, args...))
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
		Short: "Run reconciler scenarios",
		Long: `Run scenario files through the harness.

Each scenario renders its steps against a fresh engine and in-memory host,
checks the step expectations and compares its snapshot (every pass with its
effect records, and the host tree after each step) against a golden file
when one exists. A mismatch names the first step that diverged.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  reconcile test ./testdata/scenarios
  reconcile test ./testdata/scenarios --filter "abort*"
  reconcile test ./testdata/scenarios --golden ./internal/harness/testdata/golden
  reconcile test ./testdata/scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory (default <scenarios-dir>/golden)")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(dir, "golden")
	}

	files, err := scenarioFiles(dir, goldenDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		sr := runScenario(file, goldenDir, opts)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	if opts.Format == "json" {
		if err := outputTestJSON(formatter, result); err != nil {
			return err
		}
	} else {
		outputTestText(formatter, result)
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// scenarioFiles lists the YAML files below dir whose base name matches
// filter, skipping goldenDir.
func scenarioFiles(dir, goldenDir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && filepath.Clean(path) == filepath.Clean(goldenDir) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario loads, runs and golden-checks one scenario file.
func runScenario(file, goldenDir string, opts *TestOptions) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file, Pass: true}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.fail("failed to load scenario: %v", err)
		return sr
	}
	sr.Name = scenario.Name
	sr.Steps = len(scenario.Steps)

	var runOpts []harness.Option
	if opts.Verbose {
		runOpts = append(runOpts, harness.WithLogger(opts.Logger(os.Stderr)))
	}
	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		sr.fail("execution failed: %v", err)
		return sr
	}
	for _, step := range result.Steps {
		switch step.Status() {
		case trace.StatusCommitted:
			sr.Committed++
		case trace.StatusAborted:
			sr.Aborted++
		}
	}
	if !result.Pass {
		sr.Pass = false
		sr.Errors = append(sr.Errors, result.Errors...)
	}

	snapshot, err := harness.MarshalSnapshot(scenario.Name, result)
	if err != nil {
		sr.fail("failed to marshal snapshot: %v", err)
		return sr
	}
	checkGolden(&sr, filepath.Join(goldenDir, scenario.Name+".golden"), snapshot, opts.Update)
	return sr
}

// checkGolden compares snapshot with the golden file at path, or rewrites
// the file when update is set. A missing golden file is not a failure.
func checkGolden(sr *ScenarioResult, path string, snapshot []byte, update bool) {
	if update {
		if err := writeGoldenFile(path, snapshot); err != nil {
			sr.fail("%v", err)
			return
		}
		sr.Golden = GoldenUpdated
		return
	}

	golden, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		sr.Golden = GoldenMissing
		return
	}
	if err != nil {
		sr.fail("golden comparison failed: %v", err)
		return
	}
	if string(golden) == string(snapshot) {
		sr.Golden = GoldenMatched
		return
	}

	sr.Golden = GoldenMismatch
	if diff := snapshotDiff(golden, snapshot); diff != "" {
		sr.fail("snapshot does not match golden file (run with --update to regenerate)\n%s", diff)
		return
	}
	sr.fail("snapshot does not match golden file (run with --update to regenerate)")
}

// snapshotDiff describes the first step at which two snapshots differ, or
// returns "" if either side does not decode as a snapshot.
func snapshotDiff(golden, got []byte) string {
	var want, have struct {
		Steps []map[string]any `json:"steps"`
	}
	if json.Unmarshal(golden, &want) != nil || json.Unmarshal(got, &have) != nil {
		return ""
	}
	for i := 0; i < len(want.Steps) || i < len(have.Steps); i++ {
		var w, h map[string]any
		if i < len(want.Steps) {
			w = want.Steps[i]
		}
		if i < len(have.Steps) {
			h = have.Steps[i]
		}
		if diff := cmp.Diff(w, h); diff != "" {
			return fmt.Sprintf("step %d (-golden +got):\n%s", i+1, diff)
		}
	}
	return ""
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%s: failed to write golden file: %w", ErrCodeWriteFailed, err)
	}
	return nil
}

// outputTestJSON writes the result; failures keep the result as data so
// callers can see which scenarios failed.
func outputTestJSON(f *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

func outputTestText(f *OutputFormatter, result TestResult) {
	if result.Total == 0 {
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return
	}

	tbl := f.NewTable("")
	tbl.AppendHeader(table.Row{"", "scenario", "steps", "committed", "aborted", "golden"})
	for _, sr := range result.Scenarios {
		mark := "✓"
		if !sr.Pass {
			mark = "✗"
		}
		tbl.AppendRow(table.Row{mark, sr.Name, sr.Steps, sr.Committed, sr.Aborted, sr.Golden})
	}
	tbl.Render()

	for _, sr := range result.Scenarios {
		if sr.Pass {
			continue
		}
		fmt.Fprintf(f.Writer, "\n✗ %s (%s)\n", sr.Name, sr.File)
		for _, e := range sr.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
		}
	}

	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	}
}
