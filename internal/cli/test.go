package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tapcheck/internal/formatter"
	"github.com/roach88/tapcheck/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// Scenario statuses in a TestReport.
const (
	StatusPass  = "pass"
	StatusFail  = "fail"
	StatusError = "error"
)

// Golden comparison outcomes.
const (
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenUpdated  = "updated"
)

// ScenarioReport is one row of a TestReport.
type ScenarioReport struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Status      string   `json:"status"`
	Events      int      `json:"events"`
	Golden      string   `json:"golden,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// TestReport holds the overall test result.
type TestReport struct {
	Scenarios []ScenarioReport `json:"scenarios"`
	Total     int              `json:"total"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Errored   int              `json:"errored"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run every scenario in a directory",
		Long: `Run every scenario file (.yaml, .yml, .cue) under a directory.

Each scenario is checked against its own events file. When a golden file
exists at golden/<name>.golden next to the scenario, the result must also
match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed or could not be run
  2 - Command error (invalid paths, etc.)

Examples:
  tapcheck test ./scenarios
  tapcheck test ./scenarios --filter "login-*"
  tapcheck test ./scenarios --update
  tapcheck test ./scenarios --format tap`,
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
	ctx := cmd.Context()
	out := newOutput(opts.RootOptions, cmd)

	// Validate directory
	if info, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeNotFound, Message: "scenarios directory not found", Path: dir})
	} else if err == nil && !info.IsDir() {
		return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeScanError, Message: "not a directory", Path: dir})
	}

	suite, err := harness.RunSuite(ctx, dir, opts.Filter)
	if err != nil {
		return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeScanError, Message: "failed to find scenarios", Err: err})
	}

	report := buildReport(suite, opts, out)

	switch opts.Format {
	case FormatJSON:
		if report.Failed+report.Errored == 0 {
			err = out.Success(report)
		} else {
			err = out.Failure(report)
		}
	case FormatTAP:
		err = renderReportTAP(newTAP(cmd), report)
	default:
		err = outputTestText(cmd, report)
	}
	if err != nil {
		return err
	}

	if report.Failed+report.Errored > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios did not pass", report.Failed+report.Errored, report.Total))
	}
	return nil
}

// buildReport merges run results and load errors in path order and applies
// golden comparison.
func buildReport(suite *harness.SuiteResult, opts *TestOptions, out *OutputFormatter) TestReport {
	report := TestReport{Scenarios: make([]ScenarioReport, 0, suite.Total)}

	for _, res := range suite.Results {
		row := ScenarioReport{
			Name:        res.Scenario,
			Path:        res.Path,
			Status:      StatusPass,
			Events:      res.Events,
			Diagnostics: res.Diagnostics,
		}
		if !res.Pass {
			row.Status = StatusFail
		}
		compareGolden(&row, res, opts.Update, out)
		report.Scenarios = append(report.Scenarios, row)
	}

	for _, failure := range suite.Errors {
		base := filepath.Base(failure.Path)
		report.Scenarios = append(report.Scenarios, ScenarioReport{
			Name:        strings.TrimSuffix(base, filepath.Ext(base)),
			Path:        failure.Path,
			Status:      StatusError,
			Diagnostics: []string{failure.Error},
		})
	}

	sort.SliceStable(report.Scenarios, func(i, j int) bool {
		return report.Scenarios[i].Path < report.Scenarios[j].Path
	})

	for _, row := range report.Scenarios {
		report.Total++
		switch row.Status {
		case StatusPass:
			report.Passed++
		case StatusFail:
			report.Failed++
		default:
			report.Errored++
		}
	}
	return report
}

// compareGolden checks row against golden/<name>.golden next to its
// scenario. Scenarios without a golden file are judged by their
// expectations alone unless update is set.
func compareGolden(row *ScenarioReport, res *harness.Result, update bool, out *OutputFormatter) {
	path := harness.GoldenPath(filepath.Dir(res.Path), res.Scenario)
	if !update {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return
		}
	}

	diff, err := harness.CompareGolden(path, res, update)
	switch {
	case err != nil:
		row.Status = StatusError
		row.Diagnostics = append(row.Diagnostics, err.Error())
	case update:
		row.Golden = GoldenUpdated
		out.VerboseLog("Updated %s", path)
	case diff != "":
		row.Golden = GoldenMismatch
		row.Status = StatusFail
		row.Diagnostics = append(row.Diagnostics, "golden file mismatch (run with --update to regenerate):\n"+diff)
	default:
		row.Golden = GoldenMatch
	}
}

// outputTestText prints a summary table, the diagnostics of every scenario
// that did not pass, and a totals line.
func outputTestText(cmd *cobra.Command, report TestReport) error {
	w := cmd.OutOrStdout()

	if report.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	table := newTable([]string{"Scenario", "Status", "Events", "Golden"}, w)
	for _, row := range report.Scenarios {
		events := strconv.Itoa(row.Events)
		if row.Status == StatusError {
			events = "-"
		}
		golden := row.Golden
		if golden == "" {
			golden = "-"
		}
		_ = table.Append([]string{row.Name, row.Status, events, golden})
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	for _, row := range report.Scenarios {
		if row.Status == StatusPass {
			continue
		}
		fmt.Fprintf(w, "\n✗ %s (%s)\n", row.Name, row.Path)
		for _, d := range row.Diagnostics {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(d, "\n", "\n  "))
		}
	}

	fmt.Fprintf(w, "\n%d passed, %d failed, %d errored (%d total)\n",
		report.Passed, report.Failed, report.Errored, report.Total)
	return nil
}

// renderReportTAP writes one test point per scenario. Errored scenarios are
// failures whose diagnostics carry the error.
func renderReportTAP(f *formatter.Formatter, report TestReport) error {
	results := make([]*formatter.Result, len(report.Scenarios))
	for i, row := range report.Scenarios {
		results[i] = &formatter.Result{
			Pass:        row.Status == StatusPass,
			Name:        row.Name,
			Diagnostics: row.Diagnostics,
		}
	}
	return renderTAP(f, results)
}
