package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/roach88/tapcheck/internal/formatter"
	"github.com/roach88/tapcheck/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Events string // JSON-lines events file overriding the scenario's
	DB     string // event store to read the run from
	RunID  string // stored run to check
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <scenario>",
		Short: "Check one scenario against an event stream",
		Long: `Check one scenario file against an event stream.

Events are read from the scenario's own events file unless --events names
another file, or --db and --run select a stored run.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed
  2 - Command error (invalid paths, bad scenario, etc.)

Examples:
  tapcheck check scenarios/login.yaml
  tapcheck check scenarios/login.yaml --events out/login.jsonl
  tapcheck check scenarios/login.yaml --db runs.db --run 0190b6c2-...
  tapcheck check scenarios/login.yaml --format tap`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Events, "events", "", "JSON-lines events file (overrides the scenario's)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "event store to read the run from")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "stored run ID to check (requires --db)")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newOutput(opts.RootOptions, cmd)

	sc, err := loadScenario(path)
	if err != nil {
		return out.Fail(ExitCommandError, err)
	}

	src := EventSource{File: opts.Events, Database: opts.DB, RunID: opts.RunID}
	if src.File == "" && src.Database == "" && src.RunID != "" {
		src.Database = opts.Database
	}
	events, err := loadEvents(ctx, sc, src)
	if err != nil {
		return out.Fail(ExitCommandError, err)
	}
	out.VerboseLog("Loaded %d events for %s", len(events), sc.Name)

	res, err := harness.Run(ctx, sc, events)
	if err != nil {
		return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeLoadFailed, Message: "invalid expectations", Path: path, Err: err})
	}
	clog.FromContext(ctx).Info("scenario checked", "scenario", res.Scenario, "pass", res.Pass)

	switch opts.Format {
	case FormatJSON:
		if res.Pass {
			err = out.Success(res)
		} else {
			err = out.Failure(res)
		}
	case FormatTAP:
		err = renderTAP(newTAP(cmd), []*formatter.Result{tapResult(res)})
	default:
		printResult(cmd.OutOrStdout(), res)
	}
	if err != nil {
		return err
	}

	if !res.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %q failed", res.Scenario))
	}
	return nil
}

// printResult writes the ✓/✗ line for a scenario and its indented
// diagnostics.
func printResult(w io.Writer, res *harness.Result) {
	if res.Pass {
		fmt.Fprintf(w, "✓ %s (%d events)\n", res.Scenario, res.Events)
		return
	}
	fmt.Fprintf(w, "✗ %s (%d events)\n", res.Scenario, res.Events)
	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(d, "\n", "\n  "))
	}
}

// tapResult converts a scenario result to a TAP test point.
func tapResult(res *harness.Result) *formatter.Result {
	return &formatter.Result{
		Pass:        res.Pass,
		Name:        res.Scenario,
		Diagnostics: res.Diagnostics,
	}
}

// renderTAP writes a planned TAP stream of results.
func renderTAP(f *formatter.Formatter, results []*formatter.Result) error {
	if err := f.Begin(formatter.Tests(len(results))); err != nil {
		return err
	}
	for _, r := range results {
		if err := f.Result(r); err != nil {
			return err
		}
	}
	return f.End()
}
