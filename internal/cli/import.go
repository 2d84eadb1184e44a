package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/roach88/tapcheck/internal/capture"
	"github.com/roach88/tapcheck/internal/ir"
	"github.com/roach88/tapcheck/internal/store"
)

// runIDs generates IDs for imported runs.
var runIDs capture.RunIDGenerator = capture.UUIDv7Generator{}

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Name string // run name (defaults to the file name)
}

// ImportResult is the payload printed after an import.
type ImportResult struct {
	RunID  string `json:"run_id"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Events int    `json:"events"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <events.jsonl>",
		Short: "Import a JSON-lines event file into the event store",
		Long: `Import a JSON-lines event file into the event store as a new run.

The run gets a fresh time-ordered ID, printed on success. Event IDs are
recomputed for the new run. Sequence numbers are kept when they are
strictly increasing and renumbered from 1 otherwise.

Examples:
  tapcheck import out/login.jsonl --db runs.db
  tapcheck import out/login.jsonl --db runs.db --name nightly-login`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Database, "event store path (created if missing)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "run name (default: file name without extension)")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newOutput(opts.RootOptions, cmd)

	events, err := readEventFile(path)
	if err != nil {
		return out.Fail(ExitCommandError, err)
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, err)
	}
	defer st.Close()

	name := opts.Name
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	run := store.NewRun(runIDs.Generate(), name, path)
	if err := st.WriteRun(ctx, run); err != nil {
		return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to write run", Path: opts.Database, Err: err})
	}
	if err := st.WriteEvents(ctx, restamp(events, run.ID)); err != nil {
		return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to write events", Path: opts.Database, Err: err})
	}

	clog.FromContext(ctx).Info("run imported", "run_id", run.ID, "events", len(events), "source", path)

	result := ImportResult{RunID: run.ID, Name: name, Source: path, Events: len(events)}
	if opts.Format == FormatJSON {
		return out.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d events as run %s\n", result.Events, result.RunID)
	return nil
}

// restamp moves events into runID. IDs are cleared so the store derives
// them from the new run.
func restamp(events []ir.Event, runID string) []ir.Event {
	increasing := true
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			increasing = false
			break
		}
	}

	out := make([]ir.Event, len(events))
	for i, ev := range events {
		ev.RunID = runID
		ev.ID = ""
		if !increasing {
			ev.Seq = int64(i + 1)
		}
		out[i] = ev
	}
	return out
}
