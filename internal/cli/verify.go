package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tapcheck/internal/formatter"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	RunID string
}

// RunVerification is the verify outcome for one run.
type RunVerification struct {
	RunID    string   `json:"run_id"`
	Events   int      `json:"events"`
	Problems []string `json:"problems,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check stored runs for tampering or corruption",
		Long: `Replay stored runs and recompute every event's content-addressed ID.

An event whose stored ID no longer matches its type, fields, run and
sequence number has been edited or corrupted since it was written.

Exit codes:
  0 - All events verified
  1 - One or more events do not match their IDs
  2 - Command error (database not found, etc.)

Examples:
  tapcheck verify --db runs.db
  tapcheck verify --db runs.db --run 0190b6c2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Database, "event store path")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "verify only this run")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newOutput(opts.RootOptions, cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, err)
	}
	defer st.Close()

	var runIDs []string
	if opts.RunID != "" {
		if _, _, err := readRun(ctx, st, opts.RunID); err != nil {
			return out.Fail(ExitCommandError, err)
		}
		runIDs = []string{opts.RunID}
	} else {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to list runs", Err: err})
		}
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	results := make([]RunVerification, 0, len(runIDs))
	bad := 0
	for _, id := range runIDs {
		events, err := st.ReadRun(ctx, id)
		if err != nil {
			return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to read run", Err: err})
		}
		problems, err := st.VerifyRun(ctx, id)
		if err != nil {
			return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to verify run", Err: err})
		}
		if len(problems) > 0 {
			bad++
		}
		results = append(results, RunVerification{RunID: id, Events: len(events), Problems: problems})
	}

	switch {
	case opts.Format == FormatJSON && bad == 0:
		err = out.Success(results)
	case opts.Format == FormatJSON:
		err = out.Failure(results)
	case opts.Format == FormatTAP:
		points := make([]*formatter.Result, len(results))
		for i, r := range results {
			points[i] = &formatter.Result{Pass: len(r.Problems) == 0, Name: r.RunID, Diagnostics: r.Problems}
		}
		err = renderTAP(newTAP(cmd), points)
	default:
		w := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(w, "No runs found.")
		}
		for _, r := range results {
			if len(r.Problems) == 0 {
				fmt.Fprintf(w, "✓ %s (%d events)\n", r.RunID, r.Events)
				continue
			}
			fmt.Fprintf(w, "✗ %s (%d events)\n", r.RunID, r.Events)
			for _, p := range r.Problems {
				fmt.Fprintf(w, "  %s\n", p)
			}
		}
	}
	if err != nil {
		return err
	}

	if bad > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d runs failed verification", bad, len(results)))
	}
	return nil
}
