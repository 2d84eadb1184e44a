package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/tapcheck/internal/formatter"
	"github.com/roach88/tapcheck/internal/ir"
	"github.com/roach88/tapcheck/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	RunID string
	Type  string
}

// Timeline is the JSON payload of the events command for one run.
type Timeline struct {
	Run    store.Run  `json:"run"`
	Events []ir.Event `json:"events"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List stored runs or a run's event timeline",
		Long: `Without --run, list every run in the event store.

With --run, print the run's events in sequence order. --type restricts the
timeline to one event type. --format tap re-renders the run as a TAP stream.

Examples:
  tapcheck events --db runs.db
  tapcheck events --db runs.db --run 0190b6c2-...
  tapcheck events --db runs.db --run 0190b6c2-... --type ok
  tapcheck events --db runs.db --run 0190b6c2-... --format tap`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Database, "event store path")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Type, "type", "", "only show events of this type")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newOutput(opts.RootOptions, cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, err)
	}
	defer st.Close()

	if opts.RunID == "" {
		if opts.Type != "" {
			return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeBadFlags, Message: "--type requires --run"})
		}
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to list runs", Err: err})
		}
		return outputRuns(opts, cmd, out, runs)
	}

	run, events, err := readRun(ctx, st, opts.RunID)
	if err != nil {
		return out.Fail(ExitCommandError, err)
	}
	if opts.Type != "" {
		events, err = st.ReadRunByType(ctx, opts.RunID, ir.EventType(opts.Type))
		if err != nil {
			return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to read run", Err: err})
		}
	}
	out.VerboseLog("Run %s: %d events", opts.RunID, len(events))

	switch opts.Format {
	case FormatJSON:
		return out.Success(Timeline{Run: run, Events: events})
	case FormatTAP:
		return formatter.Render(newTAP(cmd), events)
	default:
		return outputTimeline(cmd, run, events)
	}
}

func outputRuns(opts *EventsOptions, cmd *cobra.Command, out *OutputFormatter, runs []store.RunSummary) error {
	if opts.Format == FormatJSON {
		if runs == nil {
			runs = []store.RunSummary{}
		}
		return out.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	table := newTable([]string{"Run", "Name", "Source", "Events"}, w)
	for _, r := range runs {
		_ = table.Append([]string{r.ID, r.Name, r.Source, strconv.Itoa(r.Events)})
	}
	return table.Render()
}

func outputTimeline(cmd *cobra.Command, run store.Run, events []ir.Event) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s", run.ID)
	if run.Name != "" {
		fmt.Fprintf(w, " (%s)", run.Name)
	}
	fmt.Fprintln(w)

	if len(events) == 0 {
		fmt.Fprintln(w, "No events.")
		return nil
	}

	table := newTable([]string{"Seq", "Type", "Fields", "Site"}, w)
	for _, ev := range events {
		fields, err := ir.MarshalCanonical(ev.Fields)
		if err != nil {
			return fmt.Errorf("seq %d: %w", ev.Seq, err)
		}
		site := "-"
		if !ev.Site.IsZero() {
			site = ev.Site.String()
		}
		_ = table.Append([]string{strconv.FormatInt(ev.Seq, 10), string(ev.Type), string(fields), site})
	}
	return table.Render()
}
