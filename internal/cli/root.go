package cli

import (
	"fmt"
	"log/slog"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/roach88/tapcheck/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "text" | "json" | "tap"
	Database string // default for each command's --db flag
}

// ValidFormats defines the allowed output formats.
var ValidFormats = config.Formats

// NewRootCommand creates the root command. cfg supplies flag defaults; nil
// means built-in defaults.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	if cfg == nil {
		cfg = &config.Config{Format: FormatText}
	}
	opts := &RootOptions{Database: cfg.Database}

	cmd := &cobra.Command{
		Use:   "tapcheck",
		Short: "tapcheck - assertions over TAP event streams",
		Long: `Check recorded test-protocol event streams against ordered expectations.

Scenarios declare the events a run should produce, with field matchers and
cursor directives (skip, seek, end, drop). Events come from JSON-lines files
or from a SQLite event store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !config.ValidFormat(opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", msg)
				return NewExitError(ExitCommandError, msg)
			}
			if opts.Verbose {
				h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
				cmd.SetContext(clog.WithLogger(cmd.Context(), clog.New(h)))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (text|json|tap)")

	// Add subcommands
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}
