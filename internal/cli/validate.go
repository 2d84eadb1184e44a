package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/roach88/tapcheck/internal/check"
	"github.com/roach88/tapcheck/internal/compiler"
	"github.com/roach88/tapcheck/internal/harness"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// FileValidation is the validation outcome for one scenario file.
type FileValidation struct {
	Path     string   `json:"path"`
	Scenario string   `json:"scenario,omitempty"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files without reading any events.

Each path is a scenario file or a directory searched recursively. A
scenario is valid when it parses, has a name and expectations, and every
expectation compiles: known directives with valid arguments, well-formed
patterns and no stray values. Scenario names must be unique across all
paths.

Examples:
  tapcheck validate ./scenarios
  tapcheck validate login.yaml checkout.cue`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	out := newOutput(opts.RootOptions, cmd)

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if errors.Is(err, os.ErrNotExist) {
			return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeNotFound, Message: "path not found", Path: arg})
		}
		if err != nil {
			return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeScanError, Message: "failed to stat path", Path: arg, Err: err})
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := harness.Discover(arg, "")
		if err != nil {
			return out.Fail(ExitCommandError, &LoadError{Code: ErrCodeScanError, Message: "failed to find scenarios", Path: arg, Err: err})
		}
		paths = append(paths, found...)
	}

	log := clog.FromContext(cmd.Context())
	results := make([]FileValidation, 0, len(paths))
	var loaded []*compiler.Scenario
	invalid := 0

	for _, path := range paths {
		sc, fv := validateFile(path, loaded, check.WithLogger(slog.New(log.Handler())))
		if fv.Valid {
			loaded = append(loaded, sc)
		} else {
			invalid++
		}
		log.Debug("scenario validated", "path", path, "valid", fv.Valid)
		results = append(results, fv)
	}

	var err error
	switch opts.Format {
	case FormatJSON:
		if invalid == 0 {
			err = out.Success(results)
		} else {
			err = out.Failure(results)
		}
	default:
		w := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(w, "No scenarios found.")
		}
		for _, fv := range results {
			if fv.Valid {
				fmt.Fprintf(w, "✓ %s\n", fv.Path)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", fv.Path)
			for _, e := range fv.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}
	if err != nil {
		return err
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios are invalid", invalid, len(results)))
	}
	return nil
}

// validateFile checks one scenario. loaded holds the valid scenarios seen so
// far, for duplicate name detection.
func validateFile(path string, loaded []*compiler.Scenario, opts ...check.Option) (*compiler.Scenario, FileValidation) {
	fv := FileValidation{Path: path}

	sc, err := compiler.Load(path)
	if err != nil {
		fv.Errors = []string{err.Error()}
		return nil, fv
	}
	fv.Scenario = sc.Name

	for _, ve := range compiler.Validate(sc) {
		fv.Errors = append(fv.Errors, ve.Error())
	}
	if len(fv.Errors) == 0 {
		for _, ve := range compiler.ValidateSuite(append(loaded[:len(loaded):len(loaded)], sc)) {
			fv.Errors = append(fv.Errors, ve.Error())
		}
	}
	if len(fv.Errors) == 0 {
		if _, err := compiler.Sequence(sc, opts...); err != nil {
			fv.Errors = append(fv.Errors, err.Error())
		}
	}

	fv.Valid = len(fv.Errors) == 0
	return sc, fv
}
