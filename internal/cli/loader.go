package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/tapcheck/internal/compiler"
	"github.com/roach88/tapcheck/internal/eventlog"
	"github.com/roach88/tapcheck/internal/harness"
	"github.com/roach88/tapcheck/internal/ir"
	"github.com/roach88/tapcheck/internal/store"
)

// Error codes for CLI responses.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeLoadFailed  = "E004" // Scenario or event file failed to load
	ErrCodeNotFound    = "E005" // Path, database or run not found
	ErrCodeStoreFailed = "E006" // Event store read or write failed
	ErrCodeBadFlags    = "E008" // Missing or conflicting flags
)

// LoadError represents an error that occurred while loading CLI inputs.
type LoadError struct {
	Code    string
	Message string
	Path    string // file or database the error refers to, if any
	Err     error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// EventSource selects where a scenario's events come from. At most one of
// File and Database may be set; with neither, the scenario's own events
// file is read.
type EventSource struct {
	File     string
	Database string
	RunID    string
}

func (s EventSource) validate() error {
	switch {
	case s.File != "" && s.Database != "":
		return &LoadError{Code: ErrCodeBadFlags, Message: "--events and --db are mutually exclusive"}
	case s.Database != "" && s.RunID == "":
		return &LoadError{Code: ErrCodeBadFlags, Message: "--run is required with --db"}
	case s.Database == "" && s.RunID != "":
		return &LoadError{Code: ErrCodeBadFlags, Message: "--run requires --db"}
	}
	return nil
}

// loadScenario reads and validates a scenario file.
func loadScenario(path string) (*compiler.Scenario, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "scenario not found", Path: path}
	}
	sc, err := harness.Load(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "failed to load scenario", Path: path, Err: err}
	}
	return sc, nil
}

// loadEvents reads the events a scenario should be checked against.
func loadEvents(ctx context.Context, sc *compiler.Scenario, src EventSource) ([]ir.Event, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}

	switch {
	case src.Database != "":
		st, err := openExistingStore(src.Database)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		_, events, err := readRun(ctx, st, src.RunID)
		return events, err

	case src.File != "":
		return readEventFile(src.File)

	default:
		events, err := harness.LoadEvents(sc)
		if err != nil {
			var nf *harness.EventsNotFoundError
			if errors.As(err, &nf) {
				return nil, &LoadError{Code: ErrCodeNotFound, Message: "events file not found", Path: nf.ResolvedPath, Err: err}
			}
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "failed to load events", Path: sc.Path, Err: err}
		}
		return events, nil
	}
}

// readEventFile reads a JSON-lines event file.
func readEventFile(path string) ([]ir.Event, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "events file not found", Path: path}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "failed to open events", Path: path, Err: err}
	}
	defer f.Close()

	events, err := eventlog.Read(f)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "failed to read events", Path: path, Err: err}
	}
	return events, nil
}

// openExistingStore opens a store that must already exist. store.Open
// would otherwise create an empty database at a mistyped path.
func openExistingStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeBadFlags, Message: "--db is required (or set TAPCHECK_DB)"}
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "database not found", Path: path}
	}
	return openStore(path)
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeBadFlags, Message: "--db is required (or set TAPCHECK_DB)"}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to open database", Path: path, Err: err}
	}
	return st, nil
}

// readRun replays a stored run. An unknown run is an error, not an empty
// event list.
func readRun(ctx context.Context, st *store.Store, runID string) (store.Run, []ir.Event, error) {
	run, err := st.GetRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("run %q not found", runID)}
	}
	if err != nil {
		return store.Run{}, nil, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to read run", Err: err}
	}
	events, err := st.ReadRun(ctx, runID)
	if err != nil {
		return store.Run{}, nil, &LoadError{Code: ErrCodeStoreFailed, Message: "failed to read run", Err: err}
	}
	return run, events, nil
}
