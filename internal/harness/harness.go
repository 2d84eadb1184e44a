package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"

	"github.com/roach88/tapcheck/internal/check"
	"github.com/roach88/tapcheck/internal/compiler"
	"github.com/roach88/tapcheck/internal/eventlog"
	"github.com/roach88/tapcheck/internal/ir"
)

// Load reads and validates a scenario file.
func Load(path string) (*compiler.Scenario, error) {
	sc, err := compiler.Load(path)
	if err != nil {
		return nil, err
	}
	if verrs := compiler.Validate(sc); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, fmt.Errorf("invalid scenario %s: %w", path, errors.Join(errs...))
	}
	return sc, nil
}

// LoadEvents reads the scenario's JSON-lines event file.
func LoadEvents(sc *compiler.Scenario) ([]ir.Event, error) {
	path := sc.EventsPath()
	if path == "" {
		return nil, fmt.Errorf("scenario %q has no events file", sc.Name)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &EventsNotFoundError{Scenario: sc.Name, EventsPath: sc.Events, ResolvedPath: path}
		}
		return nil, fmt.Errorf("failed to open events: %w", err)
	}
	defer f.Close()

	events, err := eventlog.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// Run evaluates the scenario's expectations against events.
//
// A returned error means the scenario itself is unusable (for example a bad
// directive argument); a failed match is reported in the Result.
func Run(ctx context.Context, sc *compiler.Scenario, events []ir.Event) (*Result, error) {
	log := clog.FromContext(ctx).With("scenario", sc.Name)

	seq, err := compiler.Sequence(sc, check.WithLogger(slog.New(log.Handler())))
	if err != nil {
		return nil, fmt.Errorf("failed to compile scenario %q: %w", sc.Name, err)
	}

	res := NewResult(sc.Name)
	res.Path = sc.Path
	res.Events = len(events)
	for _, d := range seq.Run(events).Diagnostics {
		res.AddDiagnostic(d)
	}

	log.Debug("scenario evaluated",
		"pass", res.Pass,
		"events", res.Events,
		"expectations", seq.Len(),
		"diagnostics", len(res.Diagnostics),
	)
	return res, nil
}

// RunFile loads a scenario and its events and runs it.
func RunFile(ctx context.Context, path string) (*Result, error) {
	sc, err := Load(path)
	if err != nil {
		return nil, err
	}
	events, err := LoadEvents(sc)
	if err != nil {
		return nil, err
	}
	return Run(ctx, sc, events)
}
