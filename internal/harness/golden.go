package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tapcheck/internal/compiler"
	"github.com/roach88/tapcheck/internal/ir"
)

// GoldenSuffix is the extension of golden snapshot files.
const GoldenSuffix = ".golden"

// Snapshot serializes a result as canonical JSON followed by a newline.
func Snapshot(result *Result) ([]byte, error) {
	data, err := ir.MarshalCanonical(result.toCanonicalMap())
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", result.Scenario, err)
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs a scenario against its event file and compares the
// result with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func RunWithGolden(t *testing.T, sc *compiler.Scenario) error {
	t.Helper()

	events, err := LoadEvents(sc)
	if err != nil {
		return err
	}
	result, err := Run(context.Background(), sc, events)
	if err != nil {
		return err
	}
	return AssertGolden(t, sc.Name, result)
}

// AssertGolden compares an existing result with a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, name, data)
	return nil
}

// GoldenPath returns the snapshot path for a scenario in a suite directory.
func GoldenPath(dir, name string) string {
	return filepath.Join(dir, "golden", name+GoldenSuffix)
}

// CompareGolden compares result with the snapshot at path and returns a
// diff, empty when they match. With update set the snapshot is rewritten
// instead. A missing snapshot is an error unless update is set.
func CompareGolden(path string, result *Result, update bool) (string, error) {
	data, err := Snapshot(result)
	if err != nil {
		return "", err
	}

	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write golden file: %w", err)
		}
		return "", nil
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("golden file %s does not exist (run with --update to create it)", path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read golden file: %w", err)
	}
	if bytes.Equal(want, data) {
		return "", nil
	}
	return cmp.Diff(string(want), string(data)), nil
}
