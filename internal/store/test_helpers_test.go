package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tapcheck/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run and returns its ID.
func createTestRun(t *testing.T, s *Store, id string) string {
	t.Helper()
	require.NoError(t, s.WriteRun(context.Background(), NewRun(id, "test", "capture")))
	return id
}

// createTestEvent builds an event for runID at seq with the given fields.
func createTestEvent(runID string, seq int64, typ ir.EventType, fields map[string]any) ir.Event {
	ev := ir.NewEvent(typ, ir.MustObject(fields), ir.Site{Package: "example.com/p", File: "/src/p_test.go", Line: int(seq)})
	ev.RunID = runID
	ev.Seq = seq
	return ev
}
