package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tapcheck/internal/check"
	"github.com/roach88/tapcheck/internal/compiler"
	"github.com/roach88/tapcheck/internal/ir"
)

func suitePath(name string) string {
	return filepath.Join("testdata", "suite", name)
}

func TestRunFile_Passing(t *testing.T) {
	res, err := RunFile(context.Background(), suitePath("math.yaml"))
	require.NoError(t, err)
	assert.True(t, res.Pass, res.Diagnostics)
	assert.Equal(t, "math", res.Scenario)
	assert.Equal(t, 4, res.Events)
	assert.Equal(t, []string{}, res.Diagnostics)
}

func TestRunFile_FailingNamesScenarioLine(t *testing.T) {
	res, err := RunFile(context.Background(), suitePath("mismatch.yaml"))
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Equal(t, []string{
		`event ok "subtracts" at position 3 (emitted at math_test.go line 14) does not match expectation declared at mismatch.yaml line 9`,
		`field "pass": expected true, got false`,
	}, res.Diagnostics)
}

func TestRunFile_CUE(t *testing.T) {
	res, err := RunFile(context.Background(), suitePath("seek.cue"))
	require.NoError(t, err)
	assert.True(t, res.Pass, res.Diagnostics)
	assert.Equal(t, "seek-cue", res.Scenario)
}

func TestRun_InlineEvents(t *testing.T) {
	sc := &compiler.Scenario{
		Name: "inline",
		Path: "inline.yaml",
		Expect: []compiler.Item{
			{Value: map[string]any{"event": "ok", "fields": map[string]any{"x": 1}}, Line: 3},
			{Value: map[string]any{"event": "ok"}, Line: 4},
		},
	}
	events := []ir.Event{ir.NewEvent(ir.EventOk, ir.IRObject{"x": ir.IRInt(1)}, ir.Site{})}

	res, err := Run(context.Background(), sc, events)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Equal(t, []string{`no more events, expected type "ok" declared at inline.yaml line 4`}, res.Diagnostics)
}

func TestRun_CompileErrorIsReturned(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "broken", "unknown.yaml"))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc, nil)
	require.Error(t, err)
	var ue *check.UsageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, check.ErrCodeUnknownDirective, ue.Code)
	assert.Equal(t, 5, ue.Site.Line)
}

func TestLoad_ValidationErrors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "broken", "missing-events.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), compiler.ErrEventsNotFound)

	var ve compiler.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLoadEvents_Missing(t *testing.T) {
	sc := &compiler.Scenario{Name: "s", Path: filepath.Join(t.TempDir(), "s.yaml"), Events: "gone.jsonl"}
	_, err := LoadEvents(sc)
	var nf *EventsNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "gone.jsonl", nf.EventsPath)

	_, err = LoadEvents(&compiler.Scenario{Name: "s"})
	assert.ErrorContains(t, err, "no events file")
}

func TestResult_AddDiagnostic(t *testing.T) {
	res := NewResult("x")
	assert.True(t, res.Pass)
	res.AddDiagnostic("boom")
	assert.False(t, res.Pass)
	assert.Equal(t, []string{"boom"}, res.Diagnostics)
}
