package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAMLAndCUEAgree(t *testing.T) {
	fromYAML, err := Load(filepath.Join("testdata", "basic.yaml"))
	require.NoError(t, err)
	fromCUE, err := Load(filepath.Join("testdata", "basic.cue"))
	require.NoError(t, err)

	for _, sc := range []*Scenario{fromYAML, fromCUE} {
		assert.Equal(t, "basic", sc.Name)
		assert.Equal(t, "plan, two results, nothing else", sc.Description)
		assert.Equal(t, filepath.Join("testdata", "basic.jsonl"), sc.EventsPath())
		require.Len(t, sc.Expect, 5)
		assert.Equal(t, map[string]any{"seek": true}, sc.Expect[2].Value)
	}

	// Same matchers either way once compiled.
	a, err := Sequence(fromYAML)
	require.NoError(t, err)
	b, err := Sequence(fromCUE)
	require.NoError(t, err)
	require.Equal(t, a.Len(), b.Len())
	for i, exp := range a.Expectations() {
		assert.IsType(t, exp, b.Expectations()[i])
	}
}

func TestParseYAML_RecordsItemLines(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "basic.yaml"))
	require.NoError(t, err)

	lines := make([]int, len(sc.Expect))
	for i, item := range sc.Expect {
		lines[i] = item.Line
	}
	assert.Equal(t, []int{5, 8, 12, 13, 17}, lines)
}

func TestCompileCUE_RecordsItemLines(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "basic.cue"))
	require.NoError(t, err)
	assert.Equal(t, 5, sc.Expect[0].Line)
	assert.Equal(t, 8, sc.Expect[3].Line)
	assert.Equal(t, 12, sc.Expect[4].Line)
}

func TestParseYAML_RejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte("name: x\nexpectations: []\n"), "x.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expectations")
}

func TestParseYAML_Empty(t *testing.T) {
	_, err := ParseYAML(nil, "empty.yaml")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "empty.yaml: scenario: file is empty", ce.Error())
}

func TestCompileCUE_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown field", `name: "x"` + "\n" + `flow: []`, "flow: unknown field"},
		{"name not a string", `name: 3`, "name: must be a string"},
		{"expect not a list", `expect: {event: "ok"}`, "expect: must be a list"},
		{"syntax", `name: "x`, "cue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCUE([]byte(tt.src), "s.cue")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileCUE_UnknownFieldHasPosition(t *testing.T) {
	_, err := CompileCUE([]byte("name: \"x\"\n\nflow: []\n"), "s.cue")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.Line)
	assert.Equal(t, "s.cue", ce.File)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")

	path := writeScenario(t, "s.toml", "name = 'x'")
	_, err = Load(path)
	assert.ErrorContains(t, err, "unsupported scenario file")
}

func TestIsScenarioFile(t *testing.T) {
	assert.True(t, IsScenarioFile("a.yaml"))
	assert.True(t, IsScenarioFile("a.YML"))
	assert.True(t, IsScenarioFile("dir/a.cue"))
	assert.False(t, IsScenarioFile("a.jsonl"))
	assert.False(t, IsScenarioFile("a.golden"))
}

func TestEventsPath(t *testing.T) {
	sc := &Scenario{Path: "/suite/a.yaml", Events: "runs/a.jsonl"}
	assert.Equal(t, "/suite/runs/a.jsonl", sc.EventsPath())

	sc.Events = "/abs/a.jsonl"
	assert.Equal(t, "/abs/a.jsonl", sc.EventsPath())

	sc.Events = ""
	assert.Equal(t, "", sc.EventsPath())
}
