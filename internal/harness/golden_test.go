package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"math.yaml", "mismatch.yaml"} {
		t.Run(name, func(t *testing.T) {
			sc, err := Load(suitePath(name))
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, sc))
		})
	}
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	res := NewResult("math")
	res.Events = 4
	require.NoError(t, AssertGolden(t, "math", res))
}

func TestSnapshot_IsDeterministic(t *testing.T) {
	res := NewResult("a")
	res.Path = "/somewhere/a.yaml"
	res.AddDiagnostic(`field "x": <tag> & "quote"`)

	first, err := Snapshot(res)
	require.NoError(t, err)
	second, err := Snapshot(res)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, `{"diagnostics":["field \"x\": <tag> & \"quote\""],"events":0,"pass":false,"scenario":"a"}`+"\n", string(first))
}

func TestCompareGolden(t *testing.T) {
	dir := t.TempDir()
	path := GoldenPath(dir, "math")
	assert.Equal(t, filepath.Join(dir, "golden", "math.golden"), path)

	res := NewResult("math")
	res.Events = 4

	_, err := CompareGolden(path, res, false)
	assert.ErrorContains(t, err, "--update")

	diff, err := CompareGolden(path, res, true)
	require.NoError(t, err)
	assert.Empty(t, diff)
	assert.FileExists(t, path)

	diff, err = CompareGolden(path, res, false)
	require.NoError(t, err)
	assert.Empty(t, diff)

	res.AddDiagnostic("new failure")
	diff, err = CompareGolden(path, res, false)
	require.NoError(t, err)
	assert.Contains(t, diff, "new failure")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "new failure", "compare does not rewrite")
}

func TestCompareGolden_CommittedSnapshot(t *testing.T) {
	res, err := RunFile(t.Context(), suitePath("math.yaml"))
	require.NoError(t, err)

	diff, err := CompareGolden(GoldenPath(filepath.Join("testdata", "suite"), "math"), res, false)
	require.NoError(t, err)
	assert.Empty(t, diff)
}
