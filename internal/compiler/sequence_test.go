package compiler

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tapcheck/internal/check"
	"github.com/roach88/tapcheck/internal/ir"
)

func parseYAMLScenario(t *testing.T, src string) *Scenario {
	t.Helper()
	sc, err := ParseYAML([]byte(src), "suite/s.yaml")
	require.NoError(t, err)
	return sc
}

func okEvent(fields map[string]any) ir.Event {
	return ir.NewEvent(ir.EventOk, ir.MustObject(fields), ir.Site{})
}

func TestSequence_SitesPointAtScenario(t *testing.T) {
	sc := parseYAMLScenario(t, `
name: s
expect:
  - event: ok
    fields: {x: 1}
  - end: true
`)
	seq, err := Sequence(sc)
	require.NoError(t, err)

	exps := seq.Expectations()
	assert.Equal(t, ir.Site{File: "suite/s.yaml", Line: 4}, exps[0].Declared())
	assert.Equal(t, ir.Site{File: "suite/s.yaml", Line: 6}, exps[1].Declared())
	assert.Equal(t, ir.Site{File: "suite/s.yaml", Line: 1}, seq.Site)

	res := seq.Run([]ir.Event{okEvent(map[string]any{"x": 2})})
	assert.False(t, res.Pass)
	assert.Contains(t, res.Diagnostics[0], "declared at s.yaml line 4")
}

func TestSequence_FieldMatchers(t *testing.T) {
	sc := parseYAMLScenario(t, `
name: s
expect:
  - event: ok
    fields:
      name: {like: "^z"}
      tags: {all: ["a", "b$"]}
      todo: {absent: true}
      pass: {present: true}
      skip: {absent: false}
      meta: {a: 1, b: 2}
      count: 3
`)
	seq, err := Sequence(sc)
	require.NoError(t, err)

	exp := seq.Expectations()[0].(*check.EventExpectation)
	assert.Equal(t, check.KindPattern, exp.Fields["name"].Kind())
	assert.Equal(t, check.KindAllOf, exp.Fields["tags"].Kind())
	assert.Equal(t, "absent", exp.Fields["todo"].String())
	assert.Equal(t, "present", exp.Fields["pass"].String())
	assert.Equal(t, "present", exp.Fields["skip"].String())
	assert.Equal(t, check.KindLiteral, exp.Fields["meta"].Kind())
	assert.Equal(t, check.KindLiteral, exp.Fields["count"].Kind())

	res := seq.Run([]ir.Event{okEvent(map[string]any{
		"name":  "zeta",
		"tags":  "a-b",
		"pass":  false,
		"skip":  "x",
		"meta":  map[string]any{"a": 1, "b": 2},
		"count": 3.0,
	})})
	assert.True(t, res.Pass, res.String())
}

func TestSequence_Directives(t *testing.T) {
	sc := parseYAMLScenario(t, `
name: s
expect:
  - drop: [note, diag]
  - skip: 1
  - event: ok
    fields: {name: b}
  - end: true
`)
	seq, err := Sequence(sc)
	require.NoError(t, err)

	events := []ir.Event{
		ir.NewEvent(ir.EventNote, nil, ir.Site{}),
		okEvent(map[string]any{"name": "a"}),
		ir.NewEvent(ir.EventDiag, nil, ir.Site{}),
		okEvent(map[string]any{"name": "b"}),
	}
	res := seq.Run(events)
	assert.True(t, res.Pass, res.String())
}

func TestSequence_UsageErrorsCarryScenarioSite(t *testing.T) {
	tests := []struct {
		name string
		item string
		code check.UsageErrorCode
	}{
		{"unknown directive", "  - rewind: 1", check.ErrCodeUnknownDirective},
		{"negative skip", "  - skip: -2", check.ErrCodeInvalidArgument},
		{"seek not bool", "  - seek: maybe", check.ErrCodeInvalidArgument},
		{"two directive keys", "  - {skip: 1, seek: true}", check.ErrCodeInvalidArgument},
		{"event extra key", "  - {event: ok, where: {}}", check.ErrCodeInvalidArgument},
		{"event without type", "  - {event: ''}", check.ErrCodeInvalidArgument},
		{"fields not a mapping", "  - {event: ok, fields: [1]}", check.ErrCodeInvalidArgument},
		{"bad pattern", "  - {event: ok, fields: {name: {like: '('}}}", check.ErrCodeInvalidArgument},
		{"like not a string", "  - {event: ok, fields: {name: {like: 1}}}", check.ErrCodeInvalidArgument},
		{"all empty", "  - {event: ok, fields: {name: {all: []}}}", check.ErrCodeInvalidArgument},
		{"absent not bool", "  - {event: ok, fields: {name: {absent: yes please}}}", check.ErrCodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := parseYAMLScenario(t, "name: s\nexpect:\n  - event: plan\n"+tt.item+"\n")
			_, err := Sequence(sc)
			var ue *check.UsageError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.code, ue.Code)
			assert.Equal(t, ir.Site{File: "suite/s.yaml", Line: 4}, ue.Site)
		})
	}
}

func TestSequence_StrayValues(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	sc := parseYAMLScenario(t, `
name: s
expect:
  - event: ok
  - 42
`)
	seq, err := Sequence(sc, check.WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 1, seq.Len())
	assert.Contains(t, logs.String(), "stray value")

	sc = parseYAMLScenario(t, `
name: s
expect:
  - just a string
  - 7
`)
	_, err = Sequence(sc)
	var ue *check.UsageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, check.ErrCodeStrayValue, ue.Code)
	assert.Equal(t, 4, ue.Site.Line)
}

func TestSequence_BareEnd(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	sc := parseYAMLScenario(t, `
name: s
expect:
  - event: ok
  - end
`)
	seq, err := Sequence(sc, check.WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 2, seq.Len())
	assert.Empty(t, logs.String())
	assert.Equal(t, ir.Site{File: "suite/s.yaml", Line: 5}, seq.Expectations()[1].Declared())

	res := seq.Run([]ir.Event{okEvent(nil), okEvent(nil)})
	assert.False(t, res.Pass)
	assert.Contains(t, res.String(), "s.yaml line 5")
}
