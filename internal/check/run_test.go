package check

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tapcheck/internal/ir"
)

func ev(typ ir.EventType, fields map[string]any) ir.Event {
	return ir.NewEvent(typ, ir.MustObject(fields), ir.Site{})
}

func mustBuild(t *testing.T, block func(b *Builder)) *Sequence {
	t.Helper()
	seq, err := Build(block)
	require.NoError(t, err)
	return seq
}

func TestRun_EmptyAgainstEmptyPasses(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {})

	res := seq.Run(nil)
	assert.True(t, res.Pass)
	assert.Empty(t, res.Diagnostics)
}

func TestRun_EqualSequenceWithEmptyMatchersPasses(t *testing.T) {
	events := []ir.Event{
		ev(ir.EventPlan, map[string]any{"count": 2}),
		ev(ir.EventOk, map[string]any{"name": "a", "pass": true}),
		ev(ir.EventNote, map[string]any{"text": "hello"}),
	}
	seq := mustBuild(t, func(b *Builder) {
		b.Event(ir.EventPlan, nil)
		b.Event(ir.EventOk, F{})
		b.Event(ir.EventNote, nil)
	})

	res := seq.Run(events)
	assert.True(t, res.Pass)
	assert.Empty(t, res.Diagnostics)
}

func TestRun_ShortSequenceReportsNoMoreEvents(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Event(ir.EventOk, nil)
		b.Event(ir.EventNote, nil)
	})
	declared := seq.Expectations()[1].Declared()
	require.Equal(t, "run_test.go", filepath.Base(declared.File))

	res := seq.Run([]ir.Event{ev(ir.EventOk, nil)})
	assert.False(t, res.Pass)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, `no more events, expected type "note" declared at `+declared.String(), res.Diagnostics[0])
}

func TestRun_PartialFieldMatchPasses(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Event("A", F{"x": 1})
		b.Event("B", F{"y": regexp.MustCompile("^z")})
	})

	res := seq.Run([]ir.Event{
		ev("A", map[string]any{"x": 1, "extra": 9}),
		ev("B", map[string]any{"y": "zeta"}),
	})
	assert.True(t, res.Pass)
	assert.Empty(t, res.Diagnostics)
}

func TestRun_FieldMismatchNamesFieldAndValues(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Event("A", F{"x": 1})
		b.Event("B", F{"y": regexp.MustCompile("^z")})
	})

	res := seq.Run([]ir.Event{
		ev("A", map[string]any{"x": 2}),
		ev("B", map[string]any{"y": "zeta"}),
	})
	assert.False(t, res.Pass)
	assert.Contains(t, res.Diagnostics, `field "x": expected 1, got 2`)
	require.Len(t, res.Diagnostics, 2, "the type-matched event is consumed, so B still matches")
	assert.Contains(t, res.Diagnostics[0], "at position 0")
	assert.Contains(t, res.Diagnostics[0], seq.Expectations()[0].Declared().String())
}

func TestRun_MissingFieldFails(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Event("A", F{"x": 1})
	})

	res := seq.Run([]ir.Event{ev("A", map[string]any{"y": 1})})
	assert.False(t, res.Pass)
	assert.Contains(t, res.Diagnostics, `field "x": expected 1, got <absent>`)
}

func TestRun_Skip(t *testing.T) {
	events := []ir.Event{ev("A", nil), ev("B", nil), ev("C", nil)}

	t.Run("skip then match", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Skip(2)
			b.Event("C", nil)
			b.End()
		})
		res := seq.Run(events)
		assert.True(t, res.Pass, res.String())
	})

	t.Run("skip zero is a no-op", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Skip(0)
			b.Event("A", nil)
		})
		assert.True(t, seq.Run(events).Pass)
	})

	t.Run("shortfall consumes nothing", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Skip(5)
			b.Event("A", nil)
		})
		res := seq.Run(events)
		assert.False(t, res.Pass)
		require.Len(t, res.Diagnostics, 1)
		assert.Contains(t, res.Diagnostics[0], "skip(5)")
		assert.Contains(t, res.Diagnostics[0], "only 3 remain, 2 short")
	})
}

func TestRun_SeekToleratesInterleaving(t *testing.T) {
	events := []ir.Event{
		ev("A", nil),
		ev("X", nil),
		ev("Y", nil),
		ev("B", nil),
	}

	t.Run("seek on", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Seek(true)
			b.Event("A", nil)
			b.Event("B", nil)
			b.End()
		})
		res := seq.Run(events)
		assert.True(t, res.Pass, res.String())
	})

	t.Run("seek off by default", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Event("A", nil)
			b.Event("B", nil)
		})
		res := seq.Run(events)
		assert.False(t, res.Pass)
		require.NotEmpty(t, res.Diagnostics)
		assert.Contains(t, res.Diagnostics[0], `wrong type, got type "X" at position 1 expected type "B"`)
	})

	t.Run("seek toggled off again", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Seek(true)
			b.Event("X", nil)
			b.Seek(false)
			b.Event("B", nil)
		})
		res := seq.Run(events)
		assert.False(t, res.Pass)
		assert.Contains(t, res.Diagnostics[0], `got type "Y" at position 2`)
	})
}

func TestRun_SeekExhaustionFailsWithoutConsuming(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Seek(true)
		b.Event("Z", nil)
		b.Event("A", nil)
	})

	res := seq.Run([]ir.Event{ev("A", nil), ev("B", nil)})
	assert.False(t, res.Pass)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], `seek found no event of type "Z" in 2 remaining events`)
}

func TestRun_SeekStopsAtFirstEventOfType(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Seek(true)
		b.Event("ok", F{"n": 2})
	})

	res := seq.Run([]ir.Event{
		ev("note", nil),
		ev("ok", map[string]any{"n": 1}),
		ev("ok", map[string]any{"n": 2}),
	})
	assert.False(t, res.Pass)
	require.Len(t, res.Diagnostics, 2)
	assert.Contains(t, res.Diagnostics[0], "at position 1")
	assert.Contains(t, res.Diagnostics[1], `field "n": expected 2, got 1`)
}

func TestRun_End(t *testing.T) {
	t.Run("nothing left", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Event("A", nil)
			b.End()
		})
		res := seq.Run([]ir.Event{ev("A", nil)})
		assert.True(t, res.Pass)
		assert.Empty(t, res.Diagnostics)
	})

	t.Run("each extra reported", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Event("A", nil)
			b.End()
		})
		res := seq.Run([]ir.Event{
			ev("A", nil),
			ev(ir.EventOk, map[string]any{"name": "late"}),
			ev(ir.EventNote, nil),
		})
		assert.False(t, res.Pass)
		require.Len(t, res.Diagnostics, 2)
		assert.Contains(t, res.Diagnostics[0], `unexpected extra event ok "late" at position 1`)
		assert.Contains(t, res.Diagnostics[1], "unexpected extra event note at position 2")
	})

	t.Run("extras ignored without end", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Event("A", nil)
		})
		res := seq.Run([]ir.Event{ev("A", nil), ev("B", nil)})
		assert.True(t, res.Pass)
	})
}

func TestRun_DiagnosticsNameEmissionSite(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Event("A", nil)
	})

	actual := ir.NewEvent("B", nil, ir.Site{File: "/src/emit_test.go", Line: 7})
	res := seq.Run([]ir.Event{actual})
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "(emitted at emit_test.go line 7)")
}

func TestRun_SubtestIsOpaque(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Event(ir.EventSubtest, F{"name": "group", "pass": false})
		b.End()
	})

	res := seq.Run([]ir.Event{
		ev(ir.EventSubtest, map[string]any{"name": "group", "pass": false, "total": 3, "failed": 1}),
	})
	assert.True(t, res.Pass, res.String())
}

func TestRun_DropDirective(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Directive(DirectiveDrop, []string{"note", "diag"})
		b.Event(ir.EventOk, F{"name": "a"})
		b.Event(ir.EventOk, F{"name": "b"})
		b.End()
	})

	res := seq.Run([]ir.Event{
		ev(ir.EventNote, nil),
		ev(ir.EventOk, map[string]any{"name": "a"}),
		ev(ir.EventDiag, nil),
		ev(ir.EventOk, map[string]any{"name": "b"}),
		ev(ir.EventNote, nil),
	})
	assert.True(t, res.Pass, res.String())
}

func TestRun_DropKeepsOriginalPositions(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Custom("drop-notes", DropTypes(ir.EventNote), nil)
		b.Event(ir.EventOk, nil)
		b.Event(ir.EventPlan, nil)
	})

	res := seq.Run([]ir.Event{
		ev(ir.EventOk, nil),
		ev(ir.EventNote, nil),
		ev(ir.EventDiag, nil),
	})
	assert.False(t, res.Pass)
	assert.Contains(t, res.Diagnostics[0], `got type "diag" at position 2`)
}

func TestRun_CustomDirective(t *testing.T) {
	t.Run("advances cursor", func(t *testing.T) {
		skipNotes := func(st *State, _ any) (bool, []string) {
			n := 0
			for _, e := range st.Remaining() {
				if e.Type != ir.EventNote {
					break
				}
				n++
			}
			return st.Advance(n), nil
		}
		seq := mustBuild(t, func(b *Builder) {
			b.Custom("skip-notes", skipNotes, nil)
			b.Event(ir.EventOk, nil)
		})
		res := seq.Run([]ir.Event{ev(ir.EventNote, nil), ev(ir.EventNote, nil), ev(ir.EventOk, nil)})
		assert.True(t, res.Pass)
	})

	t.Run("diagnostics forwarded verbatim", func(t *testing.T) {
		var gotArg any
		fails := func(st *State, arg any) (bool, []string) {
			gotArg = arg
			return false, []string{"custom said no"}
		}
		seq := mustBuild(t, func(b *Builder) {
			b.Custom("nope", fails, 42)
		})
		res := seq.Run(nil)
		assert.False(t, res.Pass)
		assert.Equal(t, 42, gotArg)
		require.Len(t, res.Diagnostics, 2)
		assert.Contains(t, res.Diagnostics[0], "directive nope declared at")
		assert.Equal(t, "custom said no", res.Diagnostics[1])
	})

	t.Run("panic propagates", func(t *testing.T) {
		seq := mustBuild(t, func(b *Builder) {
			b.Custom("boom", func(*State, any) (bool, []string) { panic("boom") }, nil)
			b.Event("A", nil)
		})
		assert.PanicsWithValue(t, "boom", func() {
			seq.Run([]ir.Event{ev("A", nil)})
		})
	})
}

func TestRun_IsRepeatable(t *testing.T) {
	seq := mustBuild(t, func(b *Builder) {
		b.Event("A", F{"x": 1})
		b.End()
	})
	events := []ir.Event{ev("A", map[string]any{"x": 2}), ev("B", nil)}

	first := seq.Run(events)
	second := seq.Run(events)
	assert.Equal(t, first, second)
}

func TestState_AdvanceRejectsInvalid(t *testing.T) {
	st := newState([]ir.Event{ev("A", nil)})
	assert.False(t, st.Advance(-1))
	assert.False(t, st.Advance(2))
	assert.Equal(t, 0, st.Cursor())
	assert.True(t, st.Advance(1))
	assert.Empty(t, st.Remaining())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "pass", (&Result{Pass: true}).String())

	r := &Result{Pass: true}
	r.AddDiagnostic("one")
	r.AddDiagnostic("two")
	assert.Equal(t, "fail\n  one\n  two", r.String())
}
