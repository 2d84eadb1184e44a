package check

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tapcheck/internal/ir"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   ir.IRValue
		pass     bool
	}{
		{"equal strings", "a", ir.IRString("a"), true},
		{"different strings", "a", ir.IRString("b"), false},
		{"int equals float", 1, ir.IRFloat(1.0), true},
		{"float equals int", 2.0, ir.IRInt(2), true},
		{"number vs numeric string", 1, ir.IRString("1"), false},
		{"bool", true, ir.IRBool(true), true},
		{"null", nil, ir.IRNull{}, true},
		{"null vs empty string", nil, ir.IRString(""), false},
		{"nested numbers compare numerically", []any{1, map[string]any{"a": 2}}, ir.IRArray{ir.IRFloat(1), ir.IRObject{"a": ir.IRInt(2)}}, true},
		{"nested mismatch", map[string]any{"a": 1}, ir.IRObject{"a": ir.IRInt(3)}, false},
		{"large ints compare exactly", int64(1<<53 + 1), ir.IRInt(1 << 53), false},
		{"large ints equal", int64(1<<53 + 1), ir.IRInt(1<<53 + 1), true},
		{"nested large ints compare exactly", []any{int64(1<<53 + 1)}, ir.IRArray{ir.IRInt(1 << 53)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, diags := Literal(tt.expected).Evaluate("f", tt.actual, true)
			assert.Equal(t, tt.pass, ok)
			if tt.pass {
				assert.Empty(t, diags)
			} else {
				assert.NotEmpty(t, diags)
			}
		})
	}
}

func TestLiteral_MismatchDiagnostic(t *testing.T) {
	_, diags := Literal("abc").Evaluate("name", ir.IRString("abd"), true)
	assert.Equal(t, []string{`field "name": expected "abc", got "abd"`}, diags)
}

func TestLiteral_CompositeMismatchIncludesDiff(t *testing.T) {
	_, diags := Literal(map[string]any{"a": 1}).Evaluate("obj", ir.IRObject{"a": ir.IRInt(2)}, true)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[1], "diff (-expected +actual)")
}

func TestLiteral_UnsupportedValuePanics(t *testing.T) {
	ue := usagePanic(t, func() { Literal(make(chan int)) })
	assert.Equal(t, ErrCodeInvalidArgument, ue.Code)
}

func TestPattern(t *testing.T) {
	m := Pattern("^z")

	ok, diags := m.Evaluate("y", ir.IRString("zeta"), true)
	assert.True(t, ok)
	assert.Empty(t, diags)

	ok, diags = m.Evaluate("y", ir.IRString("alpha"), true)
	assert.False(t, ok)
	assert.Equal(t, []string{`field "y": "alpha" does not match /^z/`}, diags)
}

func TestPattern_CoercesToText(t *testing.T) {
	ok, _ := Pattern(`^\d+$`).Evaluate("n", ir.IRInt(42), true)
	assert.True(t, ok)

	ok, _ = Pattern("^true$").Evaluate("b", ir.IRBool(true), true)
	assert.True(t, ok)
}

func TestPattern_BadExpressionPanics(t *testing.T) {
	ue := usagePanic(t, func() { Pattern("(") })
	assert.Equal(t, ErrCodeInvalidArgument, ue.Code)
}

func TestAllOf(t *testing.T) {
	m := AllOf("^a", "z$", "m")

	ok, _ := m.Evaluate("f", ir.IRString("amz"), true)
	assert.True(t, ok)

	ok, diags := m.Evaluate("f", ir.IRString("abc"), true)
	assert.False(t, ok)
	assert.Len(t, diags, 2, "every failing pattern is reported")
	assert.Contains(t, diags[0], "/z$/")
	assert.Contains(t, diags[1], "/m/")
}

func TestAllOf_EmptyPanics(t *testing.T) {
	ue := usagePanic(t, func() { AllOf() })
	assert.Equal(t, ErrCodeMissingArgument, ue.Code)
}

func TestFunc_ForwardsDiagnosticsVerbatim(t *testing.T) {
	var gotField string
	var gotValue ir.IRValue
	m := Func(func(field string, actual ir.IRValue) (bool, []string) {
		gotField, gotValue = field, actual
		return false, []string{"first", "second"}
	})

	ok, diags := m.Evaluate("f", ir.IRInt(5), true)
	assert.False(t, ok)
	assert.Equal(t, []string{"first", "second"}, diags)
	assert.Equal(t, "f", gotField)
	assert.Equal(t, ir.IRInt(5), gotValue)
}

func TestAbsentField(t *testing.T) {
	for _, m := range []Matcher{Literal(1), Pattern("."), AllOf(".")} {
		ok, diags := m.Evaluate("f", ir.IRInt(1), false)
		assert.False(t, ok, m.Kind().String())
		assert.Len(t, diags, 1)
	}

	ok, _ := Absent().Evaluate("f", nil, false)
	assert.True(t, ok)
	ok, diags := Absent().Evaluate("f", ir.IRInt(1), true)
	assert.False(t, ok)
	assert.Equal(t, []string{`field "f": expected absent, got 1`}, diags)

	ok, _ = Present().Evaluate("f", ir.IRNull{}, true)
	assert.True(t, ok)
	ok, _ = Present().Evaluate("f", nil, false)
	assert.False(t, ok)
}

func TestInfer(t *testing.T) {
	pred := func(string, ir.IRValue) (bool, []string) { return true, nil }

	tests := []struct {
		name  string
		value any
		kind  MatcherKind
	}{
		{"literal", 3, KindLiteral},
		{"regexp", regexp.MustCompile("x"), KindPattern},
		{"regexps", []*regexp.Regexp{regexp.MustCompile("a"), regexp.MustCompile("b")}, KindAllOf},
		{"func literal", pred, KindFunc},
		{"predicate", Predicate(pred), KindFunc},
		{"matcher", AllOf("a"), KindAllOf},
		{"string is literal, not pattern", "^z", KindLiteral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, Infer(tt.value).Kind())
		})
	}
}

func TestMatcherString(t *testing.T) {
	assert.Equal(t, "1", Literal(1).String())
	assert.Equal(t, "/^z/", Pattern("^z").String())
	assert.Equal(t, "all of /a/, /b/", AllOf("a", "b").String())
	assert.Equal(t, "absent", Absent().String())
	assert.Equal(t, "null", Matcher{}.String())
}

func usagePanic(t *testing.T, fn func()) (ue *UsageError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		ue, ok = r.(*UsageError)
		require.True(t, ok, "expected *UsageError, got %T", r)
	}()
	fn()
	return nil
}
