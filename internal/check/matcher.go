package check

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/tapcheck/internal/ir"
)

// MatcherKind discriminates Matcher variants.
type MatcherKind int

const (
	KindLiteral MatcherKind = iota
	KindPattern
	KindAllOf
	KindFunc
)

func (k MatcherKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindPattern:
		return "pattern"
	case KindAllOf:
		return "all-of"
	case KindFunc:
		return "predicate"
	default:
		return fmt.Sprintf("MatcherKind(%d)", int(k))
	}
}

// Predicate is a custom field check. actual is nil when the field is absent
// from the event. The returned diagnostics are reported verbatim on failure.
type Predicate func(field string, actual ir.IRValue) (bool, []string)

// Matcher checks one field of an event. Construct it with Literal, Pattern,
// PatternOf, AllOf, Func or Infer; the zero Matcher matches only an explicit
// null.
type Matcher struct {
	kind     MatcherKind
	literal  ir.IRValue
	patterns []*regexp.Regexp
	pred     Predicate
	label    string
}

// Literal matches a value by equality. Numbers compare numerically, so
// Literal(1) matches both 1 and 1.0. Panics with a *UsageError if v cannot be
// represented as a field value.
func Literal(v any) Matcher {
	val, err := ir.FromGo(v)
	if err != nil {
		panic(usagef(ErrCodeInvalidArgument, ir.Site{}, "literal matcher: %v", err))
	}
	return Matcher{kind: KindLiteral, literal: val}
}

// Pattern matches the field's text form against a regular expression.
// Panics with a *UsageError if expr does not compile.
func Pattern(expr string) Matcher {
	return PatternOf(compile(expr))
}

// PatternOf is Pattern for an already compiled expression.
func PatternOf(re *regexp.Regexp) Matcher {
	if re == nil {
		panic(usagef(ErrCodeInvalidArgument, ir.Site{}, "pattern matcher: nil regexp"))
	}
	return Matcher{kind: KindPattern, patterns: []*regexp.Regexp{re}}
}

// AllOf matches when every expression matches the field's text form.
func AllOf(exprs ...string) Matcher {
	res := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		res[i] = compile(expr)
	}
	return allOf(res)
}

func allOf(res []*regexp.Regexp) Matcher {
	if len(res) == 0 {
		panic(usagef(ErrCodeMissingArgument, ir.Site{}, "all-of matcher needs at least one pattern"))
	}
	for _, re := range res {
		if re == nil {
			panic(usagef(ErrCodeInvalidArgument, ir.Site{}, "all-of matcher: nil regexp"))
		}
	}
	return Matcher{kind: KindAllOf, patterns: res}
}

// Func wraps a custom predicate.
func Func(p Predicate) Matcher {
	return namedFunc("predicate", p)
}

func namedFunc(label string, p Predicate) Matcher {
	if p == nil {
		panic(usagef(ErrCodeMissingArgument, ir.Site{}, "predicate matcher: nil function"))
	}
	return Matcher{kind: KindFunc, pred: p, label: label}
}

// Absent matches only when the field is missing from the event.
func Absent() Matcher {
	return namedFunc("absent", func(field string, actual ir.IRValue) (bool, []string) {
		if actual == nil {
			return true, nil
		}
		return false, []string{fmt.Sprintf("field %q: expected absent, got %s", field, ir.Describe(actual))}
	})
}

// Present matches any value, including null, as long as the field exists.
func Present() Matcher {
	return namedFunc("present", func(field string, actual ir.IRValue) (bool, []string) {
		if actual != nil {
			return true, nil
		}
		return false, []string{fmt.Sprintf("field %q: expected present, got <absent>", field)}
	})
}

// Infer picks the matcher variant for a value once, at declaration time:
//   - a Matcher is used as is
//   - *regexp.Regexp becomes PatternOf
//   - []*regexp.Regexp becomes AllOf
//   - a Predicate or func(string, ir.IRValue) (bool, []string) becomes Func
//   - anything else becomes Literal
func Infer(v any) Matcher {
	switch val := v.(type) {
	case Matcher:
		return val
	case *regexp.Regexp:
		return PatternOf(val)
	case []*regexp.Regexp:
		return allOf(val)
	case Predicate:
		return Func(val)
	case func(string, ir.IRValue) (bool, []string):
		return Func(val)
	default:
		return Literal(v)
	}
}

// Kind returns the matcher variant.
func (m Matcher) Kind() MatcherKind {
	return m.kind
}

// String describes what the matcher expects.
func (m Matcher) String() string {
	switch m.kind {
	case KindPattern:
		return "/" + m.patterns[0].String() + "/"
	case KindAllOf:
		parts := make([]string, len(m.patterns))
		for i, re := range m.patterns {
			parts[i] = "/" + re.String() + "/"
		}
		return "all of " + strings.Join(parts, ", ")
	case KindFunc:
		return m.label
	default:
		if m.literal == nil {
			return "null"
		}
		return ir.Describe(m.literal)
	}
}

// Evaluate checks actual against the matcher. present is false when the
// field is missing from the event, in which case actual is ignored. Only
// predicates can accept a missing field.
func (m Matcher) Evaluate(field string, actual ir.IRValue, present bool) (bool, []string) {
	if !present {
		actual = nil
	}
	if m.kind == KindFunc {
		return m.pred(field, actual)
	}
	if !present {
		return false, []string{fmt.Sprintf("field %q: expected %s, got <absent>", field, m)}
	}

	switch m.kind {
	case KindPattern, KindAllOf:
		text := ir.Text(actual)
		var diags []string
		for _, re := range m.patterns {
			if !re.MatchString(text) {
				diags = append(diags, fmt.Sprintf("field %q: %q does not match /%s/", field, text, re))
			}
		}
		return len(diags) == 0, diags
	default:
		expected := m.literal
		if expected == nil {
			expected = ir.IRNull{}
		}
		if literalEqual(expected, actual) {
			return true, nil
		}
		diags := []string{fmt.Sprintf("field %q: expected %s, got %s", field, ir.Describe(expected), ir.Describe(actual))}
		if isComposite(expected) && isComposite(actual) {
			diags = append(diags, fmt.Sprintf("field %q: diff (-expected +actual):\n%s", field, cmp.Diff(expected, actual)))
		}
		return false, diags
	}
}

// numericEqual lets an IRInt equal an IRFloat of the same value anywhere
// inside a composite.
var numericEqual = cmp.FilterValues(
	func(x, y ir.IRValue) bool {
		_, xok := ir.Numeric(x)
		_, yok := ir.Numeric(y)
		return xok && yok
	},
	cmp.Comparer(numbersEqual),
)

// numbersEqual compares two numeric values. Two ints compare exactly; any
// float on either side compares as float64.
func numbersEqual(x, y ir.IRValue) bool {
	if xi, ok := x.(ir.IRInt); ok {
		if yi, ok := y.(ir.IRInt); ok {
			return xi == yi
		}
	}
	xf, xok := ir.Numeric(x)
	yf, yok := ir.Numeric(y)
	return xok && yok && xf == yf
}

func literalEqual(expected, actual ir.IRValue) bool {
	if _, ok := ir.Numeric(expected); ok {
		return numbersEqual(expected, actual)
	}
	return cmp.Equal(expected, actual, numericEqual)
}

func isComposite(v ir.IRValue) bool {
	switch v.(type) {
	case ir.IRArray, ir.IRObject:
		return true
	default:
		return false
	}
}

func compile(expr string) *regexp.Regexp {
	re, err := regexp.Compile(expr)
	if err != nil {
		panic(usagef(ErrCodeInvalidArgument, ir.Site{}, "pattern %q: %v", expr, err))
	}
	return re
}
