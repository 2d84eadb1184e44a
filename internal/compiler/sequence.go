package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/tapcheck/internal/check"
	"github.com/roach88/tapcheck/internal/ir"
)

// Field matcher keys. A field value that is a mapping with exactly one of
// these keys is a matcher; any other value is a literal.
const (
	MatchLike    = "like"
	MatchAll     = "all"
	MatchAbsent  = "absent"
	MatchPresent = "present"
)

// Sequence compiles the expect list into a check sequence.
//
// A mapping with an "event" key is an event expectation with optional
// "fields". Any other mapping must have exactly one key, the directive name,
// whose value is the directive argument. The bare string "end" is the end
// directive. Other items that are not mappings are stray values: ignored
// with a warning when other items declare expectations, an error otherwise.
func Sequence(sc *Scenario, opts ...check.Option) (*check.Sequence, error) {
	var (
		strays    []any
		strayLine int
	)
	seq, err := check.BuildValue(func(b *check.Builder) any {
		for _, item := range sc.Expect {
			if name, ok := item.Value.(string); ok && name == check.DirectiveEnd {
				b.At(sc.Site(item.Line)).End()
				continue
			}
			m, ok := item.Value.(map[string]any)
			if !ok {
				if len(strays) == 0 {
					strayLine = item.Line
				}
				strays = append(strays, item.Value)
				continue
			}
			declare(b, sc.Site(item.Line), m)
		}
		if len(strays) == 0 {
			return nil
		}
		return strays
	}, opts...)
	if err != nil {
		var ue *check.UsageError
		if errors.As(err, &ue) && ue.Code == check.ErrCodeStrayValue {
			ue.Site = sc.Site(strayLine)
		}
		return nil, err
	}
	seq.Site = sc.Site(1)
	return seq, nil
}

func declare(b *check.Builder, site ir.Site, item map[string]any) {
	if typ, ok := item["event"]; ok {
		for key := range item {
			if key != "event" && key != "fields" {
				panic(invalid(site, "event item: unknown key %q", key))
			}
		}
		name, ok := typ.(string)
		if !ok || name == "" {
			panic(invalid(site, "event item: type must be a non-empty string, got %v", typ))
		}

		var fields map[string]any
		if raw, ok := item["fields"]; ok && raw != nil {
			if fields, ok = raw.(map[string]any); !ok {
				panic(invalid(site, "event %q: fields must be a mapping, got %T", name, raw))
			}
		}
		matchers := make(map[string]check.Matcher, len(fields))
		for field, v := range fields {
			matchers[field] = fieldMatcher(site, v)
		}
		b.At(site).EventWith(ir.EventType(name), matchers)
		return
	}

	if len(item) != 1 {
		panic(invalid(site, "directive item needs exactly one key, got %d", len(item)))
	}
	for name, arg := range item {
		b.At(site).Directive(name, arg)
	}
}

func fieldMatcher(site ir.Site, v any) (m check.Matcher) {
	defer func() {
		if r := recover(); r != nil {
			if ue, ok := r.(*check.UsageError); ok && ue.Site.IsZero() {
				ue.Site = site
			}
			panic(r)
		}
	}()

	form, ok := v.(map[string]any)
	if !ok || len(form) != 1 {
		return check.Literal(v)
	}
	for key, arg := range form {
		switch key {
		case MatchLike:
			expr, ok := arg.(string)
			if !ok {
				panic(invalid(site, "like needs a pattern string, got %v", arg))
			}
			return check.Pattern(expr)
		case MatchAll:
			list, ok := arg.([]any)
			if !ok || len(list) == 0 {
				panic(invalid(site, "all needs a list of patterns, got %v", arg))
			}
			exprs := make([]string, len(list))
			for i, elem := range list {
				if exprs[i], ok = elem.(string); !ok {
					panic(invalid(site, "all: pattern %d is not a string", i))
				}
			}
			return check.AllOf(exprs...)
		case MatchAbsent, MatchPresent:
			flag, ok := arg.(bool)
			if !ok {
				panic(invalid(site, "%s needs true or false, got %v", key, arg))
			}
			if flag == (key == MatchAbsent) {
				return check.Absent()
			}
			return check.Present()
		}
	}
	return check.Literal(v)
}

func invalid(site ir.Site, format string, args ...any) *check.UsageError {
	return &check.UsageError{
		Code:    check.ErrCodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
		Site:    site,
	}
}
