package check

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/roach88/tapcheck/internal/ir"
)

// F is the field mapping of an event expectation. Values go through Infer.
type F map[string]any

// Builder collects expectations while a declaration block runs. It is only
// usable inside the block passed to Build or BuildValue; every method panics
// with a *UsageError once the block has returned.
type Builder struct {
	exps   []Expectation
	sealed bool
	next   ir.Site
}

// Event declares that the next event has type typ and matches fields.
func (b *Builder) Event(typ ir.EventType, fields F) *Builder {
	site := b.site()
	matchers := make(map[string]Matcher, len(fields))
	for name, v := range fields {
		matchers[name] = withSite(site, func() Matcher { return Infer(v) })
	}
	b.exps = append(b.exps, &EventExpectation{Type: typ, Fields: matchers, Site: site})
	return b
}

// EventWith is Event with explicit matchers.
func (b *Builder) EventWith(typ ir.EventType, fields map[string]Matcher) *Builder {
	site := b.site()
	matchers := make(map[string]Matcher, len(fields))
	for name, m := range fields {
		matchers[name] = m
	}
	b.exps = append(b.exps, &EventExpectation{Type: typ, Fields: matchers, Site: site})
	return b
}

// Skip declares that the next n events are consumed without comparison.
func (b *Builder) Skip(n int) *Builder {
	return b.directive(b.site(), DirectiveSkip, n)
}

// Seek turns seek mode on or off for the expectations that follow. In seek
// mode an event expectation skips forward to the first event of its type and
// matches fields against that event only; a field mismatch there fails
// without scanning further.
func (b *Builder) Seek(on bool) *Builder {
	return b.directive(b.site(), DirectiveSeek, on)
}

// End declares that no events may remain.
func (b *Builder) End() *Builder {
	return b.directive(b.site(), DirectiveEnd, nil)
}

// Directive declares a built-in directive by name. skip takes a
// non-negative integer, seek a bool, end nothing and drop a list of event
// types.
func (b *Builder) Directive(name string, arg any) *Builder {
	return b.directive(b.site(), name, arg)
}

// Custom declares a directive backed by fn. arg is handed to fn unchanged.
func (b *Builder) Custom(name string, fn DirectiveFunc, arg any) *Builder {
	site := b.site()
	if fn == nil {
		panic(usagef(ErrCodeMissingArgument, site, "custom directive %q: nil function", name))
	}
	b.exps = append(b.exps, &Directive{Name: name, Arg: arg, Func: fn, Site: site})
	return b
}

// At sets the declaration site recorded for the next expectation, in place
// of the caller's source line. Scenario files use it to point diagnostics at
// the scenario rather than at the loader.
func (b *Builder) At(site ir.Site) *Builder {
	b.active("At", ir.CallerSite(1))
	b.next = site
	return b
}

// Len returns the number of expectations declared so far.
func (b *Builder) Len() int {
	return len(b.exps)
}

func (b *Builder) directive(site ir.Site, name string, arg any) *Builder {
	d := &Directive{Name: name, Site: site}
	switch name {
	case DirectiveSkip:
		if arg == nil {
			panic(usagef(ErrCodeMissingArgument, site, "skip needs a count"))
		}
		n, ok := toInt(arg)
		if !ok || n < 0 {
			panic(usagef(ErrCodeInvalidArgument, site, "skip needs a non-negative integer, got %v", arg))
		}
		d.Arg = n
	case DirectiveSeek:
		if arg == nil {
			panic(usagef(ErrCodeMissingArgument, site, "seek needs true or false"))
		}
		on, ok := toBool(arg)
		if !ok {
			panic(usagef(ErrCodeInvalidArgument, site, "seek needs a bool, got %v", arg))
		}
		d.Arg = on
	case DirectiveEnd:
		if on, ok := toBool(arg); arg != nil && (!ok || !on) {
			panic(usagef(ErrCodeInvalidArgument, site, "end takes no argument, got %v", arg))
		}
	case DirectiveDrop:
		types, ok := toTypes(arg)
		if !ok || len(types) == 0 {
			panic(usagef(ErrCodeInvalidArgument, site, "drop needs a list of event types, got %v", arg))
		}
		d.Arg = types
		d.Func = DropTypes(types...)
	default:
		panic(usagef(ErrCodeUnknownDirective, site, "unknown directive %q", name))
	}
	b.exps = append(b.exps, d)
	return b
}

// site returns the declaration site for the expectation being added: the
// pending At site if any, else the caller of the exported Builder method.
func (b *Builder) site() ir.Site {
	caller := ir.CallerSite(2)
	b.active("declaration", caller)
	if !b.next.IsZero() {
		site := b.next
		b.next = ir.Site{}
		return site
	}
	return caller
}

func (b *Builder) active(what string, caller ir.Site) {
	if b == nil || b.sealed {
		panic(usagef(ErrCodeOutsideScope, caller, "%s outside an active declaration block", what))
	}
}

// withSite runs fn, stamping any *UsageError it panics with on site.
func withSite(site ir.Site, fn func() Matcher) Matcher {
	defer func() {
		if r := recover(); r != nil {
			if ue, ok := r.(*UsageError); ok && ue.Site.IsZero() {
				ue.Site = site
			}
			panic(r)
		}
	}()
	return fn()
}

// Option configures Build and BuildValue.
type Option func(*buildOptions)

type buildOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger that receives misuse warnings.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// Build runs block with a fresh Builder and returns the declared Sequence.
// Usage errors raised inside the block are returned rather than panicking.
func Build(block func(b *Builder), opts ...Option) (*Sequence, error) {
	if block == nil {
		return nil, usagef(ErrCodeMissingArgument, ir.CallerSite(1), "nil declaration block")
	}
	return build(ir.FuncSite(block), func(b *Builder) any {
		block(b)
		return nil
	}, opts)
}

// BuildValue is Build for blocks that return a value. A non-empty return
// alongside declared expectations is logged as a warning; a non-empty return
// with nothing declared is a usage error, since the value was almost
// certainly meant to be an expectation.
func BuildValue(block func(b *Builder) any, opts ...Option) (*Sequence, error) {
	if block == nil {
		return nil, usagef(ErrCodeMissingArgument, ir.CallerSite(1), "nil declaration block")
	}
	return build(ir.FuncSite(block), block, opts)
}

func build(site ir.Site, block func(b *Builder) any, opts []Option) (seq *Sequence, err error) {
	o := buildOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Builder{}
	defer func() {
		b.sealed = true
		if r := recover(); r != nil {
			ue, ok := r.(*UsageError)
			if !ok {
				panic(r)
			}
			seq, err = nil, ue
		}
	}()

	ret := block(b)
	if !isEmpty(ret) {
		if len(b.exps) == 0 {
			return nil, usagef(ErrCodeStrayValue, site,
				"declaration block returned %s and declared no expectations", describeStray(ret))
		}
		o.logger.Warn("declaration block returned a stray value",
			"value", describeStray(ret),
			"site", site.String(),
			"expectations", len(b.exps))
	}

	return &Sequence{Site: site, exps: b.exps}, nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func describeStray(v any) string {
	return fmt.Sprintf("%T(%v)", v, v)
}

func toInt(v any) (int, bool) {
	val, err := ir.FromGo(v)
	if err != nil {
		return 0, false
	}
	n, ok := val.(ir.IRInt)
	return int(n), ok
}

func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case ir.IRBool:
		return bool(val), true
	default:
		return false, false
	}
}

func toTypes(v any) ([]ir.EventType, bool) {
	switch val := v.(type) {
	case []ir.EventType:
		return val, true
	case ir.EventType:
		return []ir.EventType{val}, true
	case string:
		return []ir.EventType{ir.EventType(val)}, true
	}
	arr, err := ir.FromGo(v)
	if err != nil {
		return nil, false
	}
	list, ok := arr.(ir.IRArray)
	if !ok {
		return nil, false
	}
	types := make([]ir.EventType, 0, len(list))
	for _, elem := range list {
		s, ok := elem.(ir.IRString)
		if !ok {
			return nil, false
		}
		types = append(types, ir.EventType(s))
	}
	return types, true
}
