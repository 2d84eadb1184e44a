package formatter

import (
	"errors"
	"fmt"
	"strings"
)

// Lifecycle option errors.
var (
	// ErrConflictingPlan is returned when more than one plan option is given.
	ErrConflictingPlan = errors.New("conflicting plan options")

	// ErrUnknownOption is returned when a phase is given an option it does
	// not accept.
	ErrUnknownOption = errors.New("unknown option")
)

// Phase is the lifecycle position of a Formatter.
type Phase int

const (
	NotStarted Phase = iota
	Started
	Finished
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not-started"
	case Started:
		return "started"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// PlanKind discriminates Plan.
type PlanKind int

const (
	// PlanUnset means no plan option was given.
	PlanUnset PlanKind = iota
	// PlanTests is a fixed count of results.
	PlanTests
	// PlanNone declares an unbounded run.
	PlanNone
	// PlanSkipAll declares the whole run skipped.
	PlanSkipAll
)

// Plan is the validated plan option of Begin or End.
type Plan struct {
	Kind   PlanKind
	Tests  int
	Reason string
}

// Option is a lifecycle option for Begin or End.
type Option struct {
	kind   PlanKind
	tests  int
	reason string
}

// Tests declares a fixed number of results.
func Tests(n int) Option {
	return Option{kind: PlanTests, tests: n}
}

// NoPlan declares an unbounded run. Begin only.
func NoPlan() Option {
	return Option{kind: PlanNone}
}

// SkipAll declares the whole run skipped. Begin only.
func SkipAll(reason string) Option {
	return Option{kind: PlanSkipAll, reason: reason}
}

func (o Option) name() string {
	switch o.kind {
	case PlanTests:
		return "tests"
	case PlanNone:
		return "no_plan"
	case PlanSkipAll:
		return "skip_all"
	default:
		return "unset"
	}
}

// Result is one record to render.
type Result struct {
	Pass bool   `json:"pass"`
	Name string `json:"name,omitempty"`

	// Number is the result's sequence number. Zero lets the hooks number
	// results themselves.
	Number int `json:"number,omitempty"`

	// Directive is "SKIP", "TODO" or empty.
	Directive string `json:"directive,omitempty"`
	Reason    string `json:"reason,omitempty"`

	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Hooks does the rendering for a Formatter.
type Hooks interface {
	Begin(f *Formatter, plan Plan) error
	Result(f *Formatter, r *Result) error
	End(f *Formatter, plan Plan) error
}

// Formatter validates lifecycle calls and delegates them to its Hooks.
// A Formatter is not safe for concurrent use.
type Formatter struct {
	hooks Hooks
	sink  Sink
	phase Phase
}

// New creates a Formatter writing to a default StreamSink.
func New(hooks Hooks) *Formatter {
	return &Formatter{hooks: hooks, sink: NewStreamSink()}
}

// Phase returns the current lifecycle phase.
func (f *Formatter) Phase() Phase {
	return f.phase
}

// Sink returns the current output sink.
func (f *Formatter) Sink() Sink {
	return f.sink
}

// SetSink replaces the output sink.
func (f *Formatter) SetSink(s Sink) {
	f.sink = s
}

// Capture swaps in a fresh CaptureSink and returns it.
func (f *Formatter) Capture() *CaptureSink {
	c := &CaptureSink{}
	f.sink = c
	return c
}

// Begin validates opts (at most one of Tests, NoPlan, SkipAll) and calls the
// Begin hook.
func (f *Formatter) Begin(opts ...Option) error {
	plan, err := planOf("begin", opts, func(o Option) bool { return true })
	if err != nil {
		return err
	}
	f.phase = Started
	return f.hooks.Begin(f, plan)
}

// Result forwards r to the Result hook unchanged.
func (f *Formatter) Result(r *Result) error {
	return f.hooks.Result(f, r)
}

// End validates opts (at most one Tests) and calls the End hook.
func (f *Formatter) End(opts ...Option) error {
	plan, err := planOf("end", opts, func(o Option) bool { return o.kind == PlanTests })
	if err != nil {
		return err
	}
	f.phase = Finished
	return f.hooks.End(f, plan)
}

func planOf(phase string, opts []Option, accepted func(Option) bool) (Plan, error) {
	var plan Plan
	for _, o := range opts {
		if o.kind == PlanUnset || !accepted(o) {
			return Plan{}, fmt.Errorf("%s: %w %q", phase, ErrUnknownOption, o.name())
		}
	}
	if len(opts) > 1 {
		names := make([]string, len(opts))
		for i, o := range opts {
			names[i] = o.name()
		}
		return Plan{}, fmt.Errorf("%s: %w: %s", phase, ErrConflictingPlan, strings.Join(names, ", "))
	}
	if len(opts) == 1 {
		plan = Plan{Kind: opts[0].kind, Tests: opts[0].tests, Reason: opts[0].reason}
	}
	if plan.Kind == PlanTests && plan.Tests < 0 {
		return Plan{}, fmt.Errorf("%s: tests must not be negative, got %d", phase, plan.Tests)
	}
	return plan, nil
}

// Print writes the default formatting of each argument to ch, back to back.
// No separators or newline are added.
func (f *Formatter) Print(ch Channel, args ...any) error {
	var buf strings.Builder
	for _, arg := range args {
		fmt.Fprint(&buf, arg)
	}
	return f.sink.Write(ch, []byte(buf.String()))
}
