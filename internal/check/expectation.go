package check

import (
	"slices"

	"github.com/roach88/tapcheck/internal/ir"
)

// Built-in directive names.
const (
	DirectiveSkip = "skip"
	DirectiveSeek = "seek"
	DirectiveEnd  = "end"
	DirectiveDrop = "drop"
)

// Expectation is one declared step of a Sequence.
// Only *EventExpectation and *Directive implement it.
type Expectation interface {
	expectation()
	Declared() ir.Site
}

// EventExpectation expects the next event to have Type and to satisfy every
// matcher in Fields. Event fields without a matcher are ignored.
type EventExpectation struct {
	Type   ir.EventType
	Fields map[string]Matcher
	Site   ir.Site
}

func (*EventExpectation) expectation() {}

// Declared returns where the expectation was declared.
func (e *EventExpectation) Declared() ir.Site { return e.Site }

// fieldNames returns the constrained fields in a stable order so that
// diagnostics do not depend on map iteration.
func (e *EventExpectation) fieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DirectiveFunc is a custom directive. It runs synchronously during
// evaluation and may advance the cursor or rewrite the unconsumed events
// through st. Returned diagnostics are reported verbatim on failure. A panic
// aborts evaluation and propagates to the caller of Run.
type DirectiveFunc func(st *State, arg any) (bool, []string)

// Directive is a control step. Built-ins (skip, seek, end) have a nil Func;
// custom directives and drop carry one.
type Directive struct {
	Name string
	Arg  any
	Func DirectiveFunc
	Site ir.Site
}

func (*Directive) expectation() {}

// Declared returns where the directive was declared.
func (d *Directive) Declared() ir.Site { return d.Site }

// entry is an event together with its position in the sequence handed to
// Run, so diagnostics keep the original position after a rewrite.
type entry struct {
	event ir.Event
	pos   int
}

// State is the evaluation state visible to custom directives.
type State struct {
	entries []entry
	cursor  int
	seek    bool
}

func newState(events []ir.Event) *State {
	entries := make([]entry, len(events))
	for i, ev := range events {
		entries[i] = entry{event: ev, pos: i}
	}
	return &State{entries: entries}
}

// Cursor returns the number of events consumed so far.
func (st *State) Cursor() int {
	return st.cursor
}

// Seeking reports whether seek mode is on.
func (st *State) Seeking() bool {
	return st.seek
}

// Remaining returns a copy of the unconsumed events.
func (st *State) Remaining() []ir.Event {
	out := make([]ir.Event, 0, len(st.entries)-st.cursor)
	for _, e := range st.entries[st.cursor:] {
		out = append(out, e.event)
	}
	return out
}

// Advance consumes n events. It reports false, consuming nothing, when n is
// negative or fewer than n events remain.
func (st *State) Advance(n int) bool {
	if n < 0 || n > st.remaining() {
		return false
	}
	st.cursor += n
	return true
}

// Filter keeps only the unconsumed events for which keep returns true.
// Consumed events are never revisited.
func (st *State) Filter(keep func(ir.Event) bool) {
	kept := st.entries[:st.cursor:st.cursor]
	for _, e := range st.entries[st.cursor:] {
		if keep(e.event) {
			kept = append(kept, e)
		}
	}
	st.entries = kept
}

func (st *State) remaining() int {
	return len(st.entries) - st.cursor
}

func (st *State) done() bool {
	return st.cursor >= len(st.entries)
}

func (st *State) current() entry {
	return st.entries[st.cursor]
}

// DropTypes returns a directive that removes every unconsumed event of the
// given types. It always passes.
func DropTypes(types ...ir.EventType) DirectiveFunc {
	drop := slices.Clone(types)
	return func(st *State, _ any) (bool, []string) {
		st.Filter(func(ev ir.Event) bool {
			return !slices.Contains(drop, ev.Type)
		})
		return true, nil
	}
}
