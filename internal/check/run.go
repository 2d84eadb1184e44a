package check

import (
	"fmt"
	"strings"

	"github.com/roach88/tapcheck/internal/ir"
)

// Sequence is a sealed, ordered list of expectations. It is safe to Run more
// than once; each Run starts from a fresh cursor.
type Sequence struct {
	// Site is where the declaration block was written.
	Site ir.Site

	exps []Expectation
}

// Expectations returns the declared steps in order.
func (s *Sequence) Expectations() []Expectation {
	out := make([]Expectation, len(s.exps))
	copy(out, s.exps)
	return out
}

// Len returns the number of declared steps.
func (s *Sequence) Len() int {
	return len(s.exps)
}

// Result is the outcome of evaluating a Sequence.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Diagnostics lists every failure in evaluation order.
	// Empty if Pass is true.
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// AddDiagnostic records a failure and marks the result as failed.
func (r *Result) AddDiagnostic(msg string) {
	r.Diagnostics = append(r.Diagnostics, msg)
	r.Pass = false
}

// String renders the verdict followed by one diagnostic per line.
func (r *Result) String() string {
	if r.Pass {
		return "pass"
	}
	var buf strings.Builder
	buf.WriteString("fail")
	for _, d := range r.Diagnostics {
		buf.WriteString("\n  ")
		buf.WriteString(d)
	}
	return buf.String()
}

// Run evaluates the sequence against events. Events left over after the last
// expectation are ignored unless an end directive was declared.
//
// Run never fails early on a mismatch. A custom directive that panics aborts
// evaluation and the panic propagates to the caller.
func (s *Sequence) Run(events []ir.Event) *Result {
	st := newState(events)
	res := &Result{Pass: true}

	for _, exp := range s.exps {
		switch e := exp.(type) {
		case *EventExpectation:
			matchEvent(st, e, res)
		case *Directive:
			applyDirective(st, e, res)
		}
	}
	return res
}

func matchEvent(st *State, exp *EventExpectation, res *Result) {
	if st.done() {
		res.AddDiagnostic(fmt.Sprintf("no more events, expected type %q declared at %s", exp.Type, exp.Site))
		return
	}

	cur := st.current()
	if cur.event.Type != exp.Type {
		if !st.seek {
			res.AddDiagnostic(fmt.Sprintf("wrong type, got type %q at position %d%s expected type %q declared at %s",
				cur.event.Type, cur.pos, emittedAt(cur), exp.Type, exp.Site))
			return
		}
		found := -1
		for i := st.cursor + 1; i < len(st.entries); i++ {
			if st.entries[i].event.Type == exp.Type {
				found = i
				break
			}
		}
		if found < 0 {
			res.AddDiagnostic(fmt.Sprintf("seek found no event of type %q in %d remaining events, expected type %q declared at %s",
				exp.Type, st.remaining(), exp.Type, exp.Site))
			return
		}
		st.cursor = found
		cur = st.current()
	}

	var diags []string
	for _, name := range exp.fieldNames() {
		actual, present := cur.event.Field(name)
		if ok, d := exp.Fields[name].Evaluate(name, actual, present); !ok {
			if len(d) == 0 {
				d = []string{fmt.Sprintf("field %q: %s rejected %s", name, exp.Fields[name], ir.Describe(actual))}
			}
			diags = append(diags, d...)
		}
	}
	if len(diags) > 0 {
		res.AddDiagnostic(fmt.Sprintf("event %s at position %d%s does not match expectation declared at %s",
			cur.event, cur.pos, emittedAt(cur), exp.Site))
		for _, d := range diags {
			res.AddDiagnostic(d)
		}
	}

	// A type match always consumes the event, whatever its fields.
	st.cursor++
}

func applyDirective(st *State, d *Directive, res *Result) {
	switch {
	case d.Func != nil:
		ok, diags := d.Func(st, d.Arg)
		if !ok {
			res.AddDiagnostic(fmt.Sprintf("directive %s declared at %s failed", d.Name, d.Site))
			for _, msg := range diags {
				res.AddDiagnostic(msg)
			}
		}
	case d.Name == DirectiveSkip:
		n, _ := d.Arg.(int)
		if !st.Advance(n) {
			res.AddDiagnostic(fmt.Sprintf("skip(%d) declared at %s needs %d events but only %d remain, %d short",
				n, d.Site, n, st.remaining(), n-st.remaining()))
		}
	case d.Name == DirectiveSeek:
		st.seek, _ = d.Arg.(bool)
	case d.Name == DirectiveEnd:
		for _, e := range st.entries[st.cursor:] {
			res.AddDiagnostic(fmt.Sprintf("unexpected extra event %s at position %d%s, end declared at %s",
				e.event, e.pos, emittedAt(e), d.Site))
		}
		st.cursor = len(st.entries)
	}
}

func emittedAt(e entry) string {
	if e.event.Site.IsZero() {
		return ""
	}
	return " (emitted at " + e.event.Site.String() + ")"
}
