package capture

import (
	"fmt"

	"github.com/roach88/tapcheck/internal/ir"
)

// Result directives carried in the "directive" field of ok events.
const (
	DirectiveSkip = "SKIP"
	DirectiveTodo = "TODO"
)

// Emitter is the producer side of an interception. Each method records one
// event attributed to the caller's source line. Using an Emitter after its
// interception ended panics with ErrClosed.
type Emitter struct {
	sess   *session
	root   *session
	closed bool
}

// Ok records an assertion result.
func (e *Emitter) Ok(pass bool, name string) {
	e.emit(ir.EventOk, ir.IRObject{
		"name": ir.IRString(name),
		"pass": ir.IRBool(pass),
	}, ir.CallerSite(1))
}

// Skip records a skipped assertion. Skipped assertions pass.
func (e *Emitter) Skip(name, reason string) {
	e.emit(ir.EventOk, ir.IRObject{
		"name":      ir.IRString(name),
		"pass":      ir.IRBool(true),
		"directive": ir.IRString(DirectiveSkip),
		"reason":    ir.IRString(reason),
	}, ir.CallerSite(1))
}

// Todo records an assertion that is expected to fail. It never counts as a
// failure.
func (e *Emitter) Todo(pass bool, name, reason string) {
	e.emit(ir.EventOk, ir.IRObject{
		"name":      ir.IRString(name),
		"pass":      ir.IRBool(pass),
		"directive": ir.IRString(DirectiveTodo),
		"reason":    ir.IRString(reason),
	}, ir.CallerSite(1))
}

// Note records an informational message.
func (e *Emitter) Note(msg string) {
	e.emit(ir.EventNote, ir.IRObject{"text": ir.IRString(msg)}, ir.CallerSite(1))
}

// Diag records a diagnostic message.
func (e *Emitter) Diag(msg string) {
	e.emit(ir.EventDiag, ir.IRObject{"text": ir.IRString(msg)}, ir.CallerSite(1))
}

// Plan records the number of assertions the body intends to run.
func (e *Emitter) Plan(count int) {
	e.emit(ir.EventPlan, ir.IRObject{"count": ir.IRInt(count)}, ir.CallerSite(1))
}

// SkipAll records an empty plan skipping the whole run.
func (e *Emitter) SkipAll(reason string) {
	e.emit(ir.EventPlan, ir.IRObject{
		"count": ir.IRInt(0),
		"skip":  ir.IRString(reason),
	}, ir.CallerSite(1))
}

// Subtest runs body as a nested group and records it as a single opaque
// subtest event {name, pass, total, failed}. The nested events are not part
// of the enclosing stream. It returns whether the group passed.
//
// A bail inside body ends the whole interception, not just the group.
func (e *Emitter) Subtest(name string, body func(e *Emitter)) bool {
	site := ir.CallerSite(1)
	e.live(ir.EventSubtest)

	child := &Emitter{
		sess: &session{ctx: e.sess.ctx, runID: e.sess.runID, clock: &LogicalClock{}},
		root: e.root,
	}
	func() {
		defer child.close()
		body(child)
	}()

	total, failed := tally(child.sess.events)
	pass := failed == 0
	e.emit(ir.EventSubtest, ir.IRObject{
		"name":   ir.IRString(name),
		"pass":   ir.IRBool(pass),
		"total":  ir.IRInt(total),
		"failed": ir.IRInt(failed),
	}, site)
	return pass
}

// Bail records a bail event on the top-level stream and ends the
// interception. It does not return.
func (e *Emitter) Bail(reason string) {
	e.live(ir.EventBail)
	ev := e.root.record(ir.EventBail, ir.IRObject{"reason": ir.IRString(reason)}, ir.CallerSite(1))
	panic(bailSignal{event: ev})
}

// Finish records the end of the stream with the ok tallies so far.
func (e *Emitter) Finish() {
	total, failed := tally(e.sess.events)
	e.emit(ir.EventFinish, ir.IRObject{
		"total":  ir.IRInt(total),
		"failed": ir.IRInt(failed),
	}, ir.CallerSite(1))
}

// Emit records an arbitrary event.
func (e *Emitter) Emit(typ ir.EventType, fields ir.IRObject) {
	e.emit(typ, fields, ir.CallerSite(1))
}

// EmitAt records an arbitrary event with an explicit site.
func (e *Emitter) EmitAt(typ ir.EventType, fields ir.IRObject, site ir.Site) {
	e.emit(typ, fields, site)
}

// Events returns a copy of what this Emitter has recorded so far.
func (e *Emitter) Events() []ir.Event {
	out := make([]ir.Event, len(e.sess.events))
	copy(out, e.sess.events)
	return out
}

func (e *Emitter) emit(typ ir.EventType, fields ir.IRObject, site ir.Site) {
	e.live(typ)
	e.sess.record(typ, fields, site)
}

func (e *Emitter) live(typ ir.EventType) {
	if e.closed {
		panic(fmt.Errorf("%w: %s", ErrClosed, typ))
	}
}

func (e *Emitter) close() {
	e.closed = true
}
