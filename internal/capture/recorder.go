package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/roach88/tapcheck/internal/ir"
	"github.com/roach88/tapcheck/internal/store"
)

// ErrClosed is the panic value, wrapped, when an Emitter is used after its
// interception ended.
var ErrClosed = errors.New("emit after interception ended")

// EventStore persists captured runs. *store.Store implements it.
type EventStore interface {
	WriteRun(ctx context.Context, run store.Run) error
	WriteEvent(ctx context.Context, ev ir.Event) error
}

// Recorder runs bodies under interception.
type Recorder struct {
	store  EventStore
	clock  Clock
	runIDs RunIDGenerator
	name   string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithStore persists every run and event to s as it is captured.
func WithStore(s EventStore) Option {
	return func(r *Recorder) {
		r.store = s
	}
}

// WithClock shares one clock across every Intercept. By default each run
// gets a fresh LogicalClock.
func WithClock(c Clock) Option {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithRunIDs sets the run ID generator. Defaults to UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(r *Recorder) {
		r.runIDs = g
	}
}

// WithName labels stored runs.
func WithName(name string) Option {
	return func(r *Recorder) {
		r.name = name
	}
}

// New creates a Recorder.
func New(opts ...Option) *Recorder {
	r := &Recorder{runIDs: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome is everything one interception captured.
type Outcome struct {
	RunID  string
	Events []ir.Event

	// Aborted is true when the body bailed out. Terminal is the bail event,
	// which is also the last entry of Events.
	Aborted  bool
	Terminal *ir.Event
}

// Err re-surfaces a bail as a *BailError. It is nil for a completed run.
func (o *Outcome) Err() error {
	if !o.Aborted || o.Terminal == nil {
		return nil
	}
	reason, _ := o.Terminal.Field("reason")
	return &BailError{Reason: ir.Text(reason), Event: *o.Terminal}
}

// Counts tallies the ok events of the run. An ok event counts as failed
// when its pass field is false and it carries no TODO directive.
func (o *Outcome) Counts() (total, failed int) {
	return tally(o.Events)
}

// BailError is a bail out raised to the caller.
type BailError struct {
	Reason string
	Event  ir.Event
}

// Error implements the error interface.
func (e *BailError) Error() string {
	if e.Reason == "" {
		return "bail out"
	}
	return "bail out: " + e.Reason
}

// bailSignal unwinds the body on Bail. It never escapes Intercept.
type bailSignal struct {
	event ir.Event
}

// Intercept runs body with a live Emitter and returns the events it emitted,
// in order. The Emitter is closed on every exit path. A bail ends the body
// early and yields an aborted Outcome; any other panic propagates after the
// Emitter is closed.
//
// The returned error reports persistence failures only. The events captured
// up to that point are still returned.
func (r *Recorder) Intercept(ctx context.Context, body func(e *Emitter)) (out *Outcome, err error) {
	runID := r.runIDs.Generate()
	log := clog.FromContext(ctx).With("run_id", runID)

	if r.store != nil {
		if err := r.store.WriteRun(ctx, store.NewRun(runID, r.name, "capture")); err != nil {
			return nil, fmt.Errorf("intercept: %w", err)
		}
	}

	clock := r.clock
	if clock == nil {
		clock = &LogicalClock{}
	}
	sess := &session{ctx: ctx, runID: runID, clock: clock, store: r.store}
	e := &Emitter{sess: sess, root: sess}
	out = &Outcome{RunID: runID}

	defer func() {
		e.close()
		out.Events = sess.events
		if sess.err != nil {
			err = fmt.Errorf("intercept: %w", sess.err)
		}

		rec := recover()
		if rec == nil {
			log.Debug("run captured", "events", len(sess.events))
			return
		}
		sig, ok := rec.(bailSignal)
		if !ok {
			panic(rec)
		}
		terminal := sig.event
		out.Aborted = true
		out.Terminal = &terminal
		log.Info("run bailed out", "reason", ir.Text(terminal.Fields["reason"]), "events", len(sess.events))
	}()

	body(e)
	return out, nil
}

// session accumulates the events of one (sub)run.
type session struct {
	ctx    context.Context
	runID  string
	clock  Clock
	store  EventStore
	events []ir.Event
	err    error
}

func (s *session) record(typ ir.EventType, fields ir.IRObject, site ir.Site) ir.Event {
	ev := ir.NewEvent(typ, fields, site)
	ev.RunID = s.runID
	ev.Seq = s.clock.Next()

	id, err := ir.EventID(ev.RunID, ev.Seq, ev.Type, ev.Fields)
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("event seq=%d: %w", ev.Seq, err)
	}
	ev.ID = id
	s.events = append(s.events, ev)

	if s.store != nil && s.err == nil {
		if err := s.store.WriteEvent(s.ctx, ev); err != nil {
			s.err = fmt.Errorf("persist event seq=%d: %w", ev.Seq, err)
		}
	}
	return ev
}

func tally(events []ir.Event) (total, failed int) {
	for _, ev := range events {
		if ev.Type != ir.EventOk {
			continue
		}
		total++
		pass, _ := ev.Fields["pass"].(ir.IRBool)
		directive, _ := ev.Fields["directive"].(ir.IRString)
		if !pass && directive != DirectiveTodo {
			failed++
		}
	}
	return total, failed
}
