// Package check evaluates an ordered sequence of expectations against an
// ordered sequence of events.
//
// A Sequence is declared once through a Builder and evaluated any number of
// times with Run. Declaration and evaluation are separate phases: Build runs
// the declaration block to completion, seals the Builder, and only then can
// the Sequence be run.
//
//	seq, err := check.Build(func(b *check.Builder) {
//		b.Event(ir.EventOk, check.F{"name": "adds", "pass": true})
//		b.Seek(true)
//		b.Event(ir.EventOk, check.F{"name": regexp.MustCompile(`^sub`)})
//		b.End()
//	})
//
// Evaluation walks the expectations with a single forward cursor into the
// events:
//   - an event expectation consumes exactly one event when its type matches,
//     whether or not its field matchers pass, and zero events otherwise
//   - skip(n) consumes n events without comparing them
//   - seek(true) makes type mismatches skip ahead to the next event of the
//     expected type
//   - end reports every unconsumed event as an unexpected extra
//
// Match failures never stop evaluation. Every failure is collected into
// Result.Diagnostics and each diagnostic names the declaration site of the
// expectation that failed.
package check
