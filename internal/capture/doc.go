// Package capture produces event sequences by running a body of test code
// with an Emitter and recording everything it emits.
//
// Interception is scoped: the Emitter is live only while Intercept runs its
// body and is closed on every exit path, whether the body returns, panics or
// bails out. A bail is an event like any other; Intercept reports it as an
// aborted Outcome instead of an error, and the caller decides whether to
// re-raise it through Outcome.Err.
//
// Every event is stamped with the run ID, a seq from the logical clock, its
// content-addressed ID and the source site of the Emitter call. With
// WithStore the events are also persisted as they are emitted.
package capture
