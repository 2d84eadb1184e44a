// Package formatter renders result records to three output channels.
//
// A Formatter is a thin dispatcher over Hooks. It validates lifecycle
// options and forwards begin, result and end to the hooks, which do all of
// the rendering through Print. Output goes to an injected Sink: StreamSink
// for real streams, CaptureSink for tests.
//
// The lifecycle phases (NotStarted, Started, Finished) are tracked but not
// enforced. Reporting a result before Begin or after End is the caller's
// mistake and is forwarded like any other.
//
// TAP is the bundled Hooks implementation, producing TAP version 13.
package formatter
