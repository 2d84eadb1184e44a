// Package ir provides the event record types shared by every tapcheck package.
//
// This package contains type definitions and their encodings only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Event records are immutable once constructed (NewEvent copies fields)
//   - Field values are the sealed IRValue types; plain Go values are converted once via FromGo
//   - All JSON tags use snake_case
//   - Ordering within a run uses the logical clock (Seq), never wall-clock time
package ir
