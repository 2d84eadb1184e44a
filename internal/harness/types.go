package harness

import (
	"fmt"
)

// Result is the outcome of evaluating one scenario.
type Result struct {
	Scenario string `json:"scenario"`
	Path     string `json:"path,omitempty"`

	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Events is the number of events evaluated.
	Events int `json:"events"`

	// Diagnostics explains each failed expectation. Empty if Pass is true.
	Diagnostics []string `json:"diagnostics"`
}

// NewResult creates a passing result for a scenario.
func NewResult(name string) *Result {
	return &Result{
		Scenario:    name,
		Pass:        true,
		Diagnostics: []string{},
	}
}

// AddDiagnostic records a failure and marks the result as failed.
func (r *Result) AddDiagnostic(msg string) {
	r.Diagnostics = append(r.Diagnostics, msg)
	r.Pass = false
}

// toCanonicalMap converts a Result to plain values for ir.MarshalCanonical.
// Path is left out so snapshots do not depend on the working directory.
func (r *Result) toCanonicalMap() map[string]any {
	diags := make([]any, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		diags[i] = d
	}
	return map[string]any{
		"scenario":    r.Scenario,
		"pass":        r.Pass,
		"events":      r.Events,
		"diagnostics": diags,
	}
}

// EventsNotFoundError is returned when a scenario's event file does not exist.
type EventsNotFoundError struct {
	Scenario     string
	EventsPath   string
	ResolvedPath string
}

// Error implements the error interface.
func (e *EventsNotFoundError) Error() string {
	return fmt.Sprintf(
		"scenario %q references event file %q which does not exist (resolved to: %s)",
		e.Scenario,
		e.EventsPath,
		e.ResolvedPath,
	)
}
