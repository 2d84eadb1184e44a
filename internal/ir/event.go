package ir

import (
	"fmt"
)

// EventType discriminates event records.
type EventType string

// Event types produced by the capture package. The set is open: stored or
// replayed event logs may carry any type string.
const (
	EventOk      EventType = "ok"
	EventNote    EventType = "note"
	EventDiag    EventType = "diag"
	EventPlan    EventType = "plan"
	EventSubtest EventType = "subtest"
	EventBail    EventType = "bail"
	EventFinish  EventType = "finish"
)

// Event is one observed unit of test activity.
//
// Fields is the public projection of whatever produced the event. Treat an
// Event as read-only: NewEvent copies the field map it is given, and Field
// returns values, never the backing map.
type Event struct {
	ID     string    `json:"id,omitempty"`     // Content-addressed hash (EventID)
	RunID  string    `json:"run_id,omitempty"` // Run correlation
	Seq    int64     `json:"seq"`              // Logical clock within the run
	Type   EventType `json:"type"`
	Fields IRObject  `json:"fields"`
	Site   Site      `json:"site"`
}

// NewEvent creates an event with a private copy of fields.
func NewEvent(typ EventType, fields IRObject, site Site) Event {
	return Event{
		Type:   typ,
		Fields: fields.Clone(),
		Site:   site,
	}
}

// Field returns the named field and whether it is present.
func (e Event) Field(name string) (IRValue, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// String renders a short human-readable description used in diagnostics.
func (e Event) String() string {
	if name, ok := e.Fields["name"]; ok {
		return fmt.Sprintf("%s %q", e.Type, Text(name))
	}
	return string(e.Type)
}
