package store

import "github.com/roach88/tapcheck/internal/ir"

// Run is one captured or imported event stream.
type Run struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Source        string `json:"source,omitempty"` // "capture", or the imported file path
	SchemaVersion string `json:"schema_version"`
	ToolVersion   string `json:"tool_version"`
}

// NewRun returns a Run stamped with the current schema and tool versions.
func NewRun(id, name, source string) Run {
	return Run{
		ID:            id,
		Name:          name,
		Source:        source,
		SchemaVersion: ir.SchemaVersion,
		ToolVersion:   ir.ToolVersion,
	}
}

// RunSummary is a Run with aggregate counts, as listed by ListRuns.
type RunSummary struct {
	Run
	Events  int   `json:"events"`
	LastSeq int64 `json:"last_seq"`
}
