package ir

// Version constants for the event schema and the tool.
const (
	// SchemaVersion is the event record schema version stored with each run.
	SchemaVersion = "1"

	// ToolVersion is the tapcheck version.
	ToolVersion = "0.1.0"
)
