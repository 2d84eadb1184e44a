package capture

import (
	"github.com/google/uuid"
)

// Clock hands out strictly increasing seq values for a run.
type Clock interface {
	Next() int64
}

// LogicalClock is the default Clock. Each Intercept starts a fresh one, so
// every run numbers its events from 1.
type LogicalClock struct {
	seq int64
}

// Next returns the next sequence number.
func (c *LogicalClock) Next() int64 {
	c.seq++
	return c.seq
}

// RunIDGenerator creates run IDs.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs, so listing runs by
// ID lists them in creation order.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
