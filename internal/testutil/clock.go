package testutil

// DeterministicClock is a resettable logical clock for tests.
//
// Recorders stamp events with Next(); reusing one clock across two runs with a
// Reset() in between yields identical seq values, which keeps golden output
// byte-stable.
type DeterministicClock struct {
	seq   int64
	start int64
}

// NewDeterministicClock creates a clock whose first Next() returns start+1.
func NewDeterministicClock(start int64) *DeterministicClock {
	return &DeterministicClock{seq: start, start: start}
}

// Next increments and returns the sequence number.
func (c *DeterministicClock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	return c.seq
}

// Reset rewinds the clock to its start value.
func (c *DeterministicClock) Reset() {
	c.seq = c.start
}
