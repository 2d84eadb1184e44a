package testutil

import "fmt"

// FixedRunIDs hands out predetermined run IDs in order.
//
// When the list is exhausted it keeps generating "test-run-N" so that a test
// that opens more runs than it named still gets stable IDs.
type FixedRunIDs struct {
	ids []string
	idx int
}

// NewFixedRunIDs creates a generator over ids.
func NewFixedRunIDs(ids ...string) *FixedRunIDs {
	return &FixedRunIDs{ids: ids}
}

// Generate returns the next run ID.
func (g *FixedRunIDs) Generate() string {
	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return fmt.Sprintf("test-run-%d", g.idx)
}
