package store

import (
	"context"
	"fmt"

	"github.com/roach88/tapcheck/internal/ir"
)

// VerifyRun replays a run and recomputes every event's content-addressed ID.
// It returns one message per event whose stored ID no longer matches its
// content.
func (s *Store) VerifyRun(ctx context.Context, runID string) ([]string, error) {
	events, err := s.ReadRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("verify run: %w", err)
	}

	var problems []string
	for _, ev := range events {
		want, err := ir.EventID(ev.RunID, ev.Seq, ev.Type, ev.Fields)
		if err != nil {
			return nil, fmt.Errorf("verify run: %w", err)
		}
		if want != ev.ID {
			problems = append(problems, fmt.Sprintf("seq %d: stored id %s does not match content id %s", ev.Seq, ev.ID, want))
		}
	}
	return problems, nil
}
