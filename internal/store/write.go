package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tapcheck/internal/ir"
)

// WriteRun inserts a run record. Uses ON CONFLICT(id) DO NOTHING, so writing
// the same run twice is a no-op.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: empty run ID")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, source, schema_version, tool_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Name, run.Source, run.SchemaVersion, run.ToolVersion)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEvent inserts an event. If ev.ID is empty it is computed with
// ir.EventID. Duplicate IDs are silently ignored; a different event at an
// occupied (run_id, seq) fails the UNIQUE constraint.
//
// The run referenced by ev.RunID must exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, ev ir.Event) error {
	return writeEvent(ctx, s.db, ev)
}

// WriteEvents inserts events in one transaction. Either all are written or
// none are.
func (s *Store) WriteEvents(ctx context.Context, events []ir.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, ev := range events {
		if err := writeEvent(ctx, tx, ev); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeEvent(ctx context.Context, db execer, ev ir.Event) error {
	fieldsJSON, err := marshalFields(ev.Fields)
	if err != nil {
		return fmt.Errorf("write event seq=%d: %w", ev.Seq, err)
	}

	id := ev.ID
	if id == "" {
		id, err = ir.EventID(ev.RunID, ev.Seq, ev.Type, ev.Fields)
		if err != nil {
			return fmt.Errorf("write event seq=%d: %w", ev.Seq, err)
		}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO events
		(id, run_id, seq, type, fields, site_package, site_file, site_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		ev.RunID,
		ev.Seq,
		string(ev.Type),
		fieldsJSON,
		ev.Site.Package,
		ev.Site.File,
		ev.Site.Line,
	)
	if err != nil {
		return fmt.Errorf("write event seq=%d: %w", ev.Seq, err)
	}
	return nil
}
