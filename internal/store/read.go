package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tapcheck/internal/ir"
)

const eventColumns = `id, run_id, seq, type, fields, site_package, site_file, site_line`

// ReadRun returns every event of a run in timeline order:
// ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadRun(ctx context.Context, runID string) ([]ir.Event, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
}

// ReadRunByType returns the events of a run with the given type, in timeline order.
func (s *Store) ReadRunByType(ctx context.Context, runID string, typ ir.EventType) ([]ir.Event, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE run_id = ? AND type = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID, string(typ))
}

// GetRun retrieves a run by ID. Returns sql.ErrNoRows if not found.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, source, schema_version, tool_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Name, &run.Source, &run.SchemaVersion, &run.ToolVersion)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run with its event count, ordered by ID. Run IDs
// are UUIDv7 by default, so this is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.source, r.schema_version, r.tool_version,
		       COUNT(e.id), COALESCE(MAX(e.seq), 0)
		FROM runs r
		LEFT JOIN events e ON e.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.ID, &rs.Name, &rs.Source, &rs.SchemaVersion, &rs.ToolVersion, &rs.Events, &rs.LastSeq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (ir.Event, error) {
	var (
		ev         ir.Event
		typ        string
		fieldsJSON string
	)
	if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Seq, &typ, &fieldsJSON, &ev.Site.Package, &ev.Site.File, &ev.Site.Line); err != nil {
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.Type = ir.EventType(typ)

	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return ir.Event{}, fmt.Errorf("scan event %s: %w", ev.ID, err)
	}
	ev.Fields = fields
	return ev, nil
}
