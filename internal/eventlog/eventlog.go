// Package eventlog reads and writes event streams as JSON lines, one event
// per line, so that runs can be exported, edited by hand and replayed.
//
// Line format:
//
//	{"seq":1,"type":"ok","fields":{"name":"adds","pass":true},"site":{"file":"math_test.go","line":12}}
//
// seq, id, run_id and site are optional on read. A missing seq is filled in
// from the line order.
package eventlog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/roach88/tapcheck/internal/ir"
)

// maxLineSize bounds a single event line.
const maxLineSize = 4 << 20

// Read decodes every event in r. Blank lines and lines starting with '#'
// are skipped.
func Read(r io.Reader) ([]ir.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	events := []ir.Event{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		var ev ir.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if ev.Type == "" {
			return nil, fmt.Errorf("line %d: event has no type", lineNo)
		}
		if ev.Fields == nil {
			ev.Fields = ir.IRObject{}
		}
		if ev.Seq == 0 {
			ev.Seq = int64(len(events) + 1)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// Write encodes events to w, one per line, with canonical field encoding.
func Write(w io.Writer, events []ir.Event) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event seq=%d: %w", ev.Seq, err)
		}
	}
	return bw.Flush()
}
