// Package compiler turns scenario files into check sequences.
//
// A scenario is written in YAML or CUE:
//
//	name: adds-then-subtracts
//	description: math results arrive in order
//	events: math.jsonl
//	expect:
//	  - event: plan
//	    fields: {count: 2}
//	  - seek: true
//	  - event: ok
//	    fields:
//	      name: {like: "^sub"}
//	      pass: true
//	  - end: true
//
// Each expect item keeps the line it was written on so that diagnostics
// point at the scenario file.
package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tapcheck/internal/ir"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Events is the JSON-lines event file, relative to the scenario.
	Events string `json:"events,omitempty"`

	Expect []Item `json:"expect"`

	// Path is the file the scenario was read from.
	Path string `json:"-"`
}

// Item is one entry of the expect list as plain decoded Go values.
type Item struct {
	Value any `json:"value"`
	Line  int `json:"line"`
}

// Site returns the declaration site for a line of the scenario file.
func (s *Scenario) Site(line int) ir.Site {
	return ir.Site{File: s.Path, Line: line}
}

// EventsPath resolves Events against the scenario's directory.
func (s *Scenario) EventsPath() string {
	if s.Events == "" || filepath.IsAbs(s.Events) || s.Path == "" {
		return s.Events
	}
	return filepath.Join(filepath.Dir(s.Path), s.Events)
}

// IsScenarioFile reports whether path has a scenario extension.
func IsScenarioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}

// Load reads a scenario file, choosing the parser by extension.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data, path)
	case ".cue":
		return CompileCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported scenario file %q: want .yaml, .yml or .cue", path)
	}
}

type yamlScenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Events      string      `yaml:"events"`
	Expect      []yaml.Node `yaml:"expect"`
}

// ParseYAML parses a YAML scenario. Unknown top-level keys are rejected.
func ParseYAML(data []byte, path string) (*Scenario, error) {
	var raw yamlScenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "scenario", Message: "file is empty", File: path}
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	sc := &Scenario{
		Name:        raw.Name,
		Description: raw.Description,
		Events:      raw.Events,
		Expect:      make([]Item, 0, len(raw.Expect)),
		Path:        path,
	}
	for i := range raw.Expect {
		node := &raw.Expect[i]
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("expect[%d]", i),
				Message: err.Error(),
				File:    path,
				Line:    node.Line,
			}
		}
		sc.Expect = append(sc.Expect, Item{Value: v, Line: node.Line})
	}
	return sc, nil
}

// CompileCUE evaluates a CUE scenario. The file must be concrete.
func CompileCUE(data []byte, path string) (*Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileValue(v, path)
}

// CompileValue converts an evaluated CUE value into a Scenario.
func CompileValue(v cue.Value, path string) (*Scenario, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		switch label := iter.Label(); label {
		case "name", "description", "events", "expect":
		default:
			return nil, newCompileError(label, "unknown field", iter.Value().Pos())
		}
	}

	sc := &Scenario{Expect: []Item{}, Path: path}
	if sc.Name, err = optionalString(v, "name"); err != nil {
		return nil, err
	}
	if sc.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if sc.Events, err = optionalString(v, "events"); err != nil {
		return nil, err
	}

	expectVal := v.LookupPath(cue.ParsePath("expect"))
	if !expectVal.Exists() {
		return sc, nil
	}
	list, err := expectVal.List()
	if err != nil {
		return nil, newCompileError("expect", "must be a list", expectVal.Pos())
	}
	for i := 0; list.Next(); i++ {
		item := list.Value()
		data, err := item.MarshalJSON()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var val any
		if err := json.Unmarshal(data, &val); err != nil {
			return nil, fmt.Errorf("expect[%d]: %w", i, err)
		}
		sc.Expect = append(sc.Expect, Item{Value: val, Line: item.Pos().Line()})
	}
	return sc, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", newCompileError(field, "must be a string", fv.Pos())
	}
	return s, nil
}

// CompileError is a scenario error with a source position.
type CompileError struct {
	Field   string
	Message string
	File    string
	Line    int
}

func newCompileError(field, msg string, pos token.Pos) *CompileError {
	e := &CompileError{Field: field, Message: msg}
	if pos.IsValid() {
		e.File = pos.Filename()
		e.Line = pos.Line()
	}
	return e
}

func (e *CompileError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Field, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return newCompileError("cue", first.Error(), positions[0])
	}
	return err
}
