package compiler

import (
	"fmt"
	"os"

	"github.com/roach88/tapcheck/internal/check"
)

// Validation error codes (E100-E199)
const (
	ErrNameRequired   = "E101" // name is required
	ErrExpectEmpty    = "E102" // expect list is empty
	ErrEventsNotFound = "E103" // events file does not exist
	ErrItemShape      = "E104" // expect item is neither an event nor a directive
	ErrDuplicateName  = "E105" // two scenarios share a name
)

// ValidationError represents a scenario validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a scenario's shape. It returns every problem found.
// Matcher and directive arguments are checked by Sequence.
func Validate(sc *Scenario) []ValidationError {
	var errs []ValidationError

	if sc.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required",
			Code:    ErrNameRequired,
		})
	}

	if len(sc.Expect) == 0 {
		errs = append(errs, ValidationError{
			Field:   "expect",
			Message: "expect list is required and must be non-empty",
			Code:    ErrExpectEmpty,
		})
	}

	if path := sc.EventsPath(); path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			errs = append(errs, ValidationError{
				Field:   "events",
				Message: fmt.Sprintf("events file not found: %s", path),
				Code:    ErrEventsNotFound,
			})
		}
	}

	for i, item := range sc.Expect {
		if name, ok := item.Value.(string); ok && needsArgument(name) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("expect[%d]", i),
				Message: fmt.Sprintf("directive %q needs an argument: write {%s: ...}", name, name),
				Code:    ErrItemShape,
				Line:    item.Line,
			})
			continue
		}
		m, ok := item.Value.(map[string]any)
		if !ok {
			continue
		}
		if _, isEvent := m["event"]; !isEvent && len(m) != 1 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("expect[%d]", i),
				Message: "item must have an event key or exactly one directive key",
				Code:    ErrItemShape,
				Line:    item.Line,
			})
		}
	}

	return errs
}

func needsArgument(name string) bool {
	switch name {
	case check.DirectiveSkip, check.DirectiveSeek, check.DirectiveDrop:
		return true
	}
	return false
}

// ValidateSuite checks that scenario names are unique.
func ValidateSuite(scenarios []*Scenario) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]string, len(scenarios))
	for _, sc := range scenarios {
		if sc.Name == "" {
			continue
		}
		if first, ok := seen[sc.Name]; ok {
			errs = append(errs, ValidationError{
				Field:   "name",
				Message: fmt.Sprintf("scenario %q in %s was already defined in %s", sc.Name, sc.Path, first),
				Code:    ErrDuplicateName,
			})
			continue
		}
		seen[sc.Name] = sc.Path
	}
	return errs
}
