package check

import (
	"errors"
	"fmt"

	"github.com/roach88/tapcheck/internal/ir"
)

// UsageErrorCode categorizes declaration mistakes.
type UsageErrorCode string

const (
	// ErrCodeOutsideScope indicates a Builder method was called after its
	// declaration block returned.
	ErrCodeOutsideScope UsageErrorCode = "OUTSIDE_SCOPE"

	// ErrCodeMissingArgument indicates a directive requires an argument.
	ErrCodeMissingArgument UsageErrorCode = "MISSING_ARGUMENT"

	// ErrCodeInvalidArgument indicates a directive or matcher argument has the
	// wrong type or range.
	ErrCodeInvalidArgument UsageErrorCode = "INVALID_ARGUMENT"

	// ErrCodeUnknownDirective indicates a directive name with no built-in.
	ErrCodeUnknownDirective UsageErrorCode = "UNKNOWN_DIRECTIVE"

	// ErrCodeStrayValue indicates a declaration block returned a value and
	// declared nothing.
	ErrCodeStrayValue UsageErrorCode = "STRAY_VALUE"
)

// UsageError reports a mistake in how expectations were declared. Usage
// errors abort declaration; they are never turned into diagnostics.
type UsageError struct {
	Code    UsageErrorCode
	Message string
	Site    ir.Site
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	if e.Site.IsZero() {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Site)
}

// IsUsageError reports whether err is or wraps a *UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

func usagef(code UsageErrorCode, site ir.Site, format string, args ...any) *UsageError {
	return &UsageError{Code: code, Message: fmt.Sprintf(format, args...), Site: site}
}
