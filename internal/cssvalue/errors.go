package cssvalue

import (
	"errors"
	"fmt"
)

// ErrParse is the sentinel wrapped by every value parse failure.
var ErrParse = errors.New("css value parse error")

// ParseError describes a value that could not be parsed.
type ParseError struct {
	Kind   string // what was being parsed, e.g. "linear-gradient"
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Value, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

func parseErr(kind, value, format string, args ...any) error {
	return &ParseError{Kind: kind, Value: value, Reason: fmt.Sprintf(format, args...)}
}
