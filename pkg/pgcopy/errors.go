package pgcopy

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a textual value that does not match its
	// column type's grammar.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutOfRange reports a parsed value outside the destination type's
	// domain.
	ErrOutOfRange = errors.New("value out of range")

	// ErrSchemaMismatch reports a source row whose column count disagrees
	// with the table's column mapping.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

func invalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func outOfRangef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOutOfRange, fmt.Sprintf(format, args...))
}
