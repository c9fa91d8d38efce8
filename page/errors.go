package page

import (
	"errors"
	"fmt"
)

var (
	// ErrEncodingConstraint is returned when a value exceeds a bound imposed by
	// the format, e.g. a string longer than the length prefix can express. The
	// rejected append leaves the buffer untouched.
	ErrEncodingConstraint = errors.New("encoding constraint violated")

	// ErrIO wraps failures reported by the output sink. Pages are never retried.
	ErrIO = errors.New("page output failed")

	// ErrSessionAborted is returned by every call on a writer after a sink
	// failure. The pages already handed to the sink must be considered corrupt.
	ErrSessionAborted = errors.New("page write session aborted")

	// ErrInvariantViolation signals a programming error, such as feeding a value
	// of the wrong type to a column. Values are never coerced.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrClosed is returned when appending to a closed or aborted writer.
	ErrClosed = fmt.Errorf("%w: writer is closed", ErrInvariantViolation)

	// ErrCorruptPage is returned by the reader when a page header or body is
	// inconsistent.
	ErrCorruptPage = errors.New("corrupt page")
)

// StringTooLongError reports a string value that exceeds the declared maximum
// length of a string writer.
type StringTooLongError struct {
	Length int
	Max    uint32
}

func (e *StringTooLongError) Error() string {
	return fmt.Sprintf("string value of %d bytes exceeds maximum of %d bytes", e.Length, e.Max)
}

// Unwrap returns ErrEncodingConstraint.
func (e *StringTooLongError) Unwrap() error { return ErrEncodingConstraint }

// TypeMismatchError reports a value whose type does not match the column type.
type TypeMismatchError struct {
	Expected Type
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: column is %s, got %s", e.Expected, e.Actual)
}

// Unwrap returns ErrInvariantViolation.
func (e *TypeMismatchError) Unwrap() error { return ErrInvariantViolation }
