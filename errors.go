package cstable

import (
	"errors"
	"fmt"

	"github.com/hupe1980/cstable/blobstore"
	"github.com/hupe1980/cstable/column"
	"github.com/hupe1980/cstable/page"
)

var (
	// ErrEncodingConstraint is returned when a value cannot be represented in
	// the page format. The value is rejected and the table stays usable.
	ErrEncodingConstraint = page.ErrEncodingConstraint

	// ErrIO wraps failures of the underlying blob store.
	ErrIO = page.ErrIO

	// ErrSessionAborted is returned by every call after a blob failure.
	ErrSessionAborted = page.ErrSessionAborted

	// ErrInvariantViolation signals a misuse such as a value of the wrong type.
	ErrInvariantViolation = page.ErrInvariantViolation

	// ErrClosed is returned when using a table writer after Close or Abort.
	ErrClosed = page.ErrClosed

	// ErrCorrupted is returned when a stored table fails validation.
	ErrCorrupted = column.ErrCorrupted

	// ErrNotFound is returned when opening a table that has no manifest.
	ErrNotFound = blobstore.ErrNotFound

	// ErrTableExists is returned by Create when the table already has a manifest.
	ErrTableExists = errors.New("table already exists")

	// ErrInvalidSchema is returned by Create for an unusable schema.
	ErrInvalidSchema = fmt.Errorf("%w: invalid schema", ErrInvariantViolation)
)

// StringTooLongError reports a string longer than the column allows.
type StringTooLongError = page.StringTooLongError

// TypeMismatchError reports a value whose Go type does not match the column.
type TypeMismatchError = page.TypeMismatchError

// RowError reports the row and column that rejected a value.
//
// The original error can be accessed via errors.Unwrap.
type RowError struct {
	Row    uint64
	Column string
	cause  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.cause)
}

func (e *RowError) Unwrap() error { return e.cause }

// ioError tags blob store failures with ErrIO unless they already carry a
// taxonomy error.
func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIO) || errors.Is(err, ErrSessionAborted) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
}
