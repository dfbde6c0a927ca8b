package scans

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a scan does not exist for the owner, or
	// when a terminal scan is asked to change state again.
	ErrNotFound = errors.New("scan not found")

	// ErrStorage wraps failures writing the image binary.
	ErrStorage = errors.New("image storage failed")

	// ErrPersistence wraps failures inserting or updating scan rows.
	ErrPersistence = errors.New("scan persistence failed")
)

// ValidationError rejects an upload before any side effect.
type ValidationError struct {
	Field  string
	Reason string
	// TooLarge distinguishes the size ceiling from a bad media type.
	TooLarge bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
