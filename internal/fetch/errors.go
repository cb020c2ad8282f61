package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a batch request is rejected before any
	// network call, e.g. a count above the source maximum.
	ErrValidation = errors.New("validation error")
	// ErrInvalidInput is returned when a single item cannot be processed
	// because its input is malformed (empty URL, unparsable date).
	ErrInvalidInput = errors.New("invalid input")
)

// RemoteError is returned when a remote endpoint answers with a non-2xx
// status or a body that cannot be decoded.
type RemoteError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote %s: status %d", e.URL, e.StatusCode)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// StorageError wraps a filesystem failure.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
