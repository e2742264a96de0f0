package dsl

import (
	"errors"
	"fmt"
)

// ErrInvalidSource is returned when a Source names neither or both of a file
// and a line slice. It is a misuse of the API, not a problem in the model text.
var ErrInvalidSource = errors.New("dsl: exactly one of Filename or Lines must be provided")

// SourceError wraps a failure to read model text from disk.
type SourceError struct {
	Path  string
	Cause error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Cause)
}

func (e *SourceError) Unwrap() error { return e.Cause }
