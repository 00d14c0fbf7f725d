package inspect

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrNotFound          = errors.New("inspect: no such file or directory")
	ErrUnsupportedFormat = errors.New("inspect: unsupported model format")
	ErrMalformed         = errors.New("inspect: malformed model")
)

// FormatError reports a model that was recognised but could not be decoded.
type FormatError struct {
	Format Format
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Format, e.Path, e.Err)
}

// Unwrap matches both ErrMalformed and the decoder's own error.
func (e *FormatError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}
