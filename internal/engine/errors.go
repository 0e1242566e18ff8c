package engine

import "fmt"

// ErrInvalidInput is the umbrella for the two user-facing validation
// failures; match the concrete type for details.
var ErrInvalidInput = fmt.Errorf("invalid input")

type UnsupportedTypeError struct {
	Ext string
}

func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q", e.Ext)
}

func (e UnsupportedTypeError) Unwrap() error { return ErrInvalidInput }

type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e FileTooLargeError) Error() string {
	return fmt.Sprintf("file is %d bytes, limit is %d", e.Size, e.Limit)
}

func (e FileTooLargeError) Unwrap() error { return ErrInvalidInput }
