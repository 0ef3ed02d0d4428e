package internal

import "errors"

var (
	// ErrTransport marks a failure of the markup fetcher. It is surfaced unmodified.
	ErrTransport = errors.New("transport error")
	// ErrParseFatal marks input that cannot be read as a document at all.
	ErrParseFatal = errors.New("document cannot be parsed")
	// ErrInvalidInput marks a rejected state mutation; state is left unchanged.
	ErrInvalidInput = errors.New("invalid input")
)
