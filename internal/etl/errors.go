package etl

import "errors"

var (
	// ErrFatalIO reports that the source file is missing or unreadable.
	// It aborts a run before any row is processed.
	ErrFatalIO = errors.New("source file cannot be read or doesn't exist")

	// ErrUnknownSource is returned for an unregistered source type.
	ErrUnknownSource = errors.New("unknown source type")
)
