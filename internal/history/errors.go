package history

import "errors"

var (
	// ErrNotFound is returned by Update when the id references no record.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition is returned by Update when a patch would move a
	// record out of a terminal status.
	ErrInvalidTransition = errors.New("invalid status transition")
)
