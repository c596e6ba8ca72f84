package contact

import "errors"

var (
	// ErrAlreadyRevealed signals a duplicate reveal row. Callers treat it as
	// the idempotent path, not a failure.
	ErrAlreadyRevealed = errors.New("contact already revealed")

	ErrNotFound = errors.New("reveal not found")
)
