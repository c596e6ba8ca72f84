package provider

import "errors"

var (
	// ErrProfileNotFound is returned when the provider profile doesn't exist
	ErrProfileNotFound = errors.New("provider profile not found")

	ErrInternal = errors.New("internal error")
)
