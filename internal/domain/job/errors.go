package job

import "errors"

var (
	ErrNotFound          = errors.New("job not found")
	ErrAlreadyClaimed    = errors.New("job already claimed")
	ErrInvalidPrice      = errors.New("invalid job price")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotOwner          = errors.New("job does not belong to caller")
	ErrInternal          = errors.New("internal error")
)
