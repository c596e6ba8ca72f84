package booking

import "errors"

var (
	// ErrEmergencyJob means an ordinary accept was attempted on an emergency
	// job, which must go through the emergency accept endpoint.
	ErrEmergencyJob = errors.New("job is an emergency job")

	// ErrNotEmergencyJob is the inverse: emergency accept on an ordinary job.
	ErrNotEmergencyJob = errors.New("job is not an emergency job")

	// ErrProviderNotAvailable means the provider's availability toggle is off.
	// Only board accepts check it; emergency accepts go by emergency_active.
	ErrProviderNotAvailable = errors.New("provider is not available")
)
