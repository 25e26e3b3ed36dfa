package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the trigger is not configured for the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when every candidate transition was refused by its guard
	ErrGuardFailed = errors.New("guard condition failed")
)
