package model

import "errors"

var (
	// ErrValidation marks input rejected before any state change.
	ErrValidation = errors.New("validation failed")
	// ErrIntegrity marks a request that references missing or mismatched data.
	ErrIntegrity = errors.New("integrity check failed")
	// ErrNotFound is returned when a record does not exist in the active tenant.
	ErrNotFound = errors.New("record not found")
	// ErrNoTenant is returned by scoped writes when no tenant is active.
	ErrNoTenant = errors.New("no active tenant")
	// ErrInvalidTransition is returned when a machine cannot move to the requested state.
	ErrInvalidTransition = errors.New("invalid machine state transition")
)
