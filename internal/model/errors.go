package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Module errors
	ErrUnknownModule = errors.New("unknown module")
	ErrMissingID     = errors.New("entity identifier is missing")

	// Record errors
	ErrMalformedRecord = errors.New("malformed record")
)
