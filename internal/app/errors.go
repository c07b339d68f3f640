package app

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP
// status codes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("access denied")
)
