package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrPredecessorNotFound indicates that a collection names a predecessor
	// that does not exist.
	// API layer should map this to HTTP 400 Bad Request.
	ErrPredecessorNotFound = errors.New("predecessor collection not found")
)
