// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrProgrammer marks caller bugs: missing items, out-of-range ratings,
	// mismatched batch lengths. These are never retried.
	ErrProgrammer = errors.New("programmer error")

	// ErrInvalidRating is returned when a rating is outside Again..Easy.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidMode is returned when a collection mode is not recognised.
	ErrInvalidMode = errors.New("invalid collection mode")

	// ErrInvalidDay is returned when a day key cannot be parsed.
	ErrInvalidDay = errors.New("invalid day")
)
