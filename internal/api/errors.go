package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/ledger"
	"github.com/phrazzld/scry-engine/internal/projection"
	"github.com/phrazzld/scry-engine/internal/service"
	"github.com/phrazzld/scry-engine/internal/service/planner"
	"github.com/phrazzld/scry-engine/internal/service/review"
	"github.com/phrazzld/scry-engine/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors. A missing item is also a programmer error, so it
	// has to be matched before the bad request group.
	case errors.Is(err, review.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Rolled back review writes
	case errors.Is(err, review.ErrReviewNotRecorded):
		return http.StatusInternalServerError

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrSerialization):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrProgrammer),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrInvalidDay),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, projection.ErrInvalidRetention),
		errors.Is(err, planner.ErrInvalidCount),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, service.ErrPredecessorNotFound):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, review.ErrItemNotFound),
		errors.Is(err, store.ErrItemNotFound):
		return "Item not found"

	case errors.Is(err, store.ErrCollectionNotFound):
		return "Collection not found"

	case errors.Is(err, store.ErrLedgerEntryNotFound):
		return "Ledger entry not found"

	case errors.Is(err, review.ErrReviewNotRecorded):
		return "Review was not recorded"

	case errors.Is(err, store.ErrSerialization):
		return "Concurrent update conflict, please retry"

	case errors.Is(err, store.ErrCollectionExists),
		errors.Is(err, store.ErrItemExists):
		return "Entity already exists"

	case errors.Is(err, service.ErrPredecessorNotFound):
		return "Predecessor collection not found"

	case errors.Is(err, domain.ErrInvalidRating):
		return "Invalid rating"

	case errors.Is(err, domain.ErrInvalidMode):
		return "Invalid collection mode"

	case errors.Is(err, domain.ErrInvalidDay):
		return "Invalid day, expected YYYY-MM-DD"

	case errors.Is(err, projection.ErrInvalidRetention):
		return "Retention must be a preset or a number between 0 and 1"

	case errors.Is(err, planner.ErrInvalidCount):
		return "Item count cannot be negative"

	case errors.Is(err, review.ErrBatchLengthMismatch):
		return "Each review needs exactly one rating"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// full error. A non-empty fallback replaces the generic message of 500s.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" &&
		!errors.Is(err, review.ErrReviewNotRecorded) {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusConflict {
		opts = append(opts, shared.WithElevatedLogLevel())
		if errors.Is(err, store.ErrSerialization) {
			opts = append(opts, shared.WithRetryAfter(time.Second))
		}
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'CreateCollectionRequest.chunk_size' Error:Field validation for 'chunk_size' failed on the 'gt' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "gt", "gte", "min":
		return "too small"
	case "lt", "lte", "max":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
