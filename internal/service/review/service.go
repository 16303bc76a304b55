// Package review records reviews: it updates an item's memory state and
// credits the earned reward to the day's ledger in one transaction.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// Result describes one recorded review.
type Result struct {
	Item           *domain.Item        `json:"item"`
	Rating         domain.Rating       `json:"rating"`
	Retrievability float64             `json:"retrievability"` // before the review
	Reward         int                 `json:"reward"`
	Ledger         *domain.LedgerEntry `json:"ledger,omitempty"`
}

// BatchResult describes a batch of reviews recorded together.
type BatchResult struct {
	Items  []*domain.Item      `json:"items"`
	Reward int                 `json:"reward"`
	Ledger *domain.LedgerEntry `json:"ledger,omitempty"`
}

// Service records reviews.
type Service interface {
	// ProcessReview applies rating to the stored state of item and, for Good
	// and Easy, credits the reward computed from the item's pre-review
	// difficulty and retrievability.
	//
	// Returns:
	//   - srs.ErrNilItem, srs.ErrInvalidRating, ErrItemNotFound, or a stored
	//     item that fails validation: caller bugs, never worth retrying (all
	//     match domain.ErrProgrammer)
	//   - ErrReviewNotRecorded: nothing was written
	ProcessReview(
		ctx context.Context,
		item *domain.Item,
		rating domain.Rating,
		mode domain.Mode,
		now time.Time,
	) (*Result, error)

	// ProcessBatchReview records len(items) reviews in one transaction with a
	// single ledger credit. ratings[i] applies to items[i].
	ProcessBatchReview(
		ctx context.Context,
		items []*domain.Item,
		ratings []domain.Rating,
		mode domain.Mode,
		now time.Time,
	) (*BatchResult, error)

	// Review is ProcessReview for an item identified by key; the mode is
	// taken from the item's collection.
	Review(ctx context.Context, key domain.ItemKey, rating domain.Rating, now time.Time) (*Result, error)
}

// Common errors.
var (
	// ErrReviewNotRecorded is returned when the combined item and ledger
	// write failed and was rolled back.
	ErrReviewNotRecorded = errors.New("review not recorded")

	// ErrItemNotFound indicates that the reviewed item does not exist.
	ErrItemNotFound = fmt.Errorf("%w: item not found", domain.ErrProgrammer)

	// ErrBatchLengthMismatch indicates that items and ratings differ in length.
	ErrBatchLengthMismatch = fmt.Errorf("%w: items and ratings differ in length", domain.ErrProgrammer)

	// ErrInvalidMode indicates an unknown collection mode.
	ErrInvalidMode = fmt.Errorf("%w: %w", domain.ErrProgrammer, domain.ErrInvalidMode)
)

// ServiceError wraps errors from the review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "process_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// notRecorded wraps a transactional failure so it matches both
// ErrReviewNotRecorded and the cause.
func notRecorded(operation string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   "failed to record review",
		Err:       fmt.Errorf("%w: %w", ErrReviewNotRecorded, err),
	}
}
