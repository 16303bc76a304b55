// Package srs schedules items: it applies a rating to an item's memory state
// and computes when the item is next due.
package srs

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/memory"
)

// Common errors. Both mark caller bugs and wrap domain.ErrProgrammer.
var (
	ErrNilItem       = fmt.Errorf("%w: item cannot be nil", domain.ErrProgrammer)
	ErrInvalidRating = fmt.Errorf("%w: %w", domain.ErrProgrammer, domain.ErrInvalidRating)
)

// Service defines the interface for scheduling operations
type Service interface {
	// Review applies rating to item at now and returns the updated copy. An
	// item that fails Validate is a caller bug and wraps domain.ErrProgrammer.
	Review(item *domain.Item, rating domain.Rating, now time.Time) (*domain.Item, error)

	// NewItem creates a fresh item that is due immediately.
	NewItem(collectionID uuid.UUID, ordinal int, now time.Time) (*domain.Item, error)

	// Retrievability returns the item's modelled recall probability at now.
	Retrievability(item *domain.Item, now time.Time) float64

	// DesiredRetention is the recall probability reviews are scheduled for.
	DesiredRetention() float64
}

type defaultService struct {
	params *Params
	model  *memory.Model
}

// NewDefaultService creates a new scheduler with default parameters
func NewDefaultService() Service {
	params := NewDefaultParams()
	return &defaultService{
		params: params,
		model:  memory.Default(),
	}
}

// NewServiceWithParams creates a new scheduler with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		params = NewDefaultParams()
	}
	model, err := memory.New(params.Model)
	if err != nil {
		return nil, err
	}
	return &defaultService{params: params, model: model}, nil
}

// Review implements Service.
func (s *defaultService) Review(item *domain.Item, rating domain.Rating, now time.Time) (*domain.Item, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid item: %w", domain.ErrProgrammer, err)
	}

	return calculateNextItem(s.model, s.params, item, rating, now), nil
}

// NewItem implements Service.
func (s *defaultService) NewItem(collectionID uuid.UUID, ordinal int, now time.Time) (*domain.Item, error) {
	return domain.NewItem(collectionID, ordinal, now)
}

// Retrievability implements Service.
func (s *defaultService) Retrievability(item *domain.Item, now time.Time) float64 {
	if item == nil {
		return 1
	}
	return memory.Retrievability(item.Stability, memory.ElapsedDays(item.LastReviewedAt, now))
}

// DesiredRetention implements Service.
func (s *defaultService) DesiredRetention() float64 {
	return s.model.DesiredRetention()
}
