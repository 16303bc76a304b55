package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/service/planner"
)

// Common request/response structures

// CreateCollectionRequest defines the payload for creating a collection.
type CreateCollectionRequest struct {
	Title         string          `json:"title"          validate:"required,max=200"`
	Mode          string          `json:"mode"           validate:"required,oneof=read solve memorize"`
	Extent        int             `json:"extent"         validate:"required,gt=0"`
	ChunkSize     int             `json:"chunk_size"     validate:"required,gt=0"`
	Priority      domain.Priority `json:"priority"`
	PredecessorID *uuid.UUID      `json:"predecessor_id,omitempty"`
}

// CollectionResponse is a collection together with its derived capacity.
type CollectionResponse struct {
	*domain.Collection
	Capacity int `json:"capacity"`
}

// DeadlineRequest defines the payload for spreading a deadline over a
// prerequisite chain.
type DeadlineRequest struct {
	// TargetDate is an RFC 3339 timestamp or a YYYY-MM-DD day (midnight local time)
	TargetDate string `json:"target_date" validate:"required"`

	// Retention is a preset name (relaxed, standard, strict) or a decimal
	// such as "0.9". Empty selects the standard preset.
	Retention string `json:"retention,omitempty"`
}

// ReviewRequest defines the payload for recording a single review.
type ReviewRequest struct {
	CollectionID uuid.UUID     `json:"collection_id" validate:"required"`
	Ordinal      int           `json:"ordinal"       validate:"gte=0"`
	Rating       domain.Rating `json:"rating"        validate:"required"`
}

// BatchReviewEntry is one review of a batch.
type BatchReviewEntry struct {
	Ordinal int           `json:"ordinal" validate:"gte=0"`
	Rating  domain.Rating `json:"rating"  validate:"required"`
}

// BatchReviewRequest defines the payload for recording several reviews of
// one collection at once.
type BatchReviewRequest struct {
	CollectionID uuid.UUID          `json:"collection_id" validate:"required"`
	Reviews      []BatchReviewEntry `json:"reviews"       validate:"required,min=1,dive"`
}

// AssignRequest defines the optional payload of POST /plan/assign. Without
// a count the current recommendation is assigned.
type AssignRequest struct {
	Count *int `json:"count,omitempty" validate:"omitempty,gte=0"`
}

// AssignResponse reports an assignment and, when it was derived from one,
// the recommendation behind it.
type AssignResponse struct {
	Requested      int                     `json:"requested"`
	Created        int                     `json:"created"`
	Recommendation *planner.Recommendation `json:"recommendation,omitempty"`
}

// SetTargetRequest defines the payload for changing the daily target reward.
type SetTargetRequest struct {
	DailyTargetReward int `json:"daily_target_reward" validate:"required,gt=0"`
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
