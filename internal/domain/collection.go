package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode is the study mode of a collection. It selects the per-item reward and
// the number of new items a learner can absorb per day.
type Mode string

const (
	ModeRead     Mode = "read"
	ModeSolve    Mode = "solve"
	ModeMemorize Mode = "memorize"
)

// Modes lists every valid mode.
var Modes = []Mode{ModeRead, ModeSolve, ModeMemorize}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeRead, ModeSolve, ModeMemorize:
		return true
	default:
		return false
	}
}

// ParseMode converts a mode name (any case) to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Priority marks collections whose allocation weight is boosted.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

// String returns "normal" or "high".
func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "normal"
}

// MarshalText encodes the priority as its name.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts "normal", "high" or an empty value (normal).
func (p *Priority) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "normal":
		*p = PriorityNormal
	case "high":
		*p = PriorityHigh
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPriority, text)
	}
	return nil
}

// Validation errors for Collection.
var (
	ErrEmptyCollectionID    = errors.New("collection ID cannot be empty")
	ErrEmptyCollectionTitle = errors.New("collection title cannot be empty")
	ErrInvalidExtent        = errors.New("collection extent must be greater than 0")
	ErrInvalidChunkSize     = errors.New("collection chunk size must be greater than 0")
	ErrInvalidPriority      = errors.New("invalid collection priority")
	ErrSelfPredecessor      = errors.New("collection cannot be its own predecessor")
)

// Collection is a titled body of material divided into items.
type Collection struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Mode          Mode       `json:"mode"`
	Extent        int        `json:"extent"`     // total units (pages, problems, words)
	ChunkSize     int        `json:"chunk_size"` // units per item
	Priority      Priority   `json:"priority"`
	PredecessorID *uuid.UUID `json:"predecessor_id,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewCollection creates a validated collection with a fresh ID.
func NewCollection(title string, mode Mode, extent, chunkSize int, now time.Time) (*Collection, error) {
	c := &Collection{
		ID:        uuid.New(),
		Title:     title,
		Mode:      mode,
		Extent:    extent,
		ChunkSize: chunkSize,
		Priority:  PriorityNormal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Capacity is the number of items the collection's extent is partitioned into.
func (c *Collection) Capacity() int {
	if c.ChunkSize <= 0 {
		return 0
	}
	return (c.Extent + c.ChunkSize - 1) / c.ChunkSize
}

// IsHighPriority reports whether the collection carries the high priority flag.
func (c *Collection) IsHighPriority() bool {
	return c.Priority == PriorityHigh
}

// Validate checks if the collection has valid data.
func (c *Collection) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCollectionID
	}
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyCollectionTitle
	}
	if !c.Mode.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	if c.Extent <= 0 {
		return ErrInvalidExtent
	}
	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if c.Priority != PriorityNormal && c.Priority != PriorityHigh {
		return ErrInvalidPriority
	}
	if c.PredecessorID != nil && *c.PredecessorID == c.ID {
		return ErrSelfPredecessor
	}
	return nil
}
