package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the learning stage of an item.
type State int

// Stored as integers; New is the zero value so fresh rows default to it.
const (
	StateNew State = iota
	StateLearning
	StateReview
	StateRelearning
)

var stateNames = [...]string{
	StateNew:        "new",
	StateLearning:   "learning",
	StateReview:     "review",
	StateRelearning: "relearning",
}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	return s >= StateNew && s <= StateRelearning
}

// String returns the lowercase name of the state.
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidState, text)
}

// Validation errors for Item.
var (
	ErrEmptyItemCollectionID = errors.New("item collection ID cannot be empty")
	ErrInvalidOrdinal        = errors.New("item ordinal must be greater than or equal to 0")
	ErrInvalidState          = errors.New("invalid item state")
	ErrInvalidStability      = errors.New("stability must be 0 for new items and positive otherwise")
	ErrInvalidDifficulty     = errors.New("difficulty must be greater than or equal to 0")
	ErrInvalidCounters       = errors.New("item counters cannot be negative")
	ErrMissingDue            = errors.New("item due date must be set")
)

// ItemKey identifies an item: the owning collection plus its position in it.
type ItemKey struct {
	CollectionID uuid.UUID `json:"collection_id"`
	Ordinal      int       `json:"ordinal"`
}

// String renders the key as "<collection>/<ordinal>".
func (k ItemKey) String() string {
	return fmt.Sprintf("%s/%d", k.CollectionID, k.Ordinal)
}

// Item is one learnable unit of a collection together with its memory state.
type Item struct {
	CollectionID   uuid.UUID  `json:"collection_id"`
	Ordinal        int        `json:"ordinal"`
	State          State      `json:"state"`
	Stability      float64    `json:"stability"`  // days
	Difficulty     float64    `json:"difficulty"` // model units, 0 until first review
	ElapsedDays    int        `json:"elapsed_days"`
	ScheduledDays  int        `json:"scheduled_days"`
	Repetitions    int        `json:"repetitions"`
	Lapses         int        `json:"lapses"`
	Due            time.Time  `json:"due"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewItem creates a blank item in the New state, due immediately.
func NewItem(collectionID uuid.UUID, ordinal int, now time.Time) (*Item, error) {
	item := &Item{
		CollectionID: collectionID,
		Ordinal:      ordinal,
		State:        StateNew,
		Due:          now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Key returns the identity of the item.
func (i *Item) Key() ItemKey {
	return ItemKey{CollectionID: i.CollectionID, Ordinal: i.Ordinal}
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	out := *i
	if i.LastReviewedAt != nil {
		t := *i.LastReviewedAt
		out.LastReviewedAt = &t
	}
	return &out
}

// IsDue reports whether the item should be reviewed at or before t.
func (i *Item) IsDue(t time.Time) bool {
	return !i.Due.After(t)
}

// Validate checks the item's identity and memory-state invariants.
func (i *Item) Validate() error {
	if i.CollectionID == uuid.Nil {
		return ErrEmptyItemCollectionID
	}
	if i.Ordinal < 0 {
		return ErrInvalidOrdinal
	}
	if !i.State.IsValid() {
		return ErrInvalidState
	}
	if i.State == StateNew && i.Stability != 0 {
		return ErrInvalidStability
	}
	if i.State != StateNew && i.Stability <= 0 {
		return ErrInvalidStability
	}
	if i.Difficulty < 0 {
		return ErrInvalidDifficulty
	}
	if i.ElapsedDays < 0 || i.ScheduledDays < 0 || i.Repetitions < 0 || i.Lapses < 0 {
		return ErrInvalidCounters
	}
	if i.Due.IsZero() {
		return ErrMissingDue
	}
	return nil
}
