package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// ItemStore defines the interface for item persistence.
type ItemStore interface {
	// Create saves a new item.
	// Returns ErrItemExists if the collection already has an item with that ordinal.
	Create(ctx context.Context, item *domain.Item) error

	// Get retrieves an item by key.
	// Returns ErrItemNotFound if the item does not exist.
	Get(ctx context.Context, key domain.ItemKey) (*domain.Item, error)

	// GetForUpdate retrieves an item and locks it until the surrounding
	// transaction ends, serialising concurrent reviews of the same item.
	// Returns ErrItemNotFound if the item does not exist.
	GetForUpdate(ctx context.Context, key domain.ItemKey) (*domain.Item, error)

	// Update overwrites the memory state of an existing item.
	// Returns ErrItemNotFound if the item does not exist.
	Update(ctx context.Context, item *domain.Item) error

	// UpdateMany updates several items; it stops at the first failure.
	UpdateMany(ctx context.Context, items []*domain.Item) error

	// FindByCollection returns all items of a collection ordered by ordinal.
	FindByCollection(ctx context.Context, collectionID uuid.UUID) ([]*domain.Item, error)

	// FindDue returns reviewed (non-New) items whose due time is at or
	// before the given time, ordered by due time.
	FindDue(ctx context.Context, before time.Time) ([]*domain.Item, error)

	// FindNew returns New items created at or after since, ordered by
	// creation time.
	FindNew(ctx context.Context, since time.Time) ([]*domain.Item, error)
}
