package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// CollectionStore defines the interface for collection persistence.
type CollectionStore interface {
	// Create saves a new collection.
	// Returns ErrCollectionExists if the ID is already taken.
	Create(ctx context.Context, c *domain.Collection) error

	// Get retrieves a collection by ID.
	// Returns ErrCollectionNotFound if it does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Collection, error)

	// List returns every collection ordered by creation time.
	List(ctx context.Context) ([]*domain.Collection, error)

	// Update overwrites an existing collection.
	// Returns ErrCollectionNotFound if it does not exist.
	Update(ctx context.Context, c *domain.Collection) error
}
