package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// CollectionServiceError is a custom error type for collection service errors.
type CollectionServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for CollectionServiceError.
func (e *CollectionServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("collection service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("collection service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *CollectionServiceError) Unwrap() error {
	return e.Err
}

// NewCollectionServiceError creates a new CollectionServiceError.
func NewCollectionServiceError(operation, message string, err error) *CollectionServiceError {
	return &CollectionServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// CollectionParams describes a collection to create.
type CollectionParams struct {
	Title         string
	Mode          domain.Mode
	Extent        int
	ChunkSize     int
	Priority      domain.Priority
	PredecessorID *uuid.UUID
}

// CollectionService manages collections and their items.
type CollectionService interface {
	// CreateCollection validates and stores a new collection. A predecessor,
	// if given, must already exist.
	CreateCollection(ctx context.Context, params CollectionParams, now time.Time) (*domain.Collection, error)

	// GetCollection retrieves a collection by its ID
	GetCollection(ctx context.Context, id uuid.UUID) (*domain.Collection, error)

	// ListCollections returns all collections, oldest first
	ListCollections(ctx context.Context) ([]*domain.Collection, error)

	// ListItems returns the items of a collection ordered by ordinal
	ListItems(ctx context.Context, id uuid.UUID) ([]*domain.Item, error)
}

type collectionServiceImpl struct {
	tx     store.TxRunner
	logger *slog.Logger
}

// NewCollectionService creates a new CollectionService.
// It returns an error if the store is nil.
func NewCollectionService(tx store.TxRunner, logger *slog.Logger) (CollectionService, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: tx runner cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &collectionServiceImpl{
		tx:     tx,
		logger: logger.With(slog.String("component", "collection_service")),
	}, nil
}

// CreateCollection implements CollectionService.CreateCollection
func (s *collectionServiceImpl) CreateCollection(
	ctx context.Context,
	params CollectionParams,
	now time.Time,
) (*domain.Collection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c, err := domain.NewCollection(params.Title, params.Mode, params.Extent, params.ChunkSize, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	c.Priority = params.Priority
	c.PredecessorID = params.PredecessorID
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		if c.PredecessorID != nil {
			if _, err := tx.Collections.Get(ctx, *c.PredecessorID); err != nil {
				return err
			}
		}
		return tx.Collections.Create(ctx, c)
	})
	if err != nil {
		log.Error("failed to create collection",
			slog.String("error", err.Error()),
			slog.String("title", c.Title))
		if errors.Is(err, store.ErrCollectionNotFound) {
			return nil, NewCollectionServiceError("create_collection", "predecessor not found", ErrPredecessorNotFound)
		}
		return nil, NewCollectionServiceError("create_collection", "failed to save collection", err)
	}

	log.Info("created collection",
		slog.String("collection_id", c.ID.String()),
		slog.String("mode", string(c.Mode)),
		slog.Int("capacity", c.Capacity()))
	return c, nil
}

// GetCollection implements CollectionService.GetCollection
func (s *collectionServiceImpl) GetCollection(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	c, err := s.tx.Stores().Collections.Get(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, NewCollectionServiceError("get_collection", "collection not found", store.ErrCollectionNotFound)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve collection",
			slog.String("error", err.Error()),
			slog.String("collection_id", id.String()))
		return nil, NewCollectionServiceError("get_collection", "failed to retrieve collection", err)
	}
	return c, nil
}

// ListCollections implements CollectionService.ListCollections
func (s *collectionServiceImpl) ListCollections(ctx context.Context) ([]*domain.Collection, error) {
	cs, err := s.tx.Stores().Collections.List(ctx)
	if err != nil {
		return nil, NewCollectionServiceError("list_collections", "failed to list collections", err)
	}
	return cs, nil
}

// ListItems implements CollectionService.ListItems
func (s *collectionServiceImpl) ListItems(ctx context.Context, id uuid.UUID) ([]*domain.Item, error) {
	if _, err := s.GetCollection(ctx, id); err != nil {
		return nil, err
	}
	items, err := s.tx.Stores().Items.FindByCollection(ctx, id)
	if err != nil {
		return nil, NewCollectionServiceError("list_items", "failed to list items", err)
	}
	return items, nil
}
