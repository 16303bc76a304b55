package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

const collectionColumns = `id, title, mode, extent, chunk_size, priority, predecessor_id,
	deadline, created_at, updated_at`

type collectionRow struct {
	ID            uuid.UUID     `db:"id"`
	Title         string        `db:"title"`
	Mode          string        `db:"mode"`
	Extent        int           `db:"extent"`
	ChunkSize     int           `db:"chunk_size"`
	Priority      int           `db:"priority"`
	PredecessorID uuid.NullUUID `db:"predecessor_id"`
	Deadline      sql.NullTime  `db:"deadline"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

func (r *collectionRow) toDomain() *domain.Collection {
	c := &domain.Collection{
		ID:        r.ID,
		Title:     r.Title,
		Mode:      domain.Mode(r.Mode),
		Extent:    r.Extent,
		ChunkSize: r.ChunkSize,
		Priority:  domain.Priority(r.Priority),
		Deadline:  timePtr(r.Deadline),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.PredecessorID.Valid {
		id := r.PredecessorID.UUID
		c.PredecessorID = &id
	}
	return c
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

type collectionStore struct{ q querier }

var _ store.CollectionStore = (*collectionStore)(nil)

func (s *collectionStore) Create(ctx context.Context, c *domain.Collection) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.q.exec(ctx, `
		INSERT INTO collections (`+collectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Title,
		string(c.Mode),
		c.Extent,
		c.ChunkSize,
		int(c.Priority),
		nullUUID(c.PredecessorID),
		nullTime(c.Deadline),
		utc(c.CreatedAt),
		utc(c.UpdatedAt),
	)
	switch {
	case err == nil:
		return nil
	case store.IsDuplicateError(err):
		return fmt.Errorf("%w: %s", store.ErrCollectionExists, c.ID)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: predecessor %s", store.ErrCollectionNotFound, c.PredecessorID)
	}
	return store.NewStoreError("collection", "create", "failed to insert collection", err)
}

func (s *collectionStore) Get(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	var row collectionRow
	err := s.q.get(ctx, &row, `SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrCollectionNotFound, id)
		}
		return nil, store.NewStoreError("collection", "get", "failed to load collection", err)
	}
	return row.toDomain(), nil
}

func (s *collectionStore) List(ctx context.Context) ([]*domain.Collection, error) {
	var rows []collectionRow
	err := s.q.selectAll(ctx, &rows, `SELECT `+collectionColumns+` FROM collections ORDER BY created_at, id`)
	if err != nil {
		return nil, store.NewStoreError("collection", "list", "failed to list collections", err)
	}
	out := make([]*domain.Collection, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func (s *collectionStore) Update(ctx context.Context, c *domain.Collection) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	res, err := s.q.exec(ctx, `
		UPDATE collections
		SET title = ?, mode = ?, extent = ?, chunk_size = ?, priority = ?,
			predecessor_id = ?, deadline = ?, updated_at = ?
		WHERE id = ?`,
		c.Title,
		string(c.Mode),
		c.Extent,
		c.ChunkSize,
		int(c.Priority),
		nullUUID(c.PredecessorID),
		nullTime(c.Deadline),
		utc(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: predecessor %s", store.ErrCollectionNotFound, c.PredecessorID)
		}
		return store.NewStoreError("collection", "update", "failed to update collection", err)
	}
	return checkRowsAffected(res, fmt.Errorf("%w: %s", store.ErrCollectionNotFound, c.ID))
}
