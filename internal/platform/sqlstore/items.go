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

const itemColumns = `collection_id, ordinal, state, stability, difficulty, elapsed_days,
	scheduled_days, repetitions, lapses, due, last_reviewed_at, created_at, updated_at`

type itemRow struct {
	CollectionID   uuid.UUID    `db:"collection_id"`
	Ordinal        int          `db:"ordinal"`
	State          int          `db:"state"`
	Stability      float64      `db:"stability"`
	Difficulty     float64      `db:"difficulty"`
	ElapsedDays    int          `db:"elapsed_days"`
	ScheduledDays  int          `db:"scheduled_days"`
	Repetitions    int          `db:"repetitions"`
	Lapses         int          `db:"lapses"`
	Due            time.Time    `db:"due"`
	LastReviewedAt sql.NullTime `db:"last_reviewed_at"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (r *itemRow) toDomain() *domain.Item {
	return &domain.Item{
		CollectionID:   r.CollectionID,
		Ordinal:        r.Ordinal,
		State:          domain.State(r.State),
		Stability:      r.Stability,
		Difficulty:     r.Difficulty,
		ElapsedDays:    r.ElapsedDays,
		ScheduledDays:  r.ScheduledDays,
		Repetitions:    r.Repetitions,
		Lapses:         r.Lapses,
		Due:            r.Due,
		LastReviewedAt: timePtr(r.LastReviewedAt),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func itemsFromRows(rows []itemRow) []*domain.Item {
	out := make([]*domain.Item, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out
}

type itemStore struct{ q querier }

var _ store.ItemStore = (*itemStore)(nil)

func (s *itemStore) Create(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.q.exec(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.CollectionID,
		item.Ordinal,
		int(item.State),
		item.Stability,
		item.Difficulty,
		item.ElapsedDays,
		item.ScheduledDays,
		item.Repetitions,
		item.Lapses,
		utc(item.Due),
		nullTime(item.LastReviewedAt),
		utc(item.CreatedAt),
		utc(item.UpdatedAt),
	)
	switch {
	case err == nil:
		return nil
	case store.IsDuplicateError(err):
		return fmt.Errorf("%w: %s", store.ErrItemExists, item.Key())
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", store.ErrCollectionNotFound, item.CollectionID)
	}
	return store.NewStoreError("item", "create", "failed to insert item", err)
}

func (s *itemStore) get(ctx context.Context, query string, key domain.ItemKey) (*domain.Item, error) {
	var row itemRow
	err := s.q.get(ctx, &row, query, key.CollectionID, key.Ordinal)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrItemNotFound, key)
		}
		return nil, store.NewStoreError("item", "get", "failed to load item", err)
	}
	return row.toDomain(), nil
}

const selectItemByKey = `SELECT ` + itemColumns + ` FROM items WHERE collection_id = ? AND ordinal = ?`

func (s *itemStore) Get(ctx context.Context, key domain.ItemKey) (*domain.Item, error) {
	return s.get(ctx, selectItemByKey, key)
}

func (s *itemStore) GetForUpdate(ctx context.Context, key domain.ItemKey) (*domain.Item, error) {
	return s.get(ctx, s.q.forUpdate(selectItemByKey), key)
}

func (s *itemStore) Update(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	res, err := s.q.exec(ctx, `
		UPDATE items
		SET state = ?, stability = ?, difficulty = ?, elapsed_days = ?, scheduled_days = ?,
			repetitions = ?, lapses = ?, due = ?, last_reviewed_at = ?, updated_at = ?
		WHERE collection_id = ? AND ordinal = ?`,
		int(item.State),
		item.Stability,
		item.Difficulty,
		item.ElapsedDays,
		item.ScheduledDays,
		item.Repetitions,
		item.Lapses,
		utc(item.Due),
		nullTime(item.LastReviewedAt),
		utc(item.UpdatedAt),
		item.CollectionID,
		item.Ordinal,
	)
	if err != nil {
		return store.NewStoreError("item", "update", "failed to update item", err)
	}
	return checkRowsAffected(res, fmt.Errorf("%w: %s", store.ErrItemNotFound, item.Key()))
}

func (s *itemStore) UpdateMany(ctx context.Context, items []*domain.Item) error {
	for _, item := range items {
		if err := s.Update(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *itemStore) FindByCollection(ctx context.Context, collectionID uuid.UUID) ([]*domain.Item, error) {
	var rows []itemRow
	err := s.q.selectAll(ctx, &rows, `
		SELECT `+itemColumns+` FROM items
		WHERE collection_id = ?
		ORDER BY ordinal`, collectionID)
	if err != nil {
		return nil, store.NewStoreError("item", "find", "failed to list collection items", err)
	}
	return itemsFromRows(rows), nil
}

func (s *itemStore) FindDue(ctx context.Context, before time.Time) ([]*domain.Item, error) {
	var rows []itemRow
	err := s.q.selectAll(ctx, &rows, `
		SELECT `+itemColumns+` FROM items
		WHERE state <> ? AND due <= ?
		ORDER BY due, collection_id, ordinal`, int(domain.StateNew), utc(before))
	if err != nil {
		return nil, store.NewStoreError("item", "find", "failed to list due items", err)
	}
	return itemsFromRows(rows), nil
}

func (s *itemStore) FindNew(ctx context.Context, since time.Time) ([]*domain.Item, error) {
	var rows []itemRow
	err := s.q.selectAll(ctx, &rows, `
		SELECT `+itemColumns+` FROM items
		WHERE state = ? AND created_at >= ?
		ORDER BY created_at, collection_id, ordinal`, int(domain.StateNew), utc(since))
	if err != nil {
		return nil, store.NewStoreError("item", "find", "failed to list new items", err)
	}
	return itemsFromRows(rows), nil
}
