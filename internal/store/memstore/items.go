package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

type itemStore struct{ v *view }

var _ store.ItemStore = (*itemStore)(nil)

func (s *itemStore) Create(_ context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return s.v.write(OpItemCreate, func(st *state) error {
		if _, ok := st.collections[item.CollectionID]; !ok {
			return store.ErrCollectionNotFound
		}
		key := item.Key()
		if _, ok := st.items[key]; ok {
			return fmt.Errorf("%w: %s", store.ErrItemExists, key)
		}
		st.items[key] = item.Clone()
		return nil
	})
}

func (s *itemStore) get(op string, key domain.ItemKey) (*domain.Item, error) {
	var out *domain.Item
	err := s.v.read(op, func(st *state) error {
		item, ok := st.items[key]
		if !ok {
			return fmt.Errorf("%w: %s", store.ErrItemNotFound, key)
		}
		out = item.Clone()
		return nil
	})
	return out, err
}

func (s *itemStore) Get(_ context.Context, key domain.ItemKey) (*domain.Item, error) {
	return s.get(OpItemGet, key)
}

// GetForUpdate needs no row lock: transactions are already serialised.
func (s *itemStore) GetForUpdate(_ context.Context, key domain.ItemKey) (*domain.Item, error) {
	return s.get(OpItemGetForUpdate, key)
}

func (s *itemStore) Update(_ context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return s.v.write(OpItemUpdate, func(st *state) error {
		key := item.Key()
		if _, ok := st.items[key]; !ok {
			return fmt.Errorf("%w: %s", store.ErrItemNotFound, key)
		}
		st.items[key] = item.Clone()
		return nil
	})
}

func (s *itemStore) UpdateMany(ctx context.Context, items []*domain.Item) error {
	for _, item := range items {
		if err := s.Update(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *itemStore) find(match func(*domain.Item) bool, less func(a, b *domain.Item) bool) ([]*domain.Item, error) {
	var out []*domain.Item
	err := s.v.read(OpItemFind, func(st *state) error {
		for _, item := range st.items {
			if match(item) {
				out = append(out, item.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

func byKey(a, b *domain.Item) bool {
	if a.CollectionID != b.CollectionID {
		return a.CollectionID.String() < b.CollectionID.String()
	}
	return a.Ordinal < b.Ordinal
}

func (s *itemStore) FindByCollection(_ context.Context, collectionID uuid.UUID) ([]*domain.Item, error) {
	return s.find(
		func(i *domain.Item) bool { return i.CollectionID == collectionID },
		byKey,
	)
}

func (s *itemStore) FindDue(_ context.Context, before time.Time) ([]*domain.Item, error) {
	return s.find(
		func(i *domain.Item) bool { return i.State != domain.StateNew && !i.Due.After(before) },
		func(a, b *domain.Item) bool {
			if !a.Due.Equal(b.Due) {
				return a.Due.Before(b.Due)
			}
			return byKey(a, b)
		},
	)
}

func (s *itemStore) FindNew(_ context.Context, since time.Time) ([]*domain.Item, error) {
	return s.find(
		func(i *domain.Item) bool { return i.State == domain.StateNew && !i.CreatedAt.Before(since) },
		func(a, b *domain.Item) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return byKey(a, b)
		},
	)
}
