package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

type collectionStore struct{ v *view }

var _ store.CollectionStore = (*collectionStore)(nil)

func (s *collectionStore) Create(_ context.Context, c *domain.Collection) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return s.v.write(OpCollectionCreate, func(st *state) error {
		if _, ok := st.collections[c.ID]; ok {
			return fmt.Errorf("%w: %s", store.ErrCollectionExists, c.ID)
		}
		st.collections[c.ID] = cloneCollection(c)
		return nil
	})
}

func (s *collectionStore) Get(_ context.Context, id uuid.UUID) (*domain.Collection, error) {
	var out *domain.Collection
	err := s.v.read(OpCollectionGet, func(st *state) error {
		c, ok := st.collections[id]
		if !ok {
			return fmt.Errorf("%w: %s", store.ErrCollectionNotFound, id)
		}
		out = cloneCollection(c)
		return nil
	})
	return out, err
}

func (s *collectionStore) List(_ context.Context) ([]*domain.Collection, error) {
	var out []*domain.Collection
	err := s.v.read(OpCollectionList, func(st *state) error {
		for _, c := range st.collections {
			out = append(out, cloneCollection(c))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *collectionStore) Update(_ context.Context, c *domain.Collection) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return s.v.write(OpCollectionUpdate, func(st *state) error {
		if _, ok := st.collections[c.ID]; !ok {
			return fmt.Errorf("%w: %s", store.ErrCollectionNotFound, c.ID)
		}
		st.collections[c.ID] = cloneCollection(c)
		return nil
	})
}
