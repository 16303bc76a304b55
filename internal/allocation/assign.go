package allocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/srs"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// Assigner creates new items for collections.
type Assigner struct {
	tx     store.TxRunner
	srs    srs.Service
	logger *slog.Logger
}

// NewAssigner creates an Assigner.
func NewAssigner(tx store.TxRunner, srsService srs.Service, log *slog.Logger) (*Assigner, error) {
	if tx == nil {
		return nil, errors.New("tx runner cannot be nil")
	}
	if srsService == nil {
		return nil, errors.New("srs service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Assigner{
		tx:     tx,
		srs:    srsService,
		logger: log.With(slog.String("component", "allocation_assigner")),
	}, nil
}

// AssignItems creates up to total new items, one per collection per round,
// each at the lowest ordinal the collection does not have yet. Full
// collections are skipped. It stops when total items exist, no collection
// has capacity left, or after 2·total rounds. Returns the number created.
func (a *Assigner) AssignItems(ctx context.Context, collections []*domain.Collection, total int, now time.Time) (int, error) {
	return a.assign(ctx, collections, total, nil, now)
}

// AssignQuotas behaves like AssignItems but never creates more than
// quotas[id] items for a collection. Collections without a quota get none.
func (a *Assigner) AssignQuotas(ctx context.Context, collections []*domain.Collection, quotas map[uuid.UUID]int, now time.Time) (int, error) {
	total := 0
	for _, c := range collections {
		total += max(0, quotas[c.ID])
	}
	return a.assign(ctx, collections, total, quotas, now)
}

// slot tracks the next free ordinal of one collection during a run.
type slot struct {
	collection *domain.Collection
	existing   map[int]struct{}
	next       int
	quota      int
	created    int
	full       bool
}

// nextOrdinal returns the lowest ordinal not yet taken, or false when the
// collection is at capacity.
func (s *slot) nextOrdinal() (int, bool) {
	capacity := s.collection.Capacity()
	for s.next < capacity {
		if _, taken := s.existing[s.next]; !taken {
			return s.next, true
		}
		s.next++
	}
	return 0, false
}

func (a *Assigner) assign(
	ctx context.Context,
	collections []*domain.Collection,
	total int,
	quotas map[uuid.UUID]int,
	now time.Time,
) (int, error) {
	if total <= 0 || len(collections) == 0 {
		return 0, nil
	}

	log := logger.FromContextOrDefault(ctx, a.logger)
	created := 0

	err := a.tx.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		created = 0
		slots := make([]*slot, 0, len(collections))
		for _, c := range collections {
			items, err := tx.Items.FindByCollection(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("failed to load items of collection %s: %w", c.ID, err)
			}
			s := &slot{collection: c, existing: make(map[int]struct{}, len(items)), quota: total}
			if quotas != nil {
				s.quota = quotas[c.ID]
			}
			for _, item := range items {
				s.existing[item.Ordinal] = struct{}{}
			}
			slots = append(slots, s)
		}

		for round := 0; round < 2*total && created < total; round++ {
			progressed := false
			for _, s := range slots {
				if created >= total {
					break
				}
				if s.full || s.created >= s.quota {
					continue
				}
				ordinal, ok := s.nextOrdinal()
				if !ok {
					s.full = true
					continue
				}
				item, err := a.srs.NewItem(s.collection.ID, ordinal, now)
				if err != nil {
					return err
				}
				if err := tx.Items.Create(ctx, item); err != nil {
					return fmt.Errorf("failed to create item %s: %w", item.Key(), err)
				}
				s.existing[ordinal] = struct{}{}
				s.created++
				created++
				progressed = true
			}
			if !progressed {
				break
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to assign items",
			slog.Int("requested", total),
			slog.String("error", err.Error()))
		return 0, err
	}

	log.Info("assigned new items",
		slog.Int("requested", total),
		slog.Int("created", created),
		slog.Int("collections", len(collections)))
	return created, nil
}
