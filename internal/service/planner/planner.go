// Package planner turns the stored collections, items and ledger into a
// daily study plan and creates the recommended new items.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/allocation"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/ledger"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// ErrInvalidCount is returned when Assign is asked for a negative number of items.
var ErrInvalidCount = errors.New("item count cannot be negative")

// Recommendation is an allocation result together with the inputs it was
// computed from.
type Recommendation struct {
	Day            domain.Day `json:"day"`
	ReviewReward   int        `json:"review_reward"`
	AssignedReward int        `json:"assigned_reward"`
	TargetReward   int        `json:"target_reward"`
	allocation.Result
}

// Assignment reports the items created by an assignment run.
type Assignment struct {
	Requested int `json:"requested"`
	Created   int `json:"created"`
}

// Planner computes recommendations and assigns new items.
type Planner struct {
	tx       store.TxRunner
	assigner *allocation.Assigner
	policy   ledger.Policy
	cfg      allocation.Config
	logger   *slog.Logger
}

// New creates a Planner.
func New(
	tx store.TxRunner,
	assigner *allocation.Assigner,
	policy ledger.Policy,
	cfg allocation.Config,
	log *slog.Logger,
) (*Planner, error) {
	if tx == nil {
		return nil, errors.New("tx runner cannot be nil")
	}
	if assigner == nil {
		return nil, errors.New("assigner cannot be nil")
	}
	if cfg.Rewards == nil {
		defaults := allocation.DefaultConfig()
		cfg.Rewards = defaults.Rewards
	}
	if log == nil {
		log = slog.Default()
	}
	return &Planner{
		tx:       tx,
		assigner: assigner,
		policy:   policy,
		cfg:      cfg,
		logger:   log.With(slog.String("component", "planner")),
	}, nil
}

// Recommend computes today's allocation of new items. Today's ledger entry is
// opened if it does not exist yet.
func (p *Planner) Recommend(ctx context.Context, now time.Time, loc *time.Location) (*Recommendation, error) {
	day := domain.DayOf(now, loc)
	rec := &Recommendation{Day: day}

	err := p.tx.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		entry, err := ledger.EnsureDay(ctx, tx, p.policy, day, now)
		if err != nil {
			return err
		}

		collections, err := tx.Collections.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list collections: %w", err)
		}
		modes := make(map[uuid.UUID]domain.Mode, len(collections))
		for _, c := range collections {
			modes[c.ID] = c.Mode
		}

		eligible, remaining, err := withCapacity(ctx, tx.Items, collections)
		if err != nil {
			return err
		}

		due, err := tx.Items.FindDue(ctx, day.End(loc))
		if err != nil {
			return fmt.Errorf("failed to load due items: %w", err)
		}
		assigned, err := tx.Items.FindNew(ctx, day.Start(loc))
		if err != nil {
			return fmt.Errorf("failed to load assigned items: %w", err)
		}

		rec.TargetReward = entry.TargetReward
		rec.ReviewReward = p.flatTotal(due, modes)
		rec.AssignedReward = p.flatTotal(assigned, modes)
		rec.Result = allocation.Recommend(allocation.Request{
			ReviewReward:   rec.ReviewReward,
			AssignedReward: rec.AssignedReward,
			TargetReward:   rec.TargetReward,
			Collections:    eligible,
			Remaining:      remaining,
		}, p.cfg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute recommendation: %w", err)
	}

	logger.FromContextOrDefault(ctx, p.logger).Info("computed recommendation",
		slog.String("day", string(day)),
		slog.Int("deficit", rec.Deficit),
		slog.Int("total", rec.Total),
		slog.Int("advisories", len(rec.Advisories)))

	return rec, nil
}

// Assign creates up to count new items round-robin across all collections.
func (p *Planner) Assign(ctx context.Context, count int, now time.Time, loc *time.Location) (*Assignment, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	collections, err := p.tx.Stores().Collections.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	created, err := p.assigner.AssignItems(ctx, collections, count, now)
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, p.logger).Info("assigned items",
		slog.String("day", string(domain.DayOf(now, loc))),
		slog.Int("requested", count),
		slog.Int("created", created))

	return &Assignment{Requested: count, Created: created}, nil
}

// AssignRecommended computes today's recommendation and creates the items it
// calls for.
func (p *Planner) AssignRecommended(ctx context.Context, now time.Time, loc *time.Location) (*Recommendation, *Assignment, error) {
	rec, err := p.Recommend(ctx, now, loc)
	if err != nil {
		return nil, nil, err
	}
	if rec.Total == 0 {
		return rec, &Assignment{}, nil
	}

	collections, err := p.tx.Stores().Collections.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list collections: %w", err)
	}

	created, err := p.assigner.AssignQuotas(ctx, collections, rec.PerCollection, now)
	if err != nil {
		return nil, nil, err
	}
	return rec, &Assignment{Requested: rec.Total, Created: created}, nil
}

func (p *Planner) flatTotal(items []*domain.Item, modes map[uuid.UUID]domain.Mode) int {
	total := 0
	for _, item := range items {
		if mode, ok := modes[item.CollectionID]; ok {
			total += p.cfg.Rewards.Flat(mode)
		}
	}
	return total
}

// withCapacity keeps the collections that can still take new items and
// returns how many free slots each of them has.
func withCapacity(
	ctx context.Context,
	items store.ItemStore,
	collections []*domain.Collection,
) ([]*domain.Collection, map[uuid.UUID]int, error) {
	out := make([]*domain.Collection, 0, len(collections))
	remaining := make(map[uuid.UUID]int, len(collections))
	for _, c := range collections {
		existing, err := items.FindByCollection(ctx, c.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load items of collection %s: %w", c.ID, err)
		}
		if free := c.Capacity() - len(existing); free > 0 {
			out = append(out, c)
			remaining[c.ID] = free
		}
	}
	return out, remaining, nil
}
