package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/reward"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// Estimate is the projection for a single collection.
type Estimate struct {
	CollectionID uuid.UUID  `json:"collection_id"`
	Retention    float64    `json:"retention"`
	Days         int        `json:"days"`
	ReadyOn      domain.Day `json:"ready_on"`
}

// ChainLink is one collection of a chain with its apportioned deadline.
type ChainLink struct {
	CollectionID  uuid.UUID `json:"collection_id"`
	Title         string    `json:"title"`
	EstimatedDays int       `json:"estimated_days"`
	AllocatedDays int       `json:"allocated_days"`
	Deadline      time.Time `json:"deadline"`
}

// ChainPlan is the result of AllocateChainDeadlines. Links run from the root
// of the chain to the final collection.
type ChainPlan struct {
	Links         []ChainLink       `json:"links"`
	TotalEstimate int               `json:"total_estimate"`
	AvailableDays int               `json:"available_days"`
	TargetDate    time.Time         `json:"target_date"`
	Advisories    []domain.Advisory `json:"advisories,omitempty"`
}

// Projector loads collections and items to run projections against storage.
type Projector struct {
	tx      store.TxRunner
	rewards *reward.Table
	logger  *slog.Logger
}

// NewProjector creates a Projector.
func NewProjector(tx store.TxRunner, rewards *reward.Table, log *slog.Logger) (*Projector, error) {
	if tx == nil {
		return nil, errors.New("tx runner cannot be nil")
	}
	if rewards == nil {
		rewards = reward.DefaultTable()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Projector{
		tx:      tx,
		rewards: rewards,
		logger:  log.With(slog.String("component", "projector")),
	}, nil
}

// Estimate returns EstimateDaysToThreshold for a stored collection.
func (p *Projector) Estimate(
	ctx context.Context,
	id uuid.UUID,
	target float64,
	now time.Time,
	loc *time.Location,
) (*Estimate, error) {
	if err := ValidateRetention(target); err != nil {
		return nil, err
	}
	s := p.tx.Stores()
	c, err := s.Collections.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.Items.FindByCollection(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load items of collection %s: %w", id, err)
	}
	days := EstimateDaysToThreshold(c, items, target, now, p.rewards)
	return &Estimate{
		CollectionID: id,
		Retention:    target,
		Days:         days,
		ReadyOn:      domain.DayOf(now, loc).AddDays(days),
	}, nil
}

// AllocateChainDeadlines walks the prerequisite chain back from finalID,
// estimates each collection and splits the days until targetDate in
// proportion to the estimates (floored, at least one day each). The final
// collection is always due on targetDate. Cycles, missing links and short or
// past deadlines produce advisories, not errors. Deadlines are stored on the
// collections in one transaction.
func (p *Projector) AllocateChainDeadlines(
	ctx context.Context,
	finalID uuid.UUID,
	targetDate time.Time,
	target float64,
	now time.Time,
	loc *time.Location,
) (*ChainPlan, error) {
	if err := ValidateRetention(target); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	log := logger.FromContextOrDefault(ctx, p.logger)

	var plan *ChainPlan
	err := p.tx.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		chain, advisories, err := walkChain(ctx, tx.Collections, finalID)
		if err != nil {
			return err
		}

		estimates := make([]int, len(chain))
		for i, c := range chain {
			items, err := tx.Items.FindByCollection(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("failed to load items of collection %s: %w", c.ID, err)
			}
			estimates[i] = EstimateDaysToThreshold(c, items, target, now, p.rewards)
		}

		plan = apportion(chain, estimates, targetDate, now, loc)
		plan.Advisories = append(advisories, plan.Advisories...)

		for i, c := range chain {
			deadline := plan.Links[i].Deadline
			c.Deadline = &deadline
			c.UpdatedAt = now
			if err := tx.Collections.Update(ctx, c); err != nil {
				return fmt.Errorf("failed to store deadline for collection %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to allocate chain deadlines",
			slog.String("final_collection_id", finalID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("allocated chain deadlines",
		slog.String("final_collection_id", finalID.String()),
		slog.Int("links", len(plan.Links)),
		slog.Int("total_estimate", plan.TotalEstimate),
		slog.Int("available_days", plan.AvailableDays),
		slog.Int("advisories", len(plan.Advisories)))
	return plan, nil
}

// walkChain follows predecessors from finalID and returns the chain root
// first. The final collection must exist; a broken or cyclic chain is cut at
// the offending link.
func walkChain(ctx context.Context, cs store.CollectionStore, finalID uuid.UUID) ([]*domain.Collection, []domain.Advisory, error) {
	final, err := cs.Get(ctx, finalID)
	if err != nil {
		return nil, nil, err
	}

	var advisories []domain.Advisory
	chain := []*domain.Collection{final}
	visited := map[uuid.UUID]struct{}{final.ID: {}}

	for cur := final; cur.PredecessorID != nil; {
		predID := *cur.PredecessorID
		if _, seen := visited[predID]; seen {
			advisories = append(advisories, domain.Advisory{
				Code:    domain.AdvisoryChainCycle,
				Message: fmt.Sprintf("prerequisite chain loops back to %q; earlier links ignored", cur.Title),
			})
			break
		}
		pred, err := cs.Get(ctx, predID)
		if err != nil {
			if !store.IsNotFoundError(err) {
				return nil, nil, err
			}
			advisories = append(advisories, domain.Advisory{
				Code:    domain.AdvisoryMissingLink,
				Message: fmt.Sprintf("prerequisite of %q no longer exists; chain starts there", cur.Title),
			})
			break
		}
		visited[predID] = struct{}{}
		chain = append(chain, pred)
		cur = pred
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, advisories, nil
}

// apportion assigns each link its share of the available days, in order from
// today. The last link is pinned to targetDate and no deadline falls after it.
func apportion(chain []*domain.Collection, estimates []int, targetDate, now time.Time, loc *time.Location) *ChainPlan {
	today := domain.DayOf(now, loc)
	targetDay := domain.DayOf(targetDate, loc)
	available := today.DaysUntil(targetDay)

	plan := &ChainPlan{
		Links:      make([]ChainLink, len(chain)),
		TargetDate: targetDate,
	}
	for _, e := range estimates {
		plan.TotalEstimate += e
	}

	if available < 0 {
		plan.Advisories = append(plan.Advisories, domain.Advisory{
			Code:    domain.AdvisoryDeadlinePassed,
			Message: fmt.Sprintf("target date %s is already past", targetDay),
		})
		available = 0
	}
	plan.AvailableDays = available

	if plan.TotalEstimate > available {
		plan.Advisories = append(plan.Advisories, domain.Advisory{
			Code: domain.AdvisoryDeadlineTight,
			Message: fmt.Sprintf("chain needs about %d days but only %d remain",
				plan.TotalEstimate, available),
		})
	}

	cursor := today
	for i, c := range chain {
		link := ChainLink{CollectionID: c.ID, Title: c.Title, EstimatedDays: estimates[i]}
		remaining := max(0, cursor.DaysUntil(targetDay))

		if i == len(chain)-1 {
			link.AllocatedDays = remaining
			link.Deadline = targetDate
			plan.Links[i] = link
			break
		}

		var share int
		if plan.TotalEstimate == 0 {
			share = available / len(chain)
		} else {
			share = available * estimates[i] / plan.TotalEstimate
		}
		// At least one day per link while days remain; never past the target.
		share = min(max(1, share), remaining)

		cursor = cursor.AddDays(share)
		link.AllocatedDays = share
		// Keep the target's time of day on every intermediate deadline.
		link.Deadline = targetDate.In(loc).AddDate(0, 0, -max(0, cursor.DaysUntil(targetDay)))
		plan.Links[i] = link
	}

	return plan
}
