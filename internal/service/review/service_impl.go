package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/reward"
	"github.com/phrazzld/scry-engine/internal/domain/srs"
	"github.com/phrazzld/scry-engine/internal/ledger"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// Config carries the values the review service reads.
type Config struct {
	Rewards  *reward.Table
	Policy   ledger.Policy
	Location *time.Location // calendar used for ledger days; UTC if nil
}

type serviceImpl struct {
	tx       store.TxRunner
	srs      srs.Service
	rewards  *reward.Table
	policy   ledger.Policy
	location *time.Location
	logger   *slog.Logger
}

// NewService creates a review Service.
func NewService(tx store.TxRunner, srsService srs.Service, cfg Config, log *slog.Logger) (Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner cannot be nil")
	}
	if srsService == nil {
		return nil, errors.New("srs service cannot be nil")
	}
	if cfg.Rewards == nil {
		cfg.Rewards = reward.DefaultTable()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}

	return &serviceImpl{
		tx:       tx,
		srs:      srsService,
		rewards:  cfg.Rewards,
		policy:   cfg.Policy,
		location: cfg.Location,
		logger:   log.With(slog.String("component", "review_service")),
	}, nil
}

// ProcessReview implements Service.
func (s *serviceImpl) ProcessReview(
	ctx context.Context,
	item *domain.Item,
	rating domain.Rating,
	mode domain.Mode,
	now time.Time,
) (*Result, error) {
	if item == nil {
		return nil, srs.ErrNilItem
	}
	if err := checkInputs(mode, rating); err != nil {
		return nil, err
	}
	return s.record(ctx, "process_review", item.Key(), rating, &mode, now)
}

// Review implements Service.
func (s *serviceImpl) Review(ctx context.Context, key domain.ItemKey, rating domain.Rating, now time.Time) (*Result, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %d", srs.ErrInvalidRating, int(rating))
	}
	return s.record(ctx, "review", key, rating, nil, now)
}

// record runs a single review. A nil mode is resolved from the collection.
func (s *serviceImpl) record(
	ctx context.Context,
	operation string,
	key domain.ItemKey,
	rating domain.Rating,
	mode *domain.Mode,
	now time.Time,
) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing review",
		slog.String("item", key.String()),
		slog.String("rating", rating.String()))

	var result *Result
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		current, err := lockItem(ctx, tx, key)
		if err != nil {
			return err
		}

		m := domain.Mode("")
		if mode != nil {
			m = *mode
		} else {
			c, err := tx.Collections.Get(ctx, key.CollectionID)
			if err != nil {
				return fmt.Errorf("failed to load collection: %w", err)
			}
			m = c.Mode
		}

		r, err := s.apply(current, rating, m, now)
		if err != nil {
			return err
		}

		if err := tx.Items.Update(ctx, r.Item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		if r.Reward > 0 {
			r.Ledger, err = ledger.Credit(ctx, tx, s.policy, domain.DayOf(now, s.location), r.Reward, now)
			if err != nil {
				return fmt.Errorf("failed to credit reward: %w", err)
			}
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, s.fail(log, operation, err, slog.String("item", key.String()))
	}

	log.Info("review recorded",
		slog.String("item", key.String()),
		slog.String("rating", rating.String()),
		slog.String("state", result.Item.State.String()),
		slog.Int("scheduled_days", result.Item.ScheduledDays),
		slog.Int("reward", result.Reward))
	return result, nil
}

// ProcessBatchReview implements Service.
func (s *serviceImpl) ProcessBatchReview(
	ctx context.Context,
	items []*domain.Item,
	ratings []domain.Rating,
	mode domain.Mode,
	now time.Time,
) (*BatchResult, error) {
	if len(items) != len(ratings) {
		return nil, fmt.Errorf("%w: %d items, %d ratings", ErrBatchLengthMismatch, len(items), len(ratings))
	}
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("%w: index %d", srs.ErrNilItem, i)
		}
		if err := checkInputs(mode, ratings[i]); err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		return &BatchResult{Items: []*domain.Item{}}, nil
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	var result *BatchResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		out := &BatchResult{Items: make([]*domain.Item, len(items))}
		// Latest state per key, so repeated items chain their reviews.
		latest := make(map[domain.ItemKey]*domain.Item, len(items))

		for i, item := range items {
			key := item.Key()
			current, ok := latest[key]
			if !ok {
				var err error
				current, err = lockItem(ctx, tx, key)
				if err != nil {
					return err
				}
			}

			r, err := s.apply(current, ratings[i], mode, now)
			if err != nil {
				return err
			}
			latest[key] = r.Item
			out.Items[i] = r.Item
			out.Reward += r.Reward
		}

		updates := make([]*domain.Item, 0, len(latest))
		seen := make(map[domain.ItemKey]bool, len(latest))
		for _, item := range out.Items {
			if key := item.Key(); !seen[key] {
				seen[key] = true
				updates = append(updates, latest[key])
			}
		}
		if err := tx.Items.UpdateMany(ctx, updates); err != nil {
			return fmt.Errorf("failed to update items: %w", err)
		}

		if out.Reward > 0 {
			var err error
			out.Ledger, err = ledger.Credit(ctx, tx, s.policy, domain.DayOf(now, s.location), out.Reward, now)
			if err != nil {
				return fmt.Errorf("failed to credit reward: %w", err)
			}
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "process_batch_review", err, slog.Int("batch_size", len(items)))
	}

	log.Info("review batch recorded",
		slog.Int("batch_size", len(items)),
		slog.Int("reward", result.Reward))
	return result, nil
}

// apply runs the scheduler and prices the review from the pre-review state.
func (s *serviceImpl) apply(current *domain.Item, rating domain.Rating, mode domain.Mode, now time.Time) (*Result, error) {
	ret := s.srs.Retrievability(current, now)
	next, err := s.srs.Review(current, rating, now)
	if err != nil {
		return nil, err
	}
	return &Result{
		Item:           next,
		Rating:         rating,
		Retrievability: ret,
		Reward:         s.rewards.ForRating(rating, mode, current.Difficulty, ret),
	}, nil
}

// fail logs err and returns it unchanged for programmer errors, or wrapped in
// ErrReviewNotRecorded otherwise.
func (s *serviceImpl) fail(log *slog.Logger, operation string, err error, attrs ...any) error {
	if errors.Is(err, domain.ErrProgrammer) {
		log.Warn("rejected review", append(attrs, slog.String("error", err.Error()))...)
		return err
	}
	log.Error("review rolled back", append(attrs, slog.String("error", err.Error()))...)
	return notRecorded(operation, err)
}

func lockItem(ctx context.Context, tx store.Stores, key domain.ItemKey) (*domain.Item, error) {
	item, err := tx.Items.GetForUpdate(ctx, key)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, key)
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return item, nil
}

func checkInputs(mode domain.Mode, rating domain.Rating) error {
	if !rating.IsValid() {
		return fmt.Errorf("%w: %d", srs.ErrInvalidRating, int(rating))
	}
	if !mode.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	return nil
}
