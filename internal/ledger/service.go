package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/store"
)

// RolloverResult reports what a rollover call did.
type RolloverResult struct {
	Day        domain.Day          `json:"day"`
	RolledOver bool                `json:"rolled_over"`
	Entry      *domain.LedgerEntry `json:"entry"`
}

// Service exposes the ledger operations that run in their own transaction.
type Service struct {
	tx     store.TxRunner
	policy Policy
	logger *slog.Logger
}

// NewService creates a ledger service.
func NewService(tx store.TxRunner, policy Policy, log *slog.Logger) (*Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		tx:     tx,
		policy: policy,
		logger: log.With(slog.String("component", "ledger_service")),
	}, nil
}

// Policy returns the seeding policy, for callers that run ledger helpers in
// their own transactions.
func (s *Service) Policy() Policy {
	return s.policy
}

// Rollover opens the ledger entry for the local calendar day of now, at most
// once per day. Repeated calls on the same day are no-ops.
func (s *Service) Rollover(ctx context.Context, now time.Time, loc *time.Location) (*RolloverResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	day := domain.DayOf(now, loc)
	result := &RolloverResult{Day: day}

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		settings, err := LoadSettings(ctx, tx, s.policy, now)
		if err != nil {
			return err
		}
		result.RolledOver = !settings.RolledOverOn(day)

		entry, err := EnsureDay(ctx, tx, s.policy, day, now)
		if err != nil {
			return err
		}
		result.Entry = entry
		return nil
	})
	if err != nil {
		log.Error("ledger rollover failed",
			slog.String("day", string(day)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("rollover for %s: %w", day, err)
	}

	if result.RolledOver {
		log.Info("ledger rolled over",
			slog.String("day", string(day)),
			slog.Int("target", result.Entry.TargetReward),
			slog.Int("balance", result.Entry.Balance))
	}
	return result, nil
}

// Today returns the entry for the local day of now, opening it if needed.
func (s *Service) Today(ctx context.Context, now time.Time, loc *time.Location) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	day := domain.DayOf(now, loc)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		var err error
		entry, err = EnsureDay(ctx, tx, s.policy, day, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ledger entry for %s: %w", day, err)
	}
	return entry, nil
}

// History returns entries between from and to inclusive.
func (s *Service) History(ctx context.Context, from, to domain.Day) ([]*domain.LedgerEntry, error) {
	entries, err := s.tx.Stores().Ledger.Range(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger history %s..%s: %w", from, to, err)
	}
	return entries, nil
}

// SetDailyTarget changes the target used for days opened from now on.
func (s *Service) SetDailyTarget(ctx context.Context, target int, now time.Time) (*domain.Settings, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: daily target must be positive", domain.ErrValidation)
	}
	var out *domain.Settings
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		settings, err := LoadSettings(ctx, tx, s.policy, now)
		if err != nil {
			return err
		}
		settings.DailyTargetReward = target
		settings.UpdatedAt = now
		out = settings
		return tx.Settings.Save(ctx, settings)
	})
	if err != nil {
		return nil, fmt.Errorf("set daily target: %w", err)
	}
	return out, nil
}
