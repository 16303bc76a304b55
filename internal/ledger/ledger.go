// Package ledger maintains the per-day reward account: opening a day with
// the configured target, crediting earned reward and rolling the balance
// over to the next calendar day.
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

// DefaultTargetReward is the daily target seeded into Settings on first use.
const DefaultTargetReward = 500

// ErrInvalidAmount is returned when a credit is negative.
var ErrInvalidAmount = errors.New("credit amount cannot be negative")

// Policy holds the values used to seed Settings.
type Policy struct {
	DefaultTarget int
}

// OpenDay returns a fresh entry for day. The running balance carries over
// from previous (nil means no history) and is debited by the day's target.
func OpenDay(settings *domain.Settings, previous *domain.LedgerEntry, day domain.Day, now time.Time) *domain.LedgerEntry {
	balance := 0
	if previous != nil {
		balance = previous.Balance
	}
	return &domain.LedgerEntry{
		Day:          day,
		TargetReward: settings.DailyTargetReward,
		Balance:      balance - settings.DailyTargetReward,
		UpdatedAt:    now,
	}
}

// LoadSettings locks and returns the settings, seeding them from policy on
// first use.
func LoadSettings(ctx context.Context, s store.Stores, policy Policy, now time.Time) (*domain.Settings, error) {
	settings, err := s.Settings.GetForUpdate(ctx)
	if err == nil {
		return settings, nil
	}
	if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	target := policy.DefaultTarget
	if target <= 0 {
		target = DefaultTargetReward
	}
	settings = &domain.Settings{DailyTargetReward: target, UpdatedAt: now}
	if err := s.Settings.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}
	return settings, nil
}

// EnsureDay returns the entry for day, opening it if absent. Opening a day
// later than the last rollover advances Settings.LastRolloverDay. Must run
// inside a transaction.
func EnsureDay(ctx context.Context, s store.Stores, policy Policy, day domain.Day, now time.Time) (*domain.LedgerEntry, error) {
	settings, err := LoadSettings(ctx, s, policy, now)
	if err != nil {
		return nil, err
	}

	entry, err := s.Ledger.Get(ctx, day)
	if err == nil {
		return entry, nil
	}
	if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to load ledger entry for %s: %w", day, err)
	}

	previous, err := s.Ledger.LatestBefore(ctx, day)
	if err != nil {
		if !store.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load previous ledger entry: %w", err)
		}
		previous = nil
	}

	entry = OpenDay(settings, previous, day, now)
	if err := s.Ledger.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to open ledger day %s: %w", day, err)
	}

	if day > settings.LastRolloverDay {
		settings.LastRolloverDay = day
		settings.UpdatedAt = now
		if err := s.Settings.Save(ctx, settings); err != nil {
			return nil, fmt.Errorf("failed to record rollover: %w", err)
		}
	}

	logger.FromContext(ctx).Debug("opened ledger day",
		slog.String("day", string(day)),
		slog.Int("target", entry.TargetReward),
		slog.Int("balance", entry.Balance))

	return entry, nil
}

// Credit adds amount to the entry for day, opening the day first if needed.
// Must run inside a transaction.
func Credit(ctx context.Context, s store.Stores, policy Policy, day domain.Day, amount int, now time.Time) (*domain.LedgerEntry, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	entry, err := EnsureDay(ctx, s, policy, day, now)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return entry, nil
	}

	entry.Credit(amount, now)
	if err := s.Ledger.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to credit ledger day %s: %w", day, err)
	}
	return entry, nil
}
