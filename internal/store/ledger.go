package store

import (
	"context"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// LedgerStore persists one reward ledger entry per calendar day.
type LedgerStore interface {
	// Get returns the entry for day or ErrLedgerEntryNotFound.
	Get(ctx context.Context, day domain.Day) (*domain.LedgerEntry, error)

	// LatestBefore returns the most recent entry strictly before day, or
	// ErrLedgerEntryNotFound when there is no history.
	LatestBefore(ctx context.Context, day domain.Day) (*domain.LedgerEntry, error)

	// Upsert inserts the entry or replaces the existing entry for its day.
	Upsert(ctx context.Context, entry *domain.LedgerEntry) error

	// Range returns entries with from <= day <= to in ascending order.
	Range(ctx context.Context, from, to domain.Day) ([]*domain.LedgerEntry, error)
}

// SettingsStore persists the single settings record.
type SettingsStore interface {
	// Get returns the settings or ErrSettingsNotFound before seeding.
	Get(ctx context.Context) (*domain.Settings, error)

	// GetForUpdate is Get plus a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context) (*domain.Settings, error)

	// Save inserts or replaces the settings record.
	Save(ctx context.Context, s *domain.Settings) error
}
