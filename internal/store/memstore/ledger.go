package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

type ledgerStore struct{ v *view }

var _ store.LedgerStore = (*ledgerStore)(nil)

func (s *ledgerStore) Get(_ context.Context, day domain.Day) (*domain.LedgerEntry, error) {
	var out *domain.LedgerEntry
	err := s.v.read(OpLedgerGet, func(st *state) error {
		e, ok := st.ledger[day]
		if !ok {
			return fmt.Errorf("%w: %s", store.ErrLedgerEntryNotFound, day)
		}
		out = &e
		return nil
	})
	return out, err
}

// LatestBefore compares days as strings; YYYY-MM-DD sorts chronologically.
func (s *ledgerStore) LatestBefore(_ context.Context, day domain.Day) (*domain.LedgerEntry, error) {
	var out *domain.LedgerEntry
	err := s.v.read(OpLedgerGet, func(st *state) error {
		for d, e := range st.ledger {
			if d < day && (out == nil || d > out.Day) {
				out = &e
			}
		}
		if out == nil {
			return fmt.Errorf("%w: before %s", store.ErrLedgerEntryNotFound, day)
		}
		return nil
	})
	return out, err
}

func (s *ledgerStore) Upsert(_ context.Context, entry *domain.LedgerEntry) error {
	if entry.Day.IsZero() {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidDay)
	}
	return s.v.write(OpLedgerUpsert, func(st *state) error {
		st.ledger[entry.Day] = *entry
		return nil
	})
}

func (s *ledgerStore) Range(_ context.Context, from, to domain.Day) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	err := s.v.read(OpLedgerGet, func(st *state) error {
		for d, e := range st.ledger {
			if d >= from && d <= to {
				out = append(out, &e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, err
}

type settingsStore struct{ v *view }

var _ store.SettingsStore = (*settingsStore)(nil)

func (s *settingsStore) Get(_ context.Context) (*domain.Settings, error) {
	var out *domain.Settings
	err := s.v.read(OpSettingsGet, func(st *state) error {
		if st.settings == nil {
			return store.ErrSettingsNotFound
		}
		settings := *st.settings
		out = &settings
		return nil
	})
	return out, err
}

func (s *settingsStore) GetForUpdate(ctx context.Context) (*domain.Settings, error) {
	return s.Get(ctx)
}

func (s *settingsStore) Save(_ context.Context, settings *domain.Settings) error {
	return s.v.write(OpSettingsSave, func(st *state) error {
		saved := *settings
		st.settings = &saved
		return nil
	})
}
