package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
)

const ledgerColumns = `day, target_reward, earned_reward, balance, updated_at`

type ledgerRow struct {
	Day          string    `db:"day"`
	TargetReward int       `db:"target_reward"`
	EarnedReward int       `db:"earned_reward"`
	Balance      int       `db:"balance"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *ledgerRow) toDomain() *domain.LedgerEntry {
	return &domain.LedgerEntry{
		Day:          domain.Day(r.Day),
		TargetReward: r.TargetReward,
		EarnedReward: r.EarnedReward,
		Balance:      r.Balance,
		UpdatedAt:    r.UpdatedAt,
	}
}

type ledgerStore struct{ q querier }

var _ store.LedgerStore = (*ledgerStore)(nil)

func (s *ledgerStore) one(ctx context.Context, what string, query string, day domain.Day) (*domain.LedgerEntry, error) {
	var row ledgerRow
	if err := s.q.get(ctx, &row, query, string(day)); err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s%s", store.ErrLedgerEntryNotFound, what, day)
		}
		return nil, store.NewStoreError("ledger_entry", "get", "failed to load ledger entry", err)
	}
	return row.toDomain(), nil
}

func (s *ledgerStore) Get(ctx context.Context, day domain.Day) (*domain.LedgerEntry, error) {
	return s.one(ctx, "", `SELECT `+ledgerColumns+` FROM ledger_entries WHERE day = ?`, day)
}

func (s *ledgerStore) LatestBefore(ctx context.Context, day domain.Day) (*domain.LedgerEntry, error) {
	return s.one(ctx, "before ", `
		SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE day < ?
		ORDER BY day DESC
		LIMIT 1`, day)
}

func (s *ledgerStore) Upsert(ctx context.Context, entry *domain.LedgerEntry) error {
	_, err := s.q.exec(ctx, `
		INSERT INTO ledger_entries (`+ledgerColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (day) DO UPDATE SET
			target_reward = excluded.target_reward,
			earned_reward = excluded.earned_reward,
			balance = excluded.balance,
			updated_at = excluded.updated_at`,
		string(entry.Day),
		entry.TargetReward,
		entry.EarnedReward,
		entry.Balance,
		utc(entry.UpdatedAt),
	)
	if err != nil {
		return store.NewStoreError("ledger_entry", "upsert", "failed to write ledger entry", err)
	}
	return nil
}

func (s *ledgerStore) Range(ctx context.Context, from, to domain.Day) ([]*domain.LedgerEntry, error) {
	var rows []ledgerRow
	err := s.q.selectAll(ctx, &rows, `
		SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE day >= ? AND day <= ?
		ORDER BY day`, string(from), string(to))
	if err != nil {
		return nil, store.NewStoreError("ledger_entry", "range", "failed to list ledger entries", err)
	}
	out := make([]*domain.LedgerEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// settingsID is the key of the single settings row.
const settingsID = 1

type settingsRow struct {
	DailyTargetReward int       `db:"daily_target_reward"`
	LastRolloverDay   string    `db:"last_rollover_day"`
	UpdatedAt         time.Time `db:"updated_at"`
}

type settingsStore struct{ q querier }

var _ store.SettingsStore = (*settingsStore)(nil)

const selectSettings = `SELECT daily_target_reward, last_rollover_day, updated_at FROM settings WHERE id = ?`

func (s *settingsStore) get(ctx context.Context, query string) (*domain.Settings, error) {
	var row settingsRow
	if err := s.q.get(ctx, &row, query, settingsID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrSettingsNotFound
		}
		return nil, store.NewStoreError("settings", "get", "failed to load settings", err)
	}
	return &domain.Settings{
		DailyTargetReward: row.DailyTargetReward,
		LastRolloverDay:   domain.Day(row.LastRolloverDay),
		UpdatedAt:         row.UpdatedAt,
	}, nil
}

func (s *settingsStore) Get(ctx context.Context) (*domain.Settings, error) {
	return s.get(ctx, selectSettings)
}

func (s *settingsStore) GetForUpdate(ctx context.Context) (*domain.Settings, error) {
	return s.get(ctx, s.q.forUpdate(selectSettings))
}

func (s *settingsStore) Save(ctx context.Context, settings *domain.Settings) error {
	_, err := s.q.exec(ctx, `
		INSERT INTO settings (id, daily_target_reward, last_rollover_day, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			daily_target_reward = excluded.daily_target_reward,
			last_rollover_day = excluded.last_rollover_day,
			updated_at = excluded.updated_at`,
		settingsID,
		settings.DailyTargetReward,
		string(settings.LastRolloverDay),
		utc(settings.UpdatedAt),
	)
	if err != nil {
		return store.NewStoreError("settings", "save", "failed to save settings", err)
	}
	return nil
}
