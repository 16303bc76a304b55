package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
	"github.com/phrazzld/scry-engine/internal/store/memstore"
)

var (
	testNow    = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	testPolicy = Policy{DefaultTarget: 500}
)

func TestOpenDay(t *testing.T) {
	t.Parallel()

	settings := &domain.Settings{DailyTargetReward: 400}

	first := OpenDay(settings, nil, "2024-06-03", testNow)
	assert.Equal(t, 400, first.TargetReward)
	assert.Equal(t, -400, first.Balance)
	assert.Zero(t, first.EarnedReward)

	prev := &domain.LedgerEntry{Day: "2024-06-01", Balance: 150}
	next := OpenDay(settings, prev, "2024-06-03", testNow)
	assert.Equal(t, -250, next.Balance)
	assert.Equal(t, domain.Day("2024-06-03"), next.Day)
}

func TestCredit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()

	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		entry, err := Credit(ctx, tx, testPolicy, "2024-06-03", 95, testNow)
		require.NoError(t, err)
		assert.Equal(t, 95, entry.EarnedReward)
		assert.Equal(t, -405, entry.Balance)

		entry, err = Credit(ctx, tx, testPolicy, "2024-06-03", 30, testNow)
		require.NoError(t, err)
		assert.Equal(t, 125, entry.EarnedReward)
		assert.Equal(t, -375, entry.Balance)

		_, err = Credit(ctx, tx, testPolicy, "2024-06-03", -1, testNow)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		return nil
	})
	require.NoError(t, err)

	settings, err := s.Stores().Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500, settings.DailyTargetReward)
	assert.Equal(t, domain.Day("2024-06-03"), settings.LastRolloverDay)
}

func TestRolloverIsIdempotentPerDay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	svc, err := NewService(s, testPolicy, nil)
	require.NoError(t, err)

	first, err := svc.Rollover(ctx, testNow, time.UTC)
	require.NoError(t, err)
	assert.True(t, first.RolledOver)
	assert.Equal(t, -500, first.Entry.Balance)

	again, err := svc.Rollover(ctx, testNow.Add(3*time.Hour), time.UTC)
	require.NoError(t, err)
	assert.False(t, again.RolledOver)
	assert.Equal(t, first.Entry, again.Entry)

	entries, err := svc.History(ctx, "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRolloverCarriesBalanceOncePerRollover(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	svc, err := NewService(s, testPolicy, nil)
	require.NoError(t, err)

	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx store.Stores) error {
		_, err := Credit(ctx, tx, testPolicy, domain.DayOf(testNow, time.UTC), 620, testNow)
		return err
	}))

	// Three days pass without activity; the next rollover debits one target.
	later := testNow.AddDate(0, 0, 3)
	result, err := svc.Rollover(ctx, later, time.UTC)
	require.NoError(t, err)
	assert.True(t, result.RolledOver)
	assert.Equal(t, domain.Day("2024-06-06"), result.Day)
	assert.Equal(t, 120-500, result.Entry.Balance)
}

func TestRolloverUsesLocalDay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, err := NewService(memstore.New(), testPolicy, nil)
	require.NoError(t, err)

	ahead := time.FixedZone("UTC+10", 10*60*60)
	lateUTC := time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC)

	result, err := svc.Rollover(ctx, lateUTC, ahead)
	require.NoError(t, err)
	assert.Equal(t, domain.Day("2024-06-04"), result.Day)
}

func TestSetDailyTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, err := NewService(memstore.New(), testPolicy, nil)
	require.NoError(t, err)

	settings, err := svc.SetDailyTarget(ctx, 800, testNow)
	require.NoError(t, err)
	assert.Equal(t, 800, settings.DailyTargetReward)

	today, err := svc.Today(ctx, testNow, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 800, today.TargetReward)

	_, err = svc.SetDailyTarget(ctx, 0, testNow)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRolloverRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	svc, err := NewService(s, testPolicy, nil)
	require.NoError(t, err)

	s.InjectFault(memstore.OpLedgerUpsert, 0, nil)
	_, err = svc.Rollover(ctx, testNow, time.UTC)
	assert.ErrorIs(t, err, memstore.ErrInjected)

	_, err = s.Stores().Settings.Get(ctx)
	assert.ErrorIs(t, err, store.ErrSettingsNotFound, "seeded settings must roll back too")
}
