package review

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/srs"
	"github.com/phrazzld/scry-engine/internal/ledger"
	"github.com/phrazzld/scry-engine/internal/store/memstore"
)

var testNow = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store      *memstore.Store
	svc        Service
	collection *domain.Collection
}

func newFixture(t *testing.T, mode domain.Mode) *fixture {
	t.Helper()

	s := memstore.New()
	svc, err := NewService(s, srs.NewDefaultService(), Config{
		Policy: ledger.Policy{DefaultTarget: 500},
	}, nil)
	require.NoError(t, err)

	c, err := domain.NewCollection("Linear Algebra", mode, 40, 4, testNow.AddDate(0, -1, 0))
	require.NoError(t, err)
	require.NoError(t, s.Stores().Collections.Create(context.Background(), c))

	return &fixture{store: s, svc: svc, collection: c}
}

// reviewedItem is in Review with S=4, D=6 and was last seen ten days before
// testNow, so its retrievability is 1/(1+10/36).
func (f *fixture) reviewedItem(t *testing.T, ordinal int) *domain.Item {
	t.Helper()

	last := testNow.AddDate(0, 0, -10)
	item := &domain.Item{
		CollectionID:   f.collection.ID,
		Ordinal:        ordinal,
		State:          domain.StateReview,
		Stability:      4,
		Difficulty:     6,
		ScheduledDays:  4,
		Repetitions:    3,
		Due:            last.AddDate(0, 0, 4),
		LastReviewedAt: &last,
		CreatedAt:      last.AddDate(0, 0, -5),
		UpdatedAt:      last,
	}
	require.NoError(t, f.store.Stores().Items.Create(context.Background(), item))
	return item
}

func TestProcessReview_CreditsRewardForRecall(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ModeSolve)
	item := f.reviewedItem(t, 0)

	result, err := f.svc.ProcessReview(ctx, item, domain.Good, domain.ModeSolve, testNow)
	require.NoError(t, err)

	assert.InDelta(t, 0.7826, result.Retrievability, 1e-4)
	assert.Equal(t, 95, result.Reward)
	require.NotNil(t, result.Ledger)
	assert.Equal(t, 95, result.Ledger.EarnedReward)
	assert.Equal(t, -405, result.Ledger.Balance)

	assert.Equal(t, domain.StateReview, result.Item.State)
	assert.Equal(t, 4, result.Item.Repetitions)
	assert.Greater(t, result.Item.Stability, 4.0)

	stored, err := f.store.Stores().Items.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, result.Item.Stability, stored.Stability)
	assert.Equal(t, 1, f.store.Commits())

	entry, err := f.store.Stores().Ledger.Get(ctx, "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, 95, entry.EarnedReward)
}

func TestProcessReview_NoRewardForFailedRecall(t *testing.T) {
	t.Parallel()

	for _, rating := range []domain.Rating{domain.Again, domain.Hard} {
		t.Run(rating.String(), func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			f := newFixture(t, domain.ModeRead)
			item := f.reviewedItem(t, 0)

			result, err := f.svc.ProcessReview(ctx, item, rating, domain.ModeRead, testNow)
			require.NoError(t, err)
			assert.Zero(t, result.Reward)
			assert.Nil(t, result.Ledger)

			_, err = f.store.Stores().Ledger.Get(ctx, "2024-06-03")
			assert.Error(t, err)
		})
	}
}

func TestProcessReview_AgainLapses(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ModeMemorize)
	item := f.reviewedItem(t, 0)

	result, err := f.svc.ProcessReview(context.Background(), item, domain.Again, domain.ModeMemorize, testNow)
	require.NoError(t, err)
	assert.Equal(t, domain.StateRelearning, result.Item.State)
	assert.Equal(t, 1, result.Item.Lapses)
	assert.Equal(t, testNow.Add(time.Minute), result.Item.Due)
}

func TestProcessReview_RollsBackWhenLedgerWriteFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ModeSolve)
	item := f.reviewedItem(t, 0)
	f.store.InjectFault(memstore.OpLedgerUpsert, 0, nil)

	_, err := f.svc.ProcessReview(ctx, item, domain.Good, domain.ModeSolve, testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReviewNotRecorded)
	assert.ErrorIs(t, err, memstore.ErrInjected)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "process_review", svcErr.Operation)

	stored, err := f.store.Stores().Items.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Repetitions)
	assert.Equal(t, 4.0, stored.Stability)
	assert.Zero(t, f.store.Commits())
}

func TestProcessReview_RollsBackWhenCommitFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ModeSolve)
	item := f.reviewedItem(t, 0)
	f.store.InjectFault(memstore.OpCommit, 0, nil)

	_, err := f.svc.ProcessReview(ctx, item, domain.Easy, domain.ModeSolve, testNow)
	assert.ErrorIs(t, err, ErrReviewNotRecorded)

	stored, err := f.store.Stores().Items.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Repetitions)
}

func TestProcessReview_ProgrammerErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ModeRead)
	item := f.reviewedItem(t, 0)
	missing := &domain.Item{CollectionID: f.collection.ID, Ordinal: 99}

	tests := []struct {
		name   string
		item   *domain.Item
		rating domain.Rating
		mode   domain.Mode
		want   error
	}{
		{name: "nil item", item: nil, rating: domain.Good, mode: domain.ModeRead, want: srs.ErrNilItem},
		{name: "rating out of range", item: item, rating: domain.Rating(7), mode: domain.ModeRead, want: domain.ErrInvalidRating},
		{name: "unknown mode", item: item, rating: domain.Good, mode: "watch", want: domain.ErrInvalidMode},
		{name: "missing item", item: missing, rating: domain.Good, mode: domain.ModeRead, want: ErrItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ProcessReview(context.Background(), tt.item, tt.rating, tt.mode, testNow)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrProgrammer)
			assert.NotErrorIs(t, err, ErrReviewNotRecorded)
		})
	}
}

func TestReview_UsesCollectionMode(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ModeSolve)
	item := f.reviewedItem(t, 2)

	result, err := f.svc.Review(context.Background(), item.Key(), domain.Good, testNow)
	require.NoError(t, err)
	assert.Equal(t, 95, result.Reward)
}

func TestProcessBatchReview(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ModeSolve)
	a := f.reviewedItem(t, 0)
	b := f.reviewedItem(t, 1)

	result, err := f.svc.ProcessBatchReview(ctx,
		[]*domain.Item{a, b},
		[]domain.Rating{domain.Good, domain.Again},
		domain.ModeSolve, testNow)
	require.NoError(t, err)

	assert.Equal(t, 95, result.Reward)
	require.Len(t, result.Items, 2)
	assert.Equal(t, domain.StateReview, result.Items[0].State)
	assert.Equal(t, domain.StateRelearning, result.Items[1].State)
	require.NotNil(t, result.Ledger)
	assert.Equal(t, 95, result.Ledger.EarnedReward)
	assert.Equal(t, 1, f.store.Commits())
}

func TestProcessBatchReview_RepeatedItemChains(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ModeRead)
	a := f.reviewedItem(t, 0)

	result, err := f.svc.ProcessBatchReview(ctx,
		[]*domain.Item{a, a},
		[]domain.Rating{domain.Again, domain.Good},
		domain.ModeRead, testNow)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Items[1].Repetitions)
	stored, err := f.store.Stores().Items.Get(ctx, a.Key())
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Repetitions)
	assert.Equal(t, 1, stored.Lapses)
}

func TestProcessBatchReview_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ModeRead)
	a := f.reviewedItem(t, 0)

	_, err := f.svc.ProcessBatchReview(context.Background(),
		[]*domain.Item{a}, nil, domain.ModeRead, testNow)
	assert.ErrorIs(t, err, ErrBatchLengthMismatch)
	assert.ErrorIs(t, err, domain.ErrProgrammer)

	empty, err := f.svc.ProcessBatchReview(context.Background(), nil, nil, domain.ModeRead, testNow)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Zero(t, f.store.Commits())
}

func TestProcessBatchReview_AllOrNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, domain.ModeRead)
	a := f.reviewedItem(t, 0)
	b := f.reviewedItem(t, 1)
	f.store.InjectFault(memstore.OpItemUpdate, 1, nil)

	_, err := f.svc.ProcessBatchReview(ctx,
		[]*domain.Item{a, b},
		[]domain.Rating{domain.Good, domain.Good},
		domain.ModeRead, testNow)
	assert.ErrorIs(t, err, ErrReviewNotRecorded)

	stored, err := f.store.Stores().Items.Get(ctx, a.Key())
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Repetitions)
}

func TestNewService_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, srs.NewDefaultService(), Config{}, nil)
	assert.Error(t, err)
	_, err = NewService(memstore.New(), nil, Config{}, nil)
	assert.Error(t, err)
}

// corruptingScheduler hands the scheduler a copy of the stored item with a
// negative difficulty, as a damaged row would read back.
type corruptingScheduler struct {
	srs.Service
}

func (c corruptingScheduler) Review(item *domain.Item, rating domain.Rating, now time.Time) (*domain.Item, error) {
	bad := *item
	bad.Difficulty = -1
	return c.Service.Review(&bad, rating, now)
}

func TestProcessReview_InvalidStoredItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t, domain.ModeRead)
	item := f.reviewedItem(t, 0)
	svc, err := NewService(f.store, corruptingScheduler{srs.NewDefaultService()}, Config{
		Policy: ledger.Policy{DefaultTarget: 500},
	}, nil)
	require.NoError(t, err)

	_, err = svc.ProcessReview(context.Background(), item, domain.Good, domain.ModeRead, testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProgrammer)
	assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
	assert.NotErrorIs(t, err, ErrReviewNotRecorded)
	assert.Zero(t, f.store.Commits())
}

func TestReview_ConcurrentReviewsOfOneItem(t *testing.T) {
	t.Parallel()

	const workers = 8

	ctx := context.Background()
	f := newFixture(t, domain.ModeRead)
	item := f.reviewedItem(t, 0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		rewards int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.svc.Review(ctx, item.Key(), domain.Good, testNow)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			rewards += result.Reward
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, workers, f.store.Commits())

	stored, err := f.store.Stores().Items.Get(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, item.Repetitions+workers, stored.Repetitions)

	entry, err := f.store.Stores().Ledger.Get(ctx, "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, rewards, entry.EarnedReward)
}
