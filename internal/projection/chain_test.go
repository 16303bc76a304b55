package projection

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/store"
	"github.com/phrazzld/scry-engine/internal/store/memstore"
)

// chain creates A <- B <- C with estimates 2, 4 and 2 days.
func chain(t *testing.T, s *memstore.Store) (a, b, c *domain.Collection) {
	t.Helper()
	ctx := context.Background()
	cs := s.Stores().Collections

	a = newCollection(t, domain.ModeRead, 40)
	b = newCollection(t, domain.ModeSolve, 40)
	c = newCollection(t, domain.ModeMemorize, 60)
	b.PredecessorID = &a.ID
	c.PredecessorID = &b.ID
	for _, col := range []*domain.Collection{a, b, c} {
		require.NoError(t, cs.Create(ctx, col))
	}
	return a, b, c
}

func newProjector(t *testing.T, s *memstore.Store) *Projector {
	t.Helper()
	p, err := NewProjector(s, nil, nil)
	require.NoError(t, err)
	return p
}

func advisoryCodes(plan *ChainPlan) []string {
	codes := make([]string, 0, len(plan.Advisories))
	for _, a := range plan.Advisories {
		codes = append(codes, a.Code)
	}
	return codes
}

func TestAllocateChainDeadlines(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	a, b, c := chain(t, s)
	target := time.Date(2024, 6, 19, 18, 0, 0, 0, time.UTC)

	plan, err := newProjector(t, s).AllocateChainDeadlines(ctx, c.ID, target, RetentionStandard, testNow, time.UTC)
	require.NoError(t, err)

	assert.Empty(t, plan.Advisories)
	assert.Equal(t, 8, plan.TotalEstimate)
	assert.Equal(t, 16, plan.AvailableDays)
	require.Len(t, plan.Links, 3)

	assert.Equal(t, a.ID, plan.Links[0].CollectionID)
	assert.Equal(t, 2, plan.Links[0].EstimatedDays)
	assert.Equal(t, 4, plan.Links[0].AllocatedDays)
	assert.Equal(t, time.Date(2024, 6, 7, 18, 0, 0, 0, time.UTC), plan.Links[0].Deadline)

	assert.Equal(t, b.ID, plan.Links[1].CollectionID)
	assert.Equal(t, 8, plan.Links[1].AllocatedDays)
	assert.Equal(t, time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC), plan.Links[1].Deadline)

	assert.Equal(t, c.ID, plan.Links[2].CollectionID)
	assert.Equal(t, 4, plan.Links[2].AllocatedDays)
	assert.Equal(t, target, plan.Links[2].Deadline)

	stored, err := s.Stores().Collections.Get(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Deadline)
	assert.True(t, stored.Deadline.Equal(plan.Links[1].Deadline))
	assert.Equal(t, 1, s.Commits())
}

// assertOrderedWithinTarget checks that no link ends after the target date,
// that deadlines never go backwards along the chain and that no link gets a
// negative allocation.
func assertOrderedWithinTarget(t *testing.T, plan *ChainPlan) {
	t.Helper()

	for i, link := range plan.Links {
		assert.False(t, link.Deadline.After(plan.TargetDate), "link %d deadline %s after target %s", i, link.Deadline, plan.TargetDate)
		assert.GreaterOrEqual(t, link.AllocatedDays, 0, "link %d", i)
		if i > 0 {
			assert.False(t, plan.Links[i-1].Deadline.After(link.Deadline), "link %d ends after its successor", i-1)
		}
	}
}

func TestAllocateChainDeadlinesTight(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	_, _, c := chain(t, s)
	target := time.Date(2024, 6, 6, 12, 0, 0, 0, time.UTC)

	plan, err := newProjector(t, s).AllocateChainDeadlines(context.Background(), c.ID, target, RetentionStandard, testNow, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.AdvisoryDeadlineTight}, advisoryCodes(plan))
	assert.Equal(t, 1, plan.Links[0].AllocatedDays, "every link gets at least one day")
	assert.Equal(t, 1, plan.Links[1].AllocatedDays)
	assert.Equal(t, 1, plan.Links[2].AllocatedDays)
	assert.Equal(t, target, plan.Links[2].Deadline)
	assertOrderedWithinTarget(t, plan)
}

func TestAllocateChainDeadlinesFewerDaysThanLinks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	a, b, c := chain(t, s)
	target := testNow.AddDate(0, 0, 1)

	plan, err := newProjector(t, s).AllocateChainDeadlines(ctx, c.ID, target, RetentionStandard, testNow, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.AdvisoryDeadlineTight}, advisoryCodes(plan))
	require.Len(t, plan.Links, 3)
	assert.Equal(t, 1, plan.Links[0].AllocatedDays)
	assert.Zero(t, plan.Links[1].AllocatedDays)
	assert.Zero(t, plan.Links[2].AllocatedDays)
	assertOrderedWithinTarget(t, plan)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		stored, err := s.Stores().Collections.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, stored.Deadline)
		assert.False(t, stored.Deadline.After(target))
	}
}

func TestAllocateChainDeadlinesPassed(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	_, _, c := chain(t, s)

	plan, err := newProjector(t, s).AllocateChainDeadlines(context.Background(), c.ID,
		testNow.AddDate(0, 0, -2), RetentionStandard, testNow, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.AdvisoryDeadlinePassed, domain.AdvisoryDeadlineTight}, advisoryCodes(plan))
	assert.Zero(t, plan.AvailableDays)
	require.Len(t, plan.Links, 3)
	for _, link := range plan.Links {
		assert.Zero(t, link.AllocatedDays)
	}
	assertOrderedWithinTarget(t, plan)
}

func TestAllocateChainDeadlinesCycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	a, b, c := chain(t, s)
	a.PredecessorID = &c.ID
	require.NoError(t, s.Stores().Collections.Update(ctx, a))

	plan, err := newProjector(t, s).AllocateChainDeadlines(ctx, c.ID,
		testNow.AddDate(0, 1, 0), RetentionStandard, testNow, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.AdvisoryChainCycle}, advisoryCodes(plan))
	require.Len(t, plan.Links, 3)
	assert.Equal(t, a.ID, plan.Links[0].CollectionID)
	assert.Equal(t, b.ID, plan.Links[1].CollectionID)
	assert.Equal(t, c.ID, plan.Links[2].CollectionID)
}

func TestAllocateChainDeadlinesMissingLink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	_, b, c := chain(t, s)
	ghost := uuid.New()
	b.PredecessorID = &ghost
	require.NoError(t, s.Stores().Collections.Update(ctx, b))

	plan, err := newProjector(t, s).AllocateChainDeadlines(ctx, c.ID,
		testNow.AddDate(0, 0, 10), RetentionStandard, testNow, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.AdvisoryMissingLink}, advisoryCodes(plan))
	require.Len(t, plan.Links, 2)
	assert.Equal(t, b.ID, plan.Links[0].CollectionID)
}

func TestAllocateChainDeadlinesZeroEstimateSplitsEvenly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	first := newCollection(t, domain.ModeRead, 1)
	second := newCollection(t, domain.ModeRead, 1)
	second.PredecessorID = &first.ID
	for _, col := range []*domain.Collection{first, second} {
		require.NoError(t, s.Stores().Collections.Create(ctx, col))
		item, err := domain.NewItem(col.ID, 0, testNow)
		require.NoError(t, err)
		require.NoError(t, s.Stores().Items.Create(ctx, item))
	}

	plan, err := newProjector(t, s).AllocateChainDeadlines(ctx, second.ID,
		testNow.AddDate(0, 0, 10), RetentionStandard, testNow, time.UTC)
	require.NoError(t, err)

	assert.Zero(t, plan.TotalEstimate)
	assert.Equal(t, 5, plan.Links[0].AllocatedDays)
	assert.Equal(t, 5, plan.Links[1].AllocatedDays)
}

func TestAllocateChainDeadlinesErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	_, _, c := chain(t, s)
	p := newProjector(t, s)

	_, err := p.AllocateChainDeadlines(ctx, uuid.New(), testNow.AddDate(0, 0, 5), RetentionStandard, testNow, time.UTC)
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)

	_, err = p.AllocateChainDeadlines(ctx, c.ID, testNow.AddDate(0, 0, 5), 1.0, testNow, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidRetention)

	s.InjectFault(memstore.OpCollectionUpdate, 1, nil)
	_, err = p.AllocateChainDeadlines(ctx, c.ID, testNow.AddDate(0, 0, 5), RetentionStandard, testNow, time.UTC)
	assert.ErrorIs(t, err, memstore.ErrInjected)

	s.ClearFaults()
	for _, col := range []*domain.Collection{c} {
		stored, err := s.Stores().Collections.Get(ctx, col.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.Deadline, "failed allocation must not store any deadline")
	}
}

func TestProjectorEstimate(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	a, _, _ := chain(t, s)

	est, err := newProjector(t, s).Estimate(context.Background(), a.ID, RetentionRelaxed, testNow, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, est.Days)
	assert.Equal(t, domain.Day("2024-06-05"), est.ReadyOn)
}
