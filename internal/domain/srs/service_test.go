package srs

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/memory"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newItem(t *testing.T) *domain.Item {
	t.Helper()
	item, err := NewDefaultService().NewItem(uuid.New(), 0, testNow.Add(-time.Hour))
	require.NoError(t, err)
	return item
}

// reviewItem returns an item in the Review state last reviewed daysAgo days
// before testNow.
func reviewItem(t *testing.T, stability, difficulty float64, daysAgo int) *domain.Item {
	t.Helper()
	item := newItem(t)
	last := testNow.AddDate(0, 0, -daysAgo)
	item.State = domain.StateReview
	item.Stability = stability
	item.Difficulty = difficulty
	item.Repetitions = 3
	item.ScheduledDays = daysAgo
	item.LastReviewedAt = &last
	item.Due = testNow
	return item
}

func TestReviewErrors(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()

	_, err := svc.Review(nil, domain.Good, testNow)
	assert.ErrorIs(t, err, ErrNilItem)
	assert.ErrorIs(t, err, domain.ErrProgrammer)

	for _, r := range []domain.Rating{0, 5, -1} {
		_, err = svc.Review(newItem(t), r, testNow)
		assert.ErrorIs(t, err, ErrInvalidRating)
		assert.ErrorIs(t, err, domain.ErrProgrammer)
	}

	broken := newItem(t)
	broken.Stability = 3 // stability on a New item
	_, err = svc.Review(broken, domain.Good, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidStability)
	assert.ErrorIs(t, err, domain.ErrProgrammer)
	assert.False(t, errors.Is(err, domain.ErrValidation))
}

func TestReviewDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	item := reviewItem(t, 5, 5, 4)
	before := item.Clone()

	next, err := svc.Review(item, domain.Good, testNow)
	require.NoError(t, err)

	assert.Equal(t, before, item)
	assert.NotSame(t, item, next)
	assert.NotSame(t, item.LastReviewedAt, next.LastReviewedAt)
}

func TestReviewNewItem(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()

	testCases := []struct {
		name          string
		rating        domain.Rating
		wantState     domain.State
		wantStability float64
		wantDue       time.Time
		wantLapses    int
	}{
		{"again starts learning", domain.Again, domain.StateLearning, 0.4, testNow.Add(time.Minute), 1},
		{"hard starts learning", domain.Hard, domain.StateLearning, 0.6, testNow.Add(5 * time.Minute), 0},
		{"good starts learning", domain.Good, domain.StateLearning, 2.4, testNow.Add(10 * time.Minute), 0},
		{"easy graduates", domain.Easy, domain.StateReview, 5.8, testNow.AddDate(0, 0, 6), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			next, err := svc.Review(newItem(t), tc.rating, testNow)
			require.NoError(t, err)

			assert.Equal(t, tc.wantState, next.State)
			assert.InDelta(t, tc.wantStability, next.Stability, 1e-9)
			assert.InDelta(t, memory.Default().InitDifficulty(tc.rating), next.Difficulty, 1e-9)
			assert.Equal(t, tc.wantDue, next.Due)
			assert.Equal(t, 1, next.Repetitions)
			assert.Equal(t, tc.wantLapses, next.Lapses)
			assert.Equal(t, 0, next.ElapsedDays)
			require.NotNil(t, next.LastReviewedAt)
			assert.Equal(t, testNow, *next.LastReviewedAt)
			assert.NoError(t, next.Validate())
		})
	}
}

func TestLearningGraduation(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()

	first, err := svc.Review(newItem(t), domain.Good, testNow)
	require.NoError(t, err)
	require.Equal(t, domain.StateLearning, first.State)
	assert.Zero(t, first.ScheduledDays)

	later := testNow.Add(15 * time.Minute)
	second, err := svc.Review(first, domain.Good, later)
	require.NoError(t, err)

	assert.Equal(t, domain.StateReview, second.State)
	assert.Equal(t, 2, second.Repetitions)
	assert.Equal(t, first.Stability, second.Stability, "learning steps keep stability")
	assert.Equal(t, 2, second.ScheduledDays)
	assert.Equal(t, later.AddDate(0, 0, 2), second.Due)

	again, err := svc.Review(first, domain.Again, later)
	require.NoError(t, err)
	assert.Equal(t, domain.StateLearning, again.State)
	assert.Equal(t, later.Add(time.Minute), again.Due)
}

func TestReviewStateTransitions(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()

	t.Run("lapse moves review to relearning", func(t *testing.T) {
		t.Parallel()
		item := reviewItem(t, 10, 5, 12)
		next, err := svc.Review(item, domain.Again, testNow)
		require.NoError(t, err)

		assert.Equal(t, domain.StateRelearning, next.State)
		assert.Equal(t, 1, next.Lapses)
		assert.Less(t, next.Stability, item.Stability)
		assert.Greater(t, next.Difficulty, item.Difficulty)
		assert.Equal(t, 0, next.ScheduledDays)
		assert.Equal(t, testNow.Add(time.Minute), next.Due)
		assert.Equal(t, 12, next.ElapsedDays)
	})

	t.Run("recall keeps review and grows stability", func(t *testing.T) {
		t.Parallel()
		item := reviewItem(t, 10, 5, 12)
		for _, r := range []domain.Rating{domain.Hard, domain.Good, domain.Easy} {
			next, err := svc.Review(item, r, testNow)
			require.NoError(t, err)
			assert.Equal(t, domain.StateReview, next.State, r.String())
			assert.Greater(t, next.Stability, item.Stability, r.String())
			assert.GreaterOrEqual(t, next.ScheduledDays, 1)
		}
	})

	t.Run("relearning recovers to review", func(t *testing.T) {
		t.Parallel()
		item := reviewItem(t, 2, 7, 0)
		item.State = domain.StateRelearning
		next, err := svc.Review(item, domain.Good, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.StateReview, next.State)
		assert.Equal(t, item.Stability, next.Stability)

		again, err := svc.Review(item, domain.Again, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.StateRelearning, again.State)
	})
}

func TestDueNeverBeforeNow(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	item := newItem(t)
	now := testNow

	sequence := []domain.Rating{
		domain.Good, domain.Good, domain.Again, domain.Hard, domain.Good,
		domain.Easy, domain.Again, domain.Again, domain.Good, domain.Easy,
	}
	for i, r := range sequence {
		next, err := svc.Review(item, r, now)
		require.NoError(t, err)
		assert.False(t, next.Due.Before(now), "step %d: due %v before now %v", i, next.Due, now)
		assert.NoError(t, next.Validate())
		assert.Equal(t, i+1, next.Repetitions)
		item = next
		now = next.Due
	}
}

func TestRetrievability(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	assert.Equal(t, 1.0, svc.Retrievability(newItem(t), testNow))
	assert.Equal(t, 1.0, svc.Retrievability(nil, testNow))
	assert.InDelta(t, 0.9, svc.Retrievability(reviewItem(t, 10, 5, 10), testNow), 1e-9)
}

func TestNewServiceWithParams(t *testing.T) {
	t.Parallel()

	svc, err := NewServiceWithParams(NewParams(ParamsConfig{DesiredRetention: 0.8}))
	require.NoError(t, err)
	assert.Equal(t, 0.8, svc.DesiredRetention())

	bad := NewDefaultParams()
	bad.Model.DesiredRetention = 1.5
	_, err = NewServiceWithParams(bad)
	assert.ErrorIs(t, err, memory.ErrInvalidParams)
}
