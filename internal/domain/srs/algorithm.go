package srs

import (
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/memory"
)

// nextState picks the learning stage after a review with rating r.
//
// New items enter Learning (Easy skips straight to Review). Learning items
// graduate on Easy, or on Hard/Good once they have been reviewed
// graduationReps times. A lapse in Review moves the item to Relearning, and
// any successful recall in Relearning restores it to Review.
func nextState(current domain.State, r domain.Rating, repetitions, graduationReps int) domain.State {
	switch current {
	case domain.StateNew, domain.StateLearning:
		switch {
		case r == domain.Again:
			return domain.StateLearning
		case r == domain.Easy:
			return domain.StateReview
		case repetitions >= graduationReps:
			return domain.StateReview
		default:
			return domain.StateLearning
		}
	case domain.StateReview, domain.StateRelearning:
		if r == domain.Again {
			return domain.StateRelearning
		}
		return domain.StateReview
	default:
		return current
	}
}

// calculateNextItem returns the item's state after a review, leaving the
// input untouched.
func calculateNextItem(
	m *memory.Model,
	params *Params,
	item *domain.Item,
	r domain.Rating,
	now time.Time,
) *domain.Item {
	next := item.Clone()

	elapsed := memory.ElapsedDays(item.LastReviewedAt, now)
	ret := memory.Retrievability(item.Stability, elapsed)

	next.Repetitions++
	next.ElapsedDays = int(elapsed)
	if r == domain.Again {
		next.Lapses++
	}

	switch item.State {
	case domain.StateNew:
		next.Stability = m.InitStability(r)
		next.Difficulty = m.InitDifficulty(r)
	case domain.StateReview:
		next.Difficulty = m.NextDifficulty(item.Difficulty, r)
		if r == domain.Again {
			next.Stability = m.NextForgetStability(item.Difficulty, item.Stability, ret)
		} else {
			next.Stability = m.NextRecallStability(item.Difficulty, item.Stability, ret, r)
		}
	default:
		// Learning and relearning steps adjust difficulty only.
		next.Difficulty = m.NextDifficulty(item.Difficulty, r)
	}

	next.State = nextState(item.State, r, next.Repetitions, params.GraduationRepetitions)

	if next.State == domain.StateReview {
		next.ScheduledDays = m.NextInterval(next.Stability)
		next.Due = memory.NextDue(now, next.ScheduledDays)
	} else {
		next.ScheduledDays = 0
		next.Due = now.Add(params.step(r))
	}

	reviewedAt := now
	next.LastReviewedAt = &reviewedAt
	next.UpdatedAt = now

	return next
}
