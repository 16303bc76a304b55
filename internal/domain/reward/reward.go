// Package reward holds the per-mode reward tables.
//
// Two functions are deliberately kept apart: Flat is the planning estimate
// used by the allocator, Earned is what a successful review actually credits.
package reward

import (
	"fmt"
	"math"

	"github.com/phrazzld/scry-engine/internal/domain"
)

const (
	// RetentionBonusThreshold is the retrievability below which a recall earns a bonus.
	RetentionBonusThreshold = 0.7

	retentionBonusSlope = 2.0
	difficultyWeight    = 1.5

	// floorEpsilon absorbs float error so exact products such as 95.0 are
	// not floored to 94.
	floorEpsilon = 1e-9
)

// Default per-mode values.
var (
	DefaultBase = map[domain.Mode]int{
		domain.ModeRead:     30,
		domain.ModeSolve:    50,
		domain.ModeMemorize: 20,
	}

	DefaultCapacity = map[domain.Mode]int{
		domain.ModeRead:     20,
		domain.ModeSolve:    10,
		domain.ModeMemorize: 30,
	}
)

// Table resolves base rewards and daily learning capacity per mode.
type Table struct {
	base     map[domain.Mode]int
	capacity map[domain.Mode]int
}

// NewTable builds a table, falling back to the defaults for any mode missing
// from base or capacity.
func NewTable(base, capacity map[domain.Mode]int) (*Table, error) {
	t := &Table{
		base:     make(map[domain.Mode]int, len(domain.Modes)),
		capacity: make(map[domain.Mode]int, len(domain.Modes)),
	}
	for _, m := range domain.Modes {
		t.base[m] = DefaultBase[m]
		t.capacity[m] = DefaultCapacity[m]
		if v, ok := base[m]; ok {
			if v <= 0 {
				return nil, fmt.Errorf("%w: base reward for %s must be positive", domain.ErrValidation, m)
			}
			t.base[m] = v
		}
		if v, ok := capacity[m]; ok {
			if v <= 0 {
				return nil, fmt.Errorf("%w: daily capacity for %s must be positive", domain.ErrValidation, m)
			}
			t.capacity[m] = v
		}
	}
	return t, nil
}

// DefaultTable returns the table with default values.
func DefaultTable() *Table {
	t, _ := NewTable(nil, nil)
	return t
}

// Flat is the planning estimate for one item of the given mode. It ignores
// difficulty and retention.
func (t *Table) Flat(mode domain.Mode) int {
	return t.base[mode]
}

// DailyCapacity is the number of new units of the given mode a learner can
// absorb per day.
func (t *Table) DailyCapacity(mode domain.Mode) int {
	return t.capacity[mode]
}

// Earned is the reward credited for a successful recall:
//
//	max(base, floor(base · (1 + difficulty/10 · 1.5) · bonus))
//
// where bonus = 1 + (0.7 − R)·2 when R < 0.7 and 1 otherwise.
func (t *Table) Earned(mode domain.Mode, difficulty, retrievability float64) int {
	base := t.base[mode]
	bonus := 1.0
	if retrievability < RetentionBonusThreshold {
		bonus = 1 + (RetentionBonusThreshold-retrievability)*retentionBonusSlope
	}
	scaled := int(math.Floor(float64(base)*(1+difficulty/10*difficultyWeight)*bonus + floorEpsilon))
	return max(base, scaled)
}

// ForRating returns Earned for Good and Easy and 0 for Again and Hard.
func (t *Table) ForRating(r domain.Rating, mode domain.Mode, difficulty, retrievability float64) int {
	if !r.IsRecall() {
		return 0
	}
	return t.Earned(mode, difficulty, retrievability)
}
