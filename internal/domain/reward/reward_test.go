package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-engine/internal/domain"
)

func TestFlat(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	assert.Equal(t, 30, table.Flat(domain.ModeRead))
	assert.Equal(t, 50, table.Flat(domain.ModeSolve))
	assert.Equal(t, 20, table.Flat(domain.ModeMemorize))
}

func TestEarned(t *testing.T) {
	t.Parallel()

	table := DefaultTable()

	testCases := []struct {
		name       string
		mode       domain.Mode
		difficulty float64
		ret        float64
		want       int
	}{
		// Stability 4 reviewed 10 days ago: R = (1 + 10/36)^-1 ≈ 0.783, no bonus.
		{"solve worked example", domain.ModeSolve, 6, 0.7826, 95},
		// 50 · (1 + 0.3·1.5) · (1 + 0.1·2) = 50 · 1.45 · 1.2 = 87
		{"solve with retention bonus", domain.ModeSolve, 3, 0.6, 87},
		// 30 · (1 + 0.5·1.5) · (1 + 0.6·2) = 30 · 1.75 · 2.2 = 115.5
		{"read at low retention", domain.ModeRead, 5, 0.1, 115},
		{"no bonus above threshold", domain.ModeMemorize, 2, 0.9, 26},
		{"zero difficulty and fresh item earns base", domain.ModeRead, 0, 1, 30},
		{"new item difficulty zero retention one", domain.ModeSolve, 0, 1, 50},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, table.Earned(tc.mode, tc.difficulty, tc.ret))
		})
	}
}

func TestEarnedFloor(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	for _, mode := range domain.Modes {
		for d := 0.0; d <= 10; d += 0.5 {
			for r := 0.0; r <= 1; r += 0.05 {
				assert.GreaterOrEqual(t, table.Earned(mode, d, r), table.Flat(mode))
			}
		}
	}
}

func TestForRating(t *testing.T) {
	t.Parallel()

	table := DefaultTable()
	assert.Zero(t, table.ForRating(domain.Again, domain.ModeSolve, 8, 0.2))
	assert.Zero(t, table.ForRating(domain.Hard, domain.ModeSolve, 8, 0.2))
	assert.Equal(t, table.Earned(domain.ModeSolve, 8, 0.2), table.ForRating(domain.Good, domain.ModeSolve, 8, 0.2))
	assert.Equal(t, table.Earned(domain.ModeSolve, 8, 0.2), table.ForRating(domain.Easy, domain.ModeSolve, 8, 0.2))
}

func TestNewTable(t *testing.T) {
	t.Parallel()

	table, err := NewTable(
		map[domain.Mode]int{domain.ModeRead: 40},
		map[domain.Mode]int{domain.ModeSolve: 4},
	)
	require.NoError(t, err)
	assert.Equal(t, 40, table.Flat(domain.ModeRead))
	assert.Equal(t, 50, table.Flat(domain.ModeSolve))
	assert.Equal(t, 4, table.DailyCapacity(domain.ModeSolve))
	assert.Equal(t, 30, table.DailyCapacity(domain.ModeMemorize))

	_, err = NewTable(map[domain.Mode]int{domain.ModeRead: 0}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
