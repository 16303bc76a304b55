// Package projection projects the memory model forward in time: it estimates
// how long a collection needs before its items reach a retention target and
// spreads a single deadline across a chain of prerequisite collections.
package projection

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/memory"
	"github.com/phrazzld/scry-engine/internal/domain/reward"
)

// Retention presets.
const (
	RetentionRelaxed  = 0.75
	RetentionStandard = 0.85
	RetentionStrict   = 0.95
)

// ErrInvalidRetention is returned for retention targets outside (0, 1).
var ErrInvalidRetention = errors.New("retention target must be between 0 and 1")

// ValidateRetention checks that target is a usable probability.
func ValidateRetention(target float64) error {
	if math.IsNaN(target) || target <= 0 || target >= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidRetention, target)
	}
	return nil
}

// ParseRetention accepts a preset name (relaxed, standard, strict) or a
// decimal in (0, 1). An empty string selects the standard preset.
func ParseRetention(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return RetentionStandard, nil
	case "relaxed":
		return RetentionRelaxed, nil
	case "strict":
		return RetentionStrict, nil
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRetention, s)
	}
	if err := ValidateRetention(v); err != nil {
		return 0, err
	}
	return v, nil
}

// EstimateDaysToThreshold returns the days the collection needs to reach
// target retention. Items already at or above target are skipped; for the
// rest the days left until the model's threshold interval is reached are
// taken, and the worst item wins. Units without an item yet add the time to
// learn them at the mode's daily capacity; the larger of the two estimates is
// returned.
func EstimateDaysToThreshold(
	c *domain.Collection,
	items []*domain.Item,
	target float64,
	now time.Time,
	rewards *reward.Table,
) int {
	if rewards == nil {
		rewards = reward.DefaultTable()
	}

	retention := 0
	for _, item := range items {
		elapsed := memory.ElapsedDays(item.LastReviewedAt, now)
		if memory.Retrievability(item.Stability, elapsed) >= target {
			continue
		}
		needed := max(memory.DaysToThreshold(item.Stability, target)-int(elapsed), 0)
		retention = max(retention, needed)
	}

	learning := 0
	if missing := c.Capacity() - len(items); missing > 0 {
		perDay := max(1, rewards.DailyCapacity(c.Mode))
		learning = (missing + perDay - 1) / perDay
	}

	return max(retention, learning)
}
