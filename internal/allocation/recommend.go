package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/reward"
)

// Defaults for Config.
const (
	DefaultMinimumReward          = 300
	DefaultHighPriorityMultiplier = 1.3
)

// Config tunes Recommend. Zero values fall back to the defaults.
type Config struct {
	MinimumReward          int
	HighPriorityMultiplier float64
	Rewards                *reward.Table
}

// DefaultConfig returns the default allocation settings.
func DefaultConfig() Config {
	return Config{
		MinimumReward:          DefaultMinimumReward,
		HighPriorityMultiplier: DefaultHighPriorityMultiplier,
		Rewards:                reward.DefaultTable(),
	}
}

func (c Config) withDefaults() Config {
	if c.MinimumReward <= 0 {
		c.MinimumReward = DefaultMinimumReward
	}
	if c.HighPriorityMultiplier <= 0 {
		c.HighPriorityMultiplier = DefaultHighPriorityMultiplier
	}
	if c.Rewards == nil {
		c.Rewards = reward.DefaultTable()
	}
	return c
}

// Request is the state the allocation is computed from.
type Request struct {
	ReviewReward   int                  // flat reward of reviews due today
	AssignedReward int                  // flat reward of new items already assigned today
	TargetReward   int                  // today's target
	Collections    []*domain.Collection // collections eligible for new items

	// Remaining caps the items recommended per collection at its free slots.
	// Collections missing from the map, or a nil map, are not capped.
	Remaining map[uuid.UUID]int
}

// limit returns the most items collection c may be given.
func (r Request) limit(c *domain.Collection) int {
	if n, ok := r.Remaining[c.ID]; ok {
		return max(0, n)
	}
	return math.MaxInt
}

// Result is the recommended number of new items per collection.
type Result struct {
	PerCollection    map[uuid.UUID]int `json:"per_collection"`
	Total            int               `json:"total"`
	Reward           int               `json:"reward"`
	Deficit          int               `json:"deficit"`
	EffectiveDeficit int               `json:"effective_deficit"`
	Advisories       []domain.Advisory `json:"advisories,omitempty"`
}

// Recommend distributes the reward deficit across the collections in
// proportion to their priority-weighted flat reward, rounding to whole items,
// then tops up until the represented reward covers the effective deficit. No
// collection is given more than its remaining capacity.
func Recommend(req Request, cfg Config) Result {
	cfg = cfg.withDefaults()

	res := Result{PerCollection: make(map[uuid.UUID]int, len(req.Collections))}
	res.Deficit = max(0, req.TargetReward-(req.ReviewReward+req.AssignedReward))
	res.EffectiveDeficit = max(res.Deficit, cfg.MinimumReward)

	if res.Deficit == 0 {
		res.Advisories = append(res.Advisories, domain.Advisory{
			Code: domain.AdvisoryTargetMet,
			Message: fmt.Sprintf("reviews and assigned items already cover the target of %d; "+
				"recommending the minimum of %d", req.TargetReward, cfg.MinimumReward),
		})
	}

	if len(req.Collections) == 0 {
		res.Advisories = append(res.Advisories, domain.Advisory{
			Code:    domain.AdvisoryNoCollections,
			Message: "no collection can take new items",
		})
		return res
	}

	flat := make([]int, len(req.Collections))
	weights := make([]float64, len(req.Collections))
	var totalWeight float64
	for i, c := range req.Collections {
		flat[i] = max(1, cfg.Rewards.Flat(c.Mode))
		mult := 1.0
		if c.IsHighPriority() {
			mult = cfg.HighPriorityMultiplier
		}
		weights[i] = mult * float64(flat[i])
		totalWeight += weights[i]
	}

	counts := make([]int, len(req.Collections))
	limits := make([]int, len(req.Collections))
	allZero := true
	for i, c := range req.Collections {
		limits[i] = req.limit(c)
		share := float64(res.EffectiveDeficit) * weights[i] / totalWeight
		counts[i] = min(int(math.Round(share/float64(flat[i]))), limits[i])
		if counts[i] > 0 {
			allZero = false
		}
	}

	// Visit order for the fallback and the top-up: largest flat reward first.
	order := make([]int, len(req.Collections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return flat[order[a]] > flat[order[b]] })

	if allZero {
		for _, i := range order {
			if limits[i] > 0 {
				counts[i] = 1
				break
			}
		}
	}

	represented := 0
	for i := range counts {
		represented += counts[i] * flat[i]
	}
	for _, i := range order {
		if represented >= res.EffectiveDeficit {
			break
		}
		if counts[i] >= limits[i] {
			continue
		}
		counts[i]++
		represented += flat[i]
	}

	if represented < res.EffectiveDeficit && atLimit(counts, limits) {
		res.Advisories = append(res.Advisories, domain.Advisory{
			Code: domain.AdvisoryCapacityShort,
			Message: fmt.Sprintf("collections have room for items worth %d of the %d needed",
				represented, res.EffectiveDeficit),
		})
	}

	for i, c := range req.Collections {
		if counts[i] == 0 {
			continue
		}
		res.PerCollection[c.ID] += counts[i]
		res.Total += counts[i]
	}
	res.Reward = represented
	return res
}

// atLimit reports whether every collection was given all the items it can take.
func atLimit(counts, limits []int) bool {
	for i := range counts {
		if counts[i] < limits[i] {
			return false
		}
	}
	return true
}
