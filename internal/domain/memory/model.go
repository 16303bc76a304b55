package memory

import (
	"math"
	"time"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// decayScale is the 9 in R = (1 + t/(9S))^-1.
const decayScale = 9.0

// Retrievability returns the modelled recall probability after elapsedDays
// for an item of the given stability. A zero stability (never reviewed) is
// defined as fully retrievable.
func Retrievability(stability, elapsedDays float64) float64 {
	if stability <= 0 {
		return 1
	}
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return 1 / (1 + elapsedDays/(decayScale*stability))
}

// ElapsedDays returns the fractional days between last and now, or 0 when the
// item was never reviewed or the clock went backwards.
func ElapsedDays(last *time.Time, now time.Time) float64 {
	if last == nil {
		return 0
	}
	d := now.Sub(*last).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// DaysToThreshold is the number of days, counted from the last review, until
// retrievability falls to target: ceil(9 · max(S, 0.1) · (1/target − 1)).
func DaysToThreshold(stability, target float64) int {
	s := math.Max(stability, MinimumStability)
	return int(math.Ceil(decayScale * s * (1/target - 1)))
}

// Model holds a validated parameter set. It is immutable and safe for
// concurrent use.
type Model struct {
	w                [17]float64
	desiredRetention float64
	maximumInterval  int
}

// New creates a model from p, filling zero values with defaults.
func New(p Params) (*Model, error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Model{
		w:                p.Weights,
		desiredRetention: p.DesiredRetention,
		maximumInterval:  p.MaximumInterval,
	}, nil
}

// Default returns a model with the default parameters.
func Default() *Model {
	m, _ := New(DefaultParams())
	return m
}

// DesiredRetention returns the retention reviews are scheduled at.
func (m *Model) DesiredRetention() float64 {
	return m.desiredRetention
}

// InitStability returns the stability after the first review with rating r.
func (m *Model) InitStability(r domain.Rating) float64 {
	return math.Max(m.w[r-1], MinimumStability)
}

// InitDifficulty returns the difficulty after the first review with rating r:
// D0 = w4 − w5·(r − 3), clamped to [1, 10].
func (m *Model) InitDifficulty(r domain.Rating) float64 {
	return clampDifficulty(m.w[4] - m.w[5]*(float64(r)-3))
}

// NextDifficulty moves d down for Easy and up for Hard and Again, then
// reverts it slightly toward the Good initial difficulty.
func (m *Model) NextDifficulty(d float64, r domain.Rating) float64 {
	next := d - m.w[6]*(float64(r)-3)
	return clampDifficulty(m.w[7]*m.InitDifficulty(domain.Good) + (1-m.w[7])*next)
}

// NextRecallStability returns the stability after a successful recall
// (Hard, Good or Easy) at retrievability ret.
func (m *Model) NextRecallStability(d, s, ret float64, r domain.Rating) float64 {
	hardPenalty := 1.0
	if r == domain.Hard {
		hardPenalty = m.w[15]
	}
	easyBonus := 1.0
	if r == domain.Easy {
		easyBonus = m.w[16]
	}
	growth := math.Exp(m.w[8]) *
		(11 - d) *
		math.Pow(s, -m.w[9]) *
		(math.Exp((1-ret)*m.w[10]) - 1) *
		hardPenalty * easyBonus
	return s * (1 + growth)
}

// NextForgetStability returns the stability after a lapse at retrievability
// ret. It never exceeds the stability before the lapse.
func (m *Model) NextForgetStability(d, s, ret float64) float64 {
	next := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-ret)*m.w[14])
	return math.Max(math.Min(next, s), MinimumStability)
}

// NextInterval returns the whole days until retrievability reaches the
// desired retention, clamped to [1, maximum interval].
func (m *Model) NextInterval(s float64) int {
	ivl := int(math.Round(decayScale * s * (1/m.desiredRetention - 1)))
	if ivl < 1 {
		ivl = 1
	}
	if ivl > m.maximumInterval {
		ivl = m.maximumInterval
	}
	return ivl
}

// NextDue projects the due time scheduledDays after now.
func NextDue(now time.Time, scheduledDays int) time.Time {
	return now.AddDate(0, 0, scheduledDays)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
