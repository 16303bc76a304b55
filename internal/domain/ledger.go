package domain

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar day in the learner's local time zone, formatted YYYY-MM-DD.
// The zero value means "no day".
type Day string

// DayOf returns the calendar day of t in loc. A nil loc means UTC.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc).Format(dayLayout))
}

// ParseDay validates s as a YYYY-MM-DD day.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return Day(s), nil
}

// IsZero reports whether d is unset.
func (d Day) IsZero() bool {
	return d == ""
}

// Start returns midnight at the beginning of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dayLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// End returns the last instant of d in loc.
func (d Day) End(loc *time.Location) time.Time {
	return d.Start(loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DaysUntil counts whole calendar days from d to other (negative if other is earlier).
func (d Day) DaysUntil(other Day) int {
	from, err1 := time.Parse(dayLayout, string(d))
	to, err2 := time.Parse(dayLayout, string(other))
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

// AddDays returns the day n calendar days after d.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, n).Format(dayLayout))
}

// LedgerEntry is the reward account for a single day. Balance is the running
// surplus (positive) or deficit (negative) carried across days.
type LedgerEntry struct {
	Day          Day       `json:"day"`
	EarnedReward int       `json:"earned_reward"`
	TargetReward int       `json:"target_reward"`
	Balance      int       `json:"balance"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Credit adds amount to the day's earnings and to the running balance.
func (e *LedgerEntry) Credit(amount int, now time.Time) {
	e.EarnedReward += amount
	e.Balance += amount
	e.UpdatedAt = now
}

// Remaining is the reward still needed to meet the day's target (never negative).
func (e *LedgerEntry) Remaining() int {
	if e.EarnedReward >= e.TargetReward {
		return 0
	}
	return e.TargetReward - e.EarnedReward
}

// Settings is the learner's persisted study configuration and rollover state.
// It is the single source of truth for the daily target reward.
type Settings struct {
	DailyTargetReward int       `json:"daily_target_reward"`
	LastRolloverDay   Day       `json:"last_rollover_day,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RolledOverOn reports whether the daily rollover already ran for day.
func (s *Settings) RolledOverOn(day Day) bool {
	return s.LastRolloverDay == day
}

// Advisory is a non-fatal note attached to a best-effort result, meant to be
// shown to the learner.
type Advisory struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Advisory codes.
const (
	AdvisoryNoCollections  = "no_collections"
	AdvisoryTargetMet      = "target_met"
	AdvisoryChainCycle     = "chain_cycle"
	AdvisoryMissingLink    = "chain_missing_link"
	AdvisoryDeadlineTight  = "deadline_tight"
	AdvisoryDeadlinePassed = "deadline_passed"
	AdvisoryCapacityShort  = "capacity_short"
)
