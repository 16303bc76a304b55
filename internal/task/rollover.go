package task

import (
	"context"
	"errors"
	"time"

	"github.com/phrazzld/scry-engine/internal/ledger"
)

// Roller opens the ledger entry for the local day of now.
type Roller interface {
	Rollover(ctx context.Context, now time.Time, loc *time.Location) (*ledger.RolloverResult, error)
}

// RolloverTask opens each new day's ledger entry even when no reviews happen.
// Running it more than once a day is harmless.
type RolloverTask struct {
	ledger   Roller
	location *time.Location
	now      func() time.Time
}

// NewRolloverTask creates a rollover task. A nil clock uses time.Now and a
// nil location uses UTC.
func NewRolloverTask(l Roller, loc *time.Location, now func() time.Time) (*RolloverTask, error) {
	if l == nil {
		return nil, errors.New("ledger cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &RolloverTask{ledger: l, location: loc, now: now}, nil
}

// Type implements Task.
func (t *RolloverTask) Type() string {
	return TypeLedgerRollover
}

// Execute implements Task.
func (t *RolloverTask) Execute(ctx context.Context) error {
	_, err := t.ledger.Rollover(ctx, t.now(), t.location)
	return err
}
