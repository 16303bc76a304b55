package task

import "context"

// Task type constants
const (
	// TypeLedgerRollover opens the reward ledger entry for the current day.
	TypeLedgerRollover = "ledger_rollover"
)

// Task represents a unit of periodic background work.
type Task interface {
	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}
