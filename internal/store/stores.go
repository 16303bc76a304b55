package store

import "context"

// Stores bundles the stores that share one connection or transaction.
type Stores struct {
	Items       ItemStore
	Collections CollectionStore
	Ledger      LedgerStore
	Settings    SettingsStore
}

// TxFn is a unit of work executed inside a transaction. Returning an error
// rolls back every write made through s.
type TxFn func(ctx context.Context, s Stores) error

// TxRunner runs units of work atomically.
type TxRunner interface {
	// RunInTx executes fn in a transaction, committing only if it returns nil.
	RunInTx(ctx context.Context, fn TxFn) error

	// Stores returns stores bound to the underlying connection, for reads
	// that need no transaction.
	Stores() Stores
}
