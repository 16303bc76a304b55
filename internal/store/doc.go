// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the scheduling and allocation logic, so the same services run against
// PostgreSQL, SQLite or the in-memory store in store/memstore.
//
// Every multi-step write goes through TxRunner.RunInTx: the callback receives
// a Stores bundle bound to a single transaction, and nothing it writes is
// visible to other callers unless the callback returns nil.
package store
