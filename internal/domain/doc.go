// Package domain contains the core study entities: items and their memory
// state, collections and their prerequisite links, the daily reward ledger and
// the settings aggregate that owns the rollover state. It is independent of any
// storage or delivery mechanism.
package domain
