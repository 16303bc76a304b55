// Package service contains the application use cases that sit between the
// HTTP layer and the stores.
//
// Collection management lives here directly. Reviews and daily planning have
// their own subpackages (service/review, service/planner) because each runs a
// multi-store transaction with its own error contract.
//
// Services receive their dependencies through constructors, run multi-step
// writes through store.TxRunner, and return sentinel errors (checked with
// errors.Is) or service error types that wrap the cause.
package service
