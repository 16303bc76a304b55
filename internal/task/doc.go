// Package task runs periodic background jobs, such as the daily ledger
// rollover, on a fixed interval alongside the HTTP server.
package task
