// Package api exposes the engine over HTTP: collections, reviews, the daily
// plan and the reward ledger. Handlers decode and validate JSON requests,
// call the services, and map service errors to status codes and safe
// messages (see errors.go). Routes are mounted under /api by Handlers.Routes.
package api
