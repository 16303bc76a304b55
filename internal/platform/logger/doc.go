// Package logger provides structured logging functionality for the application.
//
// It configures log/slog with a JSON handler and carries request-scoped
// loggers and request IDs through context.Context, so stores and services log
// with the correlation data of the HTTP request or background job that
// invoked them.
package logger
