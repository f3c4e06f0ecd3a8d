// Package observability provides structured logging, Prometheus metrics,
// health probes, and graceful shutdown for the confstore service.
//
// The Logger is a thin wrapper over log/slog emitting JSON, with helpers for
// attaching request-scoped fields (request ID, tenant) carried through
// context.Context. Metrics covers the operation pipeline, the configuration
// store, and the verification-key cache.
package observability
