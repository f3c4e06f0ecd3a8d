// Package store defines the tenant-scoped configuration repository model and
// its storage abstraction.
//
// A Repository is identified by (namespace, name), where the namespace is the
// tenant's organization ID and is always derived from a verified profile,
// never from client input. Each entry inside a repository is a Document: an
// opaque JSON value with a version number. Versions for a key form a
// contiguous sequence starting at 1; saving appends, it never overwrites.
//
// ConfigurationRepository is the contract every backend implements. The
// in-memory implementation in this package is the reference for the contract
// and the test double for the postgres adapter in the postgres subpackage.
// All backend-specific failures are surfaced through the typed errors in
// errors.go; callers never observe driver error types.
package store
