package store

import "fmt"

// RepositoryAlreadyExistsError indicates a duplicate repository creation
// attempt for the same (namespace, name).
type RepositoryAlreadyExistsError struct {
	Repository Repository
}

func (e *RepositoryAlreadyExistsError) Error() string {
	return fmt.Sprintf("repository %s already exists", e.Repository)
}

// RepositoryNotFoundError indicates the target repository was never created,
// or was provisioned for a different tenant. Cross-tenant access surfaces as
// this error so existence is never confirmed to the wrong tenant.
type RepositoryNotFoundError struct {
	Repository Repository
}

func (e *RepositoryNotFoundError) Error() string {
	return fmt.Sprintf("repository %s not found", e.Repository)
}

// KeyNotFoundError indicates the entry does not exist in the repository.
type KeyNotFoundError struct {
	Repository Repository
	Key        string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found in repository %s", e.Key, e.Repository)
}

// KeyVersionNotFoundError indicates the requested version of an entry does
// not exist.
type KeyVersionNotFoundError struct {
	Repository Repository
	Key        string
	Version    int64
}

func (e *KeyVersionNotFoundError) Error() string {
	return fmt.Sprintf("version %d of key %q not found in repository %s", e.Version, e.Key, e.Repository)
}

// InvalidRepositoryNameError indicates the repository identity produces a
// bucket name outside the allowed character set or length.
type InvalidRepositoryNameError struct {
	Name string
}

func (e *InvalidRepositoryNameError) Error() string {
	return fmt.Sprintf("invalid repository name %q: only alphanumeric characters and . %% _ - are allowed, at most 63 bytes combined", e.Name)
}

// QueryTimeoutError indicates a backing-store query exceeded its deadline.
// Callers may retry; the store performs no retries itself.
type QueryTimeoutError struct {
	Op  string
	Err error
}

func (e *QueryTimeoutError) Error() string {
	return fmt.Sprintf("query timed out during %s: %v", e.Op, e.Err)
}

func (e *QueryTimeoutError) Unwrap() error { return e.Err }

// OperationCancelledError indicates a backing-store call was cancelled before
// completion.
type OperationCancelledError struct {
	Op  string
	Err error
}

func (e *OperationCancelledError) Error() string {
	return fmt.Sprintf("operation cancelled during %s: %v", e.Op, e.Err)
}

func (e *OperationCancelledError) Unwrap() error { return e.Err }

// TransientResourceError indicates a temporary backing-store condition
// (overload, lock contention, serialization conflict). Callers may retry.
type TransientResourceError struct {
	Op  string
	Err error
}

func (e *TransientResourceError) Error() string {
	return fmt.Sprintf("transient store failure during %s: %v", e.Op, e.Err)
}

func (e *TransientResourceError) Unwrap() error { return e.Err }

// ResourceFailureError indicates a non-transient backing-store failure such
// as bad credentials, TLS misconfiguration, or an unreachable server.
type ResourceFailureError struct {
	Op  string
	Err error
}

func (e *ResourceFailureError) Error() string {
	return fmt.Sprintf("store resource failure during %s: %v", e.Op, e.Err)
}

func (e *ResourceFailureError) Unwrap() error { return e.Err }
