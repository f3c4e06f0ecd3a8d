package postgres

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/platinummonkey/confstore/pkg/store"
)

// translate maps driver-level failures onto the store's typed taxonomy so
// callers never observe pq types. sql.ErrNoRows is deliberately not handled
// here: row absence means different things per query and is mapped at the
// call site.
func translate(op string, repo store.Repository, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &store.QueryTimeoutError{Op: op, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &store.OperationCancelledError{Op: op, Err: err}
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return &store.ResourceFailureError{Op: op, Err: err}
	}

	switch pqErr.Code {
	case "42P06", "42P07": // duplicate_schema, duplicate_table
		return &store.RepositoryAlreadyExistsError{Repository: repo}
	case "3F000", "42P01": // invalid_schema_name, undefined_table
		return &store.RepositoryNotFoundError{Repository: repo}
	case "57014": // query_canceled: statement_timeout or explicit cancel
		return &store.QueryTimeoutError{Op: op, Err: err}
	case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock_detected
		return &store.TransientResourceError{Op: op, Err: err}
	}

	switch pqErr.Code.Class() {
	case "53": // insufficient_resources (disk full, out of memory, too many connections)
		return &store.TransientResourceError{Op: op, Err: err}
	case "08": // connection_exception
		return &store.ResourceFailureError{Op: op, Err: err}
	case "28": // invalid_authorization_specification
		return &store.ResourceFailureError{Op: op, Err: err}
	}

	return &store.ResourceFailureError{Op: op, Err: err}
}

// errorKind labels a translated error for the store error counter
func errorKind(err error) string {
	switch err.(type) {
	case *store.RepositoryAlreadyExistsError:
		return "already_exists"
	case *store.RepositoryNotFoundError:
		return "not_found"
	case *store.QueryTimeoutError:
		return "query_timeout"
	case *store.OperationCancelledError:
		return "cancelled"
	case *store.TransientResourceError:
		return "transient"
	default:
		return "resource_failure"
	}
}

// isUniqueViolation reports whether err is a unique-constraint conflict
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
