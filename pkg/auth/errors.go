package auth

import "fmt"

// InvalidTokenError indicates the presented token could not be authenticated:
// missing, unparsable, expired, signature-invalid, missing required claims,
// or an unresolvable signing key.
type InvalidTokenError struct {
	Reason string
	Err    error
}

func (e *InvalidTokenError) Error() string { return e.Reason }

func (e *InvalidTokenError) Unwrap() error { return e.Err }

// InvalidPermissionsError indicates the authenticated role lacks permission
// for the requested operation.
type InvalidPermissionsError struct {
	Role      Role
	Operation OperationType
}

func (e *InvalidPermissionsError) Error() string {
	return fmt.Sprintf("Role '%s' has insufficient permissions for the requested operation: %s", e.Role, e.Operation)
}
