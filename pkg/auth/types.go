package auth

import (
	"fmt"
	"strings"
)

// Role represents a tenant-level role carried in a token's claims
type Role string

const (
	RoleOwner  Role = "owner"  // Full access, including repository creation
	RoleAdmin  Role = "admin"  // Read and write access
	RoleMember Role = "member" // Read-only access
)

// ParseRole parses a role claim value. Absence or an unknown value is an
// error, never a default.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(value)) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMember:
		return RoleMember, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// OperationType is the fixed category an operation is authorized against.
// It is a property of the operation kind, never of request data.
type OperationType string

const (
	OperationCreateRepository OperationType = "create_repository"
	OperationRead             OperationType = "read"
	OperationWrite            OperationType = "write"
	OperationDelete           OperationType = "delete"
	OperationList             OperationType = "list"
)

// ClaimTenant and ClaimRole are the claims every token must carry.
const (
	ClaimTenant = "tenant"
	ClaimRole   = "role"
)

// Profile is the identity resolved from a verified token. It lives for one
// request and is never persisted.
type Profile struct {
	// Tenant is the organization ID, the isolation boundary for all
	// repository operations.
	Tenant string
	// Claims holds the token's verified claims, including the role.
	Claims map[string]interface{}
}

// Role extracts and parses the role claim. A missing or unparsable role is
// an authentication-layer failure because the claim itself is malformed.
func (p *Profile) Role() (Role, error) {
	raw, ok := p.Claims[ClaimRole]
	if !ok {
		return "", &InvalidTokenError{Reason: "Invalid role: <missing>"}
	}
	value, ok := raw.(string)
	if !ok {
		return "", &InvalidTokenError{Reason: fmt.Sprintf("Invalid role: %v", raw)}
	}
	role, err := ParseRole(value)
	if err != nil {
		return "", &InvalidTokenError{Reason: fmt.Sprintf("Invalid role: %s", value)}
	}
	return role, nil
}
