package auth

// Authorizer decides whether a role may perform an operation type
type Authorizer interface {
	// Authorize returns nil when the role is permitted to perform the
	// operation, or an *InvalidPermissionsError otherwise.
	Authorize(role Role, operation OperationType) error
}

// StaticAuthorizer evaluates the fixed role/operation permission table. The
// table is built once at construction and is read-only afterwards; it is not
// tenant-specific.
type StaticAuthorizer struct {
	table map[Role]map[OperationType]bool
}

// NewStaticAuthorizer builds the permission table:
//
//	                  Owner  Admin  Member
//	CreateRepository  allow  deny   deny
//	Write             allow  allow  deny
//	Delete            allow  allow  deny
//	Read              allow  allow  allow
//	List              allow  allow  allow
func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{
		table: map[Role]map[OperationType]bool{
			RoleOwner: {
				OperationCreateRepository: true,
				OperationWrite:            true,
				OperationDelete:           true,
				OperationRead:             true,
				OperationList:             true,
			},
			RoleAdmin: {
				OperationWrite:  true,
				OperationDelete: true,
				OperationRead:   true,
				OperationList:   true,
			},
			RoleMember: {
				OperationRead: true,
				OperationList: true,
			},
		},
	}
}

// Authorize checks the table; unknown roles are always denied
func (a *StaticAuthorizer) Authorize(role Role, operation OperationType) error {
	if a.table[role][operation] {
		return nil
	}
	return &InvalidPermissionsError{Role: role, Operation: operation}
}
