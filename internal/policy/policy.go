// Package policy decides which roles may perform which operations.
package policy

import (
	"errors"
)

// ErrAuthorizationDenied is returned when the caller's role is insufficient
var ErrAuthorizationDenied = errors.New("admin privileges required")

// Role is the coarse permission level of a user
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

// RoleFor maps the stored admin flag to a Role
func RoleFor(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleStandard
}

// Identity is the authenticated caller
type Identity struct {
	ID     uint   `json:"id"`
	UserID string `json:"userid"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the identity has the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Operation names a guarded action of the API
type Operation string

const (
	OpCreateUser     Operation = "create_user"
	OpListUsers      Operation = "list_users"
	OpDeactivateUser Operation = "deactivate_user"
	OpRestoreUser    Operation = "restore_user"
	OpDeleteUser     Operation = "delete_user"
	OpListUserDaily  Operation = "list_user_daily"
	OpUpdateDaily    Operation = "update_daily"
	OpDeleteDaily    Operation = "delete_daily"
	OpRestoreDaily   Operation = "restore_daily"
	OpListAuditLog   Operation = "list_audit_log"
	OpSubmitOwnDaily Operation = "submit_own_daily"
	OpListOwnDaily   Operation = "list_own_daily"
)

// rules lists the roles allowed for each operation. Operations missing from
// the table are denied to everyone.
var rules = map[Operation][]Role{
	OpCreateUser:     {RoleAdmin},
	OpListUsers:      {RoleAdmin},
	OpDeactivateUser: {RoleAdmin},
	OpRestoreUser:    {RoleAdmin},
	OpDeleteUser:     {RoleAdmin},
	OpListUserDaily:  {RoleAdmin},
	OpUpdateDaily:    {RoleAdmin},
	OpDeleteDaily:    {RoleAdmin},
	OpRestoreDaily:   {RoleAdmin},
	OpListAuditLog:   {RoleAdmin},
	OpSubmitOwnDaily: {RoleAdmin, RoleStandard},
	OpListOwnDaily:   {RoleAdmin, RoleStandard},
}

// Authorize returns ErrAuthorizationDenied unless identity may perform op
func Authorize(identity Identity, op Operation) error {
	for _, role := range rules[op] {
		if identity.Role == role {
			return nil
		}
	}
	return ErrAuthorizationDenied
}
