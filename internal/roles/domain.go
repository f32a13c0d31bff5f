package roles

import "time"

// RoleScope says whether a role is evaluated platform-wide or against a
// specific entity's membership.
type RoleScope string

const (
	ScopeGlobal RoleScope = "global"
	ScopeEntity RoleScope = "entity"
)

// Role represents a named bundle of permissions.
type Role struct {
	ID          int64
	Name        string
	Description string
	Scope       RoleScope
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RolePermission associates a permission code with a role.
type RolePermission struct {
	RoleID int64
	Code   string
}
