package users

import "time"

// User represents a user account for management.
type User struct {
	ID           int64
	Email        string
	Name         string
	RoleID       *int64
	IsActive     bool
	IsVerified   bool
	BlockedUntil *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
