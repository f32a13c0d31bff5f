package authz

import (
	"fmt"
	"strings"
	"time"
)

// OverrideAction distinguishes per-user grant and revoke facts.
type OverrideAction string

// Supported override actions.
const (
	ActionGrant  OverrideAction = "grant"
	ActionRevoke OverrideAction = "revoke"
)

// Scope names a visibility rule evaluated against ownership, membership or
// follower relations when no override or direct role grant applies.
type Scope string

// Supported visibility scopes.
const (
	ScopeAll       Scope = "all"
	ScopeOwn       Scope = "own"
	ScopeOwnPerm   Scope = "ownperm"
	ScopeFollowers Scope = "followers"
	ScopeApproved  Scope = "approved"
	ScopeMembers   Scope = "members"
	ScopeAdmin     Scope = "adm"
)

// AdminMemberRole is the company_users role value that satisfies ScopeAdmin.
const AdminMemberRole = "admin"

// Permission is the stored metadata for a named capability.
type Permission struct {
	Code        string
	Description string
	// AccessLevel is the fallback visibility scope; empty means the
	// permission is role-gated only.
	AccessLevel Scope
	Public      bool
}

// Override is a per-user permission fact, optionally scoped to one company.
type Override struct {
	ID        int64
	UserID    int64
	Code      string
	CompanyID *int64
	Action    OverrideAction
	GrantedBy *int64
	Note      string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// ActiveAt reports whether the override applies at the given instant.
// A nil ExpiresAt never expires; the boundary is strict, so a row expiring
// exactly now no longer applies. A set-but-zero timestamp (unparseable in
// the store) is always treated as expired.
func (o Override) ActiveAt(now time.Time) bool {
	if o.ExpiresAt == nil {
		return true
	}
	return now.Before(*o.ExpiresAt)
}

// Subject is the account state the gate inspects before resolving.
type Subject struct {
	ID           int64
	RoleID       *int64
	Verified     bool
	BlockedUntil *time.Time
}

// Blocked reports whether the subject is blocked at the given instant.
func (s Subject) Blocked(now time.Time) bool {
	return s.BlockedUntil != nil && now.Before(*s.BlockedUntil)
}

// ScopeContext carries the entity target of a visibility evaluation.
type ScopeContext struct {
	// OwnerTable is the relation holding the created_by column for the
	// entity kind, e.g. "companies" or "job_posts".
	OwnerTable string
	EntityID   *int64
}

// OverrideParams are the structured arguments for assign/revoke calls.
type OverrideParams struct {
	UserID    int64
	Code      string
	CompanyID *int64
	GrantedBy *int64
	Note      string
	ExpiresAt *time.Time
}

// Key renders the (user, code, company) identity for logging and audit.
func (p OverrideParams) Key() string {
	if p.CompanyID != nil {
		return fmt.Sprintf("%d/%s/%d", p.UserID, p.Code, *p.CompanyID)
	}
	return fmt.Sprintf("%d/%s/global", p.UserID, p.Code)
}

// ownerTables maps a permission code domain to the relation carrying its
// created_by column. Codes with an unknown domain fall back to companies,
// the platform's primary entity.
var ownerTables = map[string]string{
	"company":  "companies",
	"jobposts": "job_posts",
	"profile":  "profiles",
}

// OwnerTableFor derives the creator relation from a permission code, e.g.
// "jobposts.edit" -> "job_posts".
func OwnerTableFor(code string) string {
	domain, _, _ := strings.Cut(code, ".")
	if table, ok := ownerTables[domain]; ok {
		return table
	}
	return "companies"
}
