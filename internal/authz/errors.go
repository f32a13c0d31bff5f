package authz

import (
	"errors"
	"fmt"
	"time"

	"github.com/hirelink/hirelink/internal/platform/httpx"
)

// ErrInvalidSubject indicates a resolution was requested for a missing or
// invalid user id. It is a precondition violation, never a quiet deny, so
// authentication bugs cannot masquerade as authorization denials.
var ErrInvalidSubject = errors.New("authz: invalid subject")

// ErrUnauthorized indicates no authenticated subject at all, distinct from
// an authenticated subject being denied a specific permission.
var ErrUnauthorized = fmt.Errorf("authz: no authenticated subject: %w", httpx.ErrUnauthorized)

// Denial reasons carried by DenialError.
const (
	ReasonBlocked           = "blocked"
	ReasonUnverified        = "unverified"
	ReasonMissingPermission = "missing_permission"
)

// DenialError is a terminal refusal: an authenticated subject failed a
// precondition or the permission check itself. The reason is safe to expose
// to callers.
type DenialError struct {
	Reason       string
	Code         string
	BlockedUntil *time.Time
}

func (e *DenialError) Error() string {
	switch e.Reason {
	case ReasonBlocked:
		if e.BlockedUntil != nil {
			return fmt.Sprintf("authz: account blocked until %s", e.BlockedUntil.UTC().Format(time.RFC3339))
		}
		return "authz: account blocked"
	case ReasonUnverified:
		return "authz: account not verified"
	default:
		return fmt.Sprintf("authz: missing permission %s", e.Code)
	}
}

// Unwrap ties denials to the shared forbidden sentinel so httpx.RespondError
// maps them to 403 without knowing about this package.
func (e *DenialError) Unwrap() error { return httpx.ErrForbidden }

// StoreError wraps a data-access failure. It is propagated, never coerced to
// a deny verdict; the HTTP layer logs it and answers with a generic failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("authz: store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsDenied reports whether err is a permission denial rather than a fault.
func IsDenied(err error) bool {
	var denial *DenialError
	return errors.As(err, &denial)
}
