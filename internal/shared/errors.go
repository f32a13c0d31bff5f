package shared

import (
	"errors"

	"github.com/hirelink/hirelink/internal/platform/httpx"
)

var (
	// ErrNotFound indicates resource not found. Aliases the httpx sentinel so
	// repositories map straight to 404 responses.
	ErrNotFound = httpx.ErrNotFound
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
