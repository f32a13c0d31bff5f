package authz

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/hirelink/hirelink/internal/platform/httpx"
	"github.com/hirelink/hirelink/internal/shared"
)

// Middleware wires gate checks into HTTP handlers. It resolves the acting
// user from the session, stores the id in the request context, and lets the
// gate decide.
type Middleware struct {
	Gate   *Gate
	Logger *slog.Logger
}

// WithSubject resolves the session user id into the request context without
// enforcing anything. Handlers that call the gate directly rely on it.
func (m Middleware) WithSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := m.currentUserID(r); ok {
			r = r.WithContext(shared.ContextWithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

// Require ensures the current user holds the permission globally.
func (m Middleware) Require(code string) func(http.Handler) http.Handler {
	return m.require(code, "", false)
}

// RequireVerified additionally demands a verified contact channel.
func (m Middleware) RequireVerified(code string) func(http.Handler) http.Handler {
	return m.require(code, "", true)
}

// RequireForCompany scopes the check to the company id found in the named
// chi route parameter.
func (m Middleware) RequireForCompany(code, param string) func(http.Handler) http.Handler {
	return m.require(code, param, false)
}

func (m Middleware) require(code, param string, verified bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := m.currentUserID(r)
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ctx := shared.ContextWithUserID(r.Context(), userID)

			var companyID *int64
			if param != "" {
				raw := chi.URLParam(r, param)
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid company id")
					return
				}
				companyID = &id
			}

			check := m.Gate.Require
			if verified {
				check = m.Gate.RequireVerified
			}
			if _, err := check(ctx, code, companyID); err != nil {
				if !IsDenied(err) && !isAuthError(err) && m.Logger != nil {
					m.Logger.Error("authz middleware", slog.String("code", code), slog.Any("error", err))
				}
				if errors.Is(err, ErrInvalidSubject) {
					// Stale session for a deleted account reads as
					// unauthenticated at the HTTP boundary.
					err = httpx.ErrUnauthorized
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RespondGateError writes a gate error to the response. A stale subject
// (session for a deleted account) reads as unauthenticated at the HTTP
// boundary, same as the middleware path.
func RespondGateError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidSubject) {
		err = httpx.ErrUnauthorized
	}
	httpx.RespondError(w, err)
}

func isAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInvalidSubject)
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
