package authz

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hirelink/hirelink/internal/platform/httpx"
	"github.com/hirelink/hirelink/internal/shared"
)

// Handler exposes the override lifecycle and effective-permission listings
// over HTTP for platform administrators.
type Handler struct {
	logger    *slog.Logger
	resolver  *Resolver
	grants    *Grants
	mw        Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, resolver *Resolver, grants *Grants, mw Middleware) *Handler {
	return &Handler{
		logger:    logger,
		resolver:  resolver,
		grants:    grants,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers authorization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(shared.PermPermissionsView))
		r.Get("/users/{id}/effective", h.effectivePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireVerified(shared.PermPermissionsEdit))
		r.Post("/grants", h.assign)
		r.Post("/revocations", h.revoke)
	})
	// Any authenticated user may inspect their own permissions.
	r.Get("/me/effective", h.ownEffectivePermissions)
}

type overrideRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	Code      string `json:"code" validate:"required,min=3"`
	CompanyID *int64 `json:"company_id" validate:"omitempty,gt=0"`
	Note      string `json:"note" validate:"max=500"`
	ExpiresAt string `json:"expires_at" validate:"omitempty"`
}

func (h *Handler) decodeOverride(w http.ResponseWriter, r *http.Request) (OverrideParams, bool) {
	var req overrideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return OverrideParams{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return OverrideParams{}, false
	}
	params := OverrideParams{
		UserID:    req.UserID,
		Code:      req.Code,
		CompanyID: req.CompanyID,
		Note:      req.Note,
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expires_at must be RFC3339")
			return OverrideParams{}, false
		}
		params.ExpiresAt = &expires
	}
	if actor, ok := shared.UserIDFromContext(r.Context()); ok {
		params.GrantedBy = &actor
	}
	return params, true
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeOverride(w, r)
	if !ok {
		return
	}
	if err := h.grants.Assign(r.Context(), params); err != nil {
		h.logger.Error("assign override", slog.String("key", params.Key()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"status": "granted", "key": params.Key()})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeOverride(w, r)
	if !ok {
		return
	}
	if err := h.grants.Revoke(r.Context(), params); err != nil {
		h.logger.Error("revoke override", slog.String("key", params.Key()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"status": "revoked", "key": params.Key()})
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return
	}
	h.respondEffective(w, r, userID)
}

func (h *Handler) ownEffectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.mw.currentUserID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	ctx := shared.ContextWithUserID(r.Context(), userID)
	h.respondEffective(w, r.WithContext(ctx), userID)
}

func (h *Handler) respondEffective(w http.ResponseWriter, r *http.Request, userID int64) {
	var companyID *int64
	if raw := r.URL.Query().Get("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid company id")
			return
		}
		companyID = &id
	}
	codes, err := h.resolver.EffectivePermissions(r.Context(), userID, companyID)
	if err != nil {
		h.logger.Error("effective permissions", slog.Int64("user", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "permissions": codes})
}
