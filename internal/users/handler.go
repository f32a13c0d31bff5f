package users

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/hirelink/hirelink/internal/authz"
	"github.com/hirelink/hirelink/internal/platform/httpx"
	"github.com/hirelink/hirelink/internal/shared"
	"github.com/hirelink/hirelink/jobs"
)

// Mailer enqueues account notification mail; satisfied by *jobs.Client.
type Mailer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mail      Mailer
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance. A nil mailer disables account
// notification mail.
func NewHandler(logger *slog.Logger, service *Service, mail Mailer, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mail: mail, mw: mw, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(shared.PermUsersView))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(shared.PermUsersEdit))
		r.Put("/{id}/role", h.assignRole)
		r.Post("/{id}/block", h.blockUser)
		r.Delete("/{id}/block", h.unblockUser)
	})
}

type userResponse struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	RoleID       *int64     `json:"role_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsVerified   bool       `json:"is_verified"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toResponse(u User) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		RoleID:       u.RoleID,
		IsActive:     u.IsActive,
		IsVerified:   u.IsVerified,
		BlockedUntil: u.BlockedUntil,
		CreatedAt:    u.CreatedAt,
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	users, meta, err := h.service.ListUsers(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users": out,
		"meta": map[string]int{
			"page":        meta.Page,
			"per_page":    meta.PerPage,
			"total":       meta.Total,
			"total_pages": meta.TotalPages,
		},
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(user))
}

type assignRoleRequest struct {
	RoleID *int64 `json:"role_id" validate:"omitempty,gt=0"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.AssignRole(r.Context(), id, req.RoleID); err != nil {
		h.logger.Error("assign role failed", slog.Int64("user", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type blockRequest struct {
	Until string `json:"until" validate:"required"`
}

func (h *Handler) blockUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req blockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	until, err := time.Parse(time.RFC3339, req.Until)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "until must be RFC3339")
		return
	}
	if err := h.service.Block(r.Context(), id, until); err != nil {
		h.logger.Error("block user failed", slog.Int64("user", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.notify(r.Context(), id, "Your account has been suspended",
		"Your account is suspended until "+until.UTC().Format(time.RFC3339)+".")
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "blocked"})
}

func (h *Handler) unblockUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Unblock(r.Context(), id); err != nil {
		h.logger.Error("unblock user failed", slog.Int64("user", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.notify(r.Context(), id, "Your account has been reinstated",
		"Your account suspension has been lifted.")
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}

// notify enqueues a mail to the affected account. Best effort: a queue
// failure is logged, never surfaced to the admin performing the change.
func (h *Handler) notify(ctx context.Context, userID int64, subject, body string) {
	if h.mail == nil {
		return
	}
	user, err := h.service.GetUser(ctx, userID)
	if err != nil {
		return
	}
	payload := jobs.SendEmailPayload{To: user.Email, Subject: subject, Body: body}
	if _, err := h.mail.EnqueueSendEmail(ctx, payload); err != nil {
		h.logger.Warn("enqueue notification", slog.Int64("user", userID), slog.Any("error", err))
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return 0, false
	}
	return id, true
}
