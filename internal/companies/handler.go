package companies

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hirelink/hirelink/internal/authz"
	"github.com/hirelink/hirelink/internal/platform/httpx"
	"github.com/hirelink/hirelink/internal/shared"
)

// Handler manages company endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(shared.PermCompaniesView))
		r.Get("/", h.listCompanies)
		r.Get("/{companyID}", h.getCompany)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireVerified(shared.PermCompaniesEdit))
		r.Post("/", h.createCompany)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireForCompany(shared.PermCompaniesEdit, "companyID"))
		r.Put("/{companyID}", h.updateCompany)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireForCompany(shared.PermCompanyMembersView, "companyID"))
		r.Get("/{companyID}/members", h.listMembers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireForCompany(shared.PermCompanyMembersEdit, "companyID"))
		r.Put("/{companyID}/members/{userID}", h.setMember)
		r.Delete("/{companyID}/members/{userID}", h.removeMember)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireForCompany(shared.PermCompanyFollowersView, "companyID"))
		r.Get("/{companyID}/followers", h.listFollowers)
	})
	r.Group(func(r chi.Router) {
		// Approval runs through the adm scope path, so only company admins
		// (or explicitly granted users) get through.
		r.Use(h.mw.RequireForCompany(shared.PermFollowersApprove, "companyID"))
		r.Put("/{companyID}/followers/{userID}/approval", h.setApproval)
	})
	// Following is a self-service action for any signed-in account.
	r.Group(func(r chi.Router) {
		r.Use(h.mw.WithSubject)
		r.Post("/{companyID}/follow", h.follow)
		r.Delete("/{companyID}/follow", h.unfollow)
	})
}

type companyResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Website     string    `json:"website,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(c Company) companyResponse {
	return companyResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Website:     c.Website,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
	}
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		h.logger.Error("list companies failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, toResponse(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": out})
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "companyID")
	if !ok {
		return
	}
	c, err := h.service.GetCompany(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(c))
}

type companyRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Website     string `json:"website" validate:"omitempty,url,max=500"`
}

func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCompany(w, r)
	if !ok {
		return
	}
	actor, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	c, err := h.service.CreateCompany(r.Context(), req.Name, req.Description, req.Website, actor)
	if err != nil {
		h.logger.Error("create company failed", slog.String("name", req.Name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "companyID")
	if !ok {
		return
	}
	req, ok := h.decodeCompany(w, r)
	if !ok {
		return
	}
	if err := h.service.UpdateCompany(r.Context(), id, req.Name, req.Description, req.Website); err != nil {
		h.logger.Error("update company failed", slog.Int64("company", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type memberResponse struct {
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "companyID")
	if !ok {
		return
	}
	members, err := h.service.ListMembers(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{UserID: m.UserID, Role: m.Role, CreatedAt: m.CreatedAt})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": out})
}

type memberRequest struct {
	Role string `json:"role" validate:"required,oneof=admin recruiter viewer"`
}

func (h *Handler) setMember(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(w, r, "companyID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req memberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetMember(r.Context(), companyID, userID, req.Role); err != nil {
		h.logger.Error("set member failed", slog.Int64("company", companyID), slog.Int64("user", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(w, r, "companyID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.service.RemoveMember(r.Context(), companyID, userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type followerResponse struct {
	UserID    int64     `json:"user_id"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) listFollowers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "companyID")
	if !ok {
		return
	}
	approvedOnly := r.URL.Query().Get("approved") == "true"
	followers, err := h.service.ListFollowers(r.Context(), id, approvedOnly)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]followerResponse, 0, len(followers))
	for _, f := range followers {
		out = append(out, followerResponse{UserID: f.UserID, Approved: f.Approved, CreatedAt: f.CreatedAt})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"followers": out})
}

type approvalRequest struct {
	Approved bool `json:"approved"`
}

func (h *Handler) setApproval(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(w, r, "companyID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req approvalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.service.SetApproval(r.Context(), companyID, userID, req.Approved); err != nil {
		h.logger.Error("set approval failed", slog.Int64("company", companyID), slog.Int64("user", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(w, r, "companyID")
	if !ok {
		return
	}
	actor, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.Follow(r.Context(), companyID, actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"status": "pending"})
}

func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(w, r, "companyID")
	if !ok {
		return
	}
	actor, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.Unfollow(r.Context(), companyID, actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) decodeCompany(w http.ResponseWriter, r *http.Request) (companyRequest, bool) {
	var req companyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return companyRequest{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return companyRequest{}, false
	}
	return req, true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+param)
		return 0, false
	}
	return id, true
}
