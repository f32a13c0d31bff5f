package jobposts

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

// Handler manages job post endpoints. Edits are checked against the post
// itself so creator-scoped permissions resolve correctly; creation is checked
// against the owning company.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *authz.Gate
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *authz.Gate, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, mw: mw, validator: validator.New()}
}

// MountRoutes registers job post routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(shared.PermJobPostsView))
		r.Get("/", h.listJobPosts)
		r.Get("/{id}", h.getJobPost)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.WithSubject)
		r.Post("/", h.createJobPost)
		r.Put("/{id}", h.updateJobPost)
		r.Put("/{id}/status", h.setStatus)
	})
}

type jobPostResponse struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(post JobPost) jobPostResponse {
	return jobPostResponse{
		ID:          post.ID,
		CompanyID:   post.CompanyID,
		Title:       post.Title,
		Description: post.Description,
		Location:    post.Location,
		Status:      post.Status,
		CreatedBy:   post.CreatedBy,
		CreatedAt:   post.CreatedAt,
	}
}

func (h *Handler) listJobPosts(w http.ResponseWriter, r *http.Request) {
	var companyID *int64
	if raw := r.URL.Query().Get("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid company id")
			return
		}
		companyID = &id
	}
	posts, err := h.service.ListJobPosts(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list job posts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]jobPostResponse, 0, len(posts))
	for _, post := range posts {
		out = append(out, toResponse(post))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"job_posts": out})
}

func (h *Handler) getJobPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := h.service.GetJobPost(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(post))
}

type jobPostRequest struct {
	CompanyID   int64  `json:"company_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,max=10000"`
	Location    string `json:"location" validate:"max=200"`
}

func (h *Handler) createJobPost(w http.ResponseWriter, r *http.Request) {
	var req jobPostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	// Posting a vacancy is an edit on the owning company.
	sub, err := h.gate.RequireVerified(r.Context(), shared.PermCompaniesEdit, &req.CompanyID)
	if err != nil {
		authz.RespondGateError(w, err)
		return
	}
	post, err := h.service.CreateJobPost(r.Context(), req.CompanyID, req.Title, req.Description, req.Location, sub.ID)
	if err != nil {
		h.logger.Error("create job post failed", slog.Int64("company", req.CompanyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(post))
}

type updateJobPostRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,max=10000"`
	Location    string `json:"location" validate:"max=200"`
}

func (h *Handler) updateJobPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateJobPostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if _, err := h.gate.Require(r.Context(), shared.PermJobPostsEdit, &id); err != nil {
		authz.RespondGateError(w, err)
		return
	}
	if err := h.service.UpdateJobPost(r.Context(), id, req.Title, req.Description, req.Location); err != nil {
		h.logger.Error("update job post failed", slog.Int64("post", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published closed"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if _, err := h.gate.Require(r.Context(), shared.PermJobPostsEdit, &id); err != nil {
		authz.RespondGateError(w, err)
		return
	}
	if err := h.service.SetStatus(r.Context(), id, req.Status); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid job post id")
		return 0, false
	}
	return id, true
}
