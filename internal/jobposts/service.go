package jobposts

import (
	"context"
	"fmt"

	"github.com/hirelink/hirelink/internal/platform/httpx"
)

// RepositoryPort defines data access methods for job posts.
type RepositoryPort interface {
	ListJobPosts(ctx context.Context, companyID *int64) ([]JobPost, error)
	GetJobPost(ctx context.Context, id int64) (JobPost, error)
	CreateJobPost(ctx context.Context, post JobPost) (JobPost, error)
	UpdateJobPost(ctx context.Context, id int64, title, description, location string) error
	SetStatus(ctx context.Context, id int64, status string) error
}

// Service handles job post business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListJobPosts returns published posts.
func (s *Service) ListJobPosts(ctx context.Context, companyID *int64) ([]JobPost, error) {
	return s.repo.ListJobPosts(ctx, companyID)
}

// GetJobPost returns one post.
func (s *Service) GetJobPost(ctx context.Context, id int64) (JobPost, error) {
	return s.repo.GetJobPost(ctx, id)
}

// CreateJobPost creates a draft owned by the acting user.
func (s *Service) CreateJobPost(ctx context.Context, companyID int64, title, description, location string, createdBy int64) (JobPost, error) {
	post := JobPost{
		CompanyID:   companyID,
		Title:       title,
		Description: description,
		Location:    location,
		Status:      StatusDraft,
		CreatedBy:   createdBy,
	}
	return s.repo.CreateJobPost(ctx, post)
}

// UpdateJobPost changes post content.
func (s *Service) UpdateJobPost(ctx context.Context, id int64, title, description, location string) error {
	return s.repo.UpdateJobPost(ctx, id, title, description, location)
}

// SetStatus validates the lifecycle transition and applies it. Closed posts
// stay closed.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case StatusDraft, StatusPublished, StatusClosed:
	default:
		return fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	current, err := s.repo.GetJobPost(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == StatusClosed && status != StatusClosed {
		return fmt.Errorf("%w: closed posts cannot be reopened", httpx.ErrValidation)
	}
	return s.repo.SetStatus(ctx, id, status)
}
