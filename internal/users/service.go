package users

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hirelink/hirelink/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	SetRole(ctx context.Context, userID int64, roleID *int64) error
	SetBlockedUntil(ctx context.Context, userID int64, until *pgtype.Timestamptz) error
}

// Service handles user management business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns one page of users with pagination metadata.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	meta := shared.NewPagination(page, perPage, total)
	users, err := s.repo.ListUsers(ctx, meta.PerPage, (meta.Page-1)*meta.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, meta, nil
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// AssignRole sets or clears a user's platform role.
func (s *Service) AssignRole(ctx context.Context, userID int64, roleID *int64) error {
	return s.repo.SetRole(ctx, userID, roleID)
}

// Block suspends a user until the given time.
func (s *Service) Block(ctx context.Context, userID int64, until time.Time) error {
	ts := pgtype.Timestamptz{Time: until, Valid: true}
	return s.repo.SetBlockedUntil(ctx, userID, &ts)
}

// Unblock clears an active suspension.
func (s *Service) Unblock(ctx context.Context, userID int64) error {
	return s.repo.SetBlockedUntil(ctx, userID, nil)
}
