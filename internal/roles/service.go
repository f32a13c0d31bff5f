package roles

import (
	"context"
	"fmt"

	"github.com/hirelink/hirelink/internal/platform/httpx"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string, scope RoleScope) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) error
	ListRolePermissions(ctx context.Context, roleID int64) ([]string, error)
	SetRolePermissions(ctx context.Context, roleID int64, codes []string) error
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns a role with its permission codes.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, []string, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, nil, err
	}
	codes, err := s.repo.ListRolePermissions(ctx, id)
	if err != nil {
		return Role{}, nil, err
	}
	return role, codes, nil
}

// CreateRole validates and creates a role.
func (s *Service) CreateRole(ctx context.Context, name, description string, scope RoleScope) (Role, error) {
	if scope == "" {
		scope = ScopeGlobal
	}
	if scope != ScopeGlobal && scope != ScopeEntity {
		return Role{}, fmt.Errorf("%w: unknown role scope %q", httpx.ErrValidation, scope)
	}
	return s.repo.CreateRole(ctx, name, description, scope)
}

// UpdateRole renames a role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) error {
	return s.repo.UpdateRole(ctx, id, name, description)
}

// SetPermissions replaces the permission set of a role.
func (s *Service) SetPermissions(ctx context.Context, roleID int64, codes []string) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	return s.repo.SetRolePermissions(ctx, roleID, codes)
}
