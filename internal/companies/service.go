package companies

import (
	"context"
	"fmt"

	"github.com/hirelink/hirelink/internal/platform/httpx"
)

// RepositoryPort defines data access methods for companies.
type RepositoryPort interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	GetCompany(ctx context.Context, id int64) (Company, error)
	CreateCompany(ctx context.Context, name, description, website string, createdBy int64) (Company, error)
	UpdateCompany(ctx context.Context, id int64, name, description, website string) error
	ListMembers(ctx context.Context, companyID int64) ([]Member, error)
	UpsertMember(ctx context.Context, companyID, userID int64, role string) error
	RemoveMember(ctx context.Context, companyID, userID int64) error
	CountAdmins(ctx context.Context, companyID int64) (int, error)
	ListFollowers(ctx context.Context, companyID int64, approvedOnly bool) ([]Follower, error)
	AddFollower(ctx context.Context, companyID, userID int64) error
	SetFollowerApproval(ctx context.Context, companyID, userID int64, approved bool) error
	RemoveFollower(ctx context.Context, companyID, userID int64) error
}

// MemberRoles lists the accepted membership roles.
var MemberRoles = map[string]bool{
	"admin":     true,
	"recruiter": true,
	"viewer":    true,
}

// Service handles company business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListCompanies returns all companies.
func (s *Service) ListCompanies(ctx context.Context) ([]Company, error) {
	return s.repo.ListCompanies(ctx)
}

// GetCompany returns one company.
func (s *Service) GetCompany(ctx context.Context, id int64) (Company, error) {
	return s.repo.GetCompany(ctx, id)
}

// CreateCompany creates a company owned by the acting user.
func (s *Service) CreateCompany(ctx context.Context, name, description, website string, createdBy int64) (Company, error) {
	return s.repo.CreateCompany(ctx, name, description, website, createdBy)
}

// UpdateCompany changes profile fields.
func (s *Service) UpdateCompany(ctx context.Context, id int64, name, description, website string) error {
	return s.repo.UpdateCompany(ctx, id, name, description, website)
}

// ListMembers returns company members.
func (s *Service) ListMembers(ctx context.Context, companyID int64) ([]Member, error) {
	return s.repo.ListMembers(ctx, companyID)
}

// SetMember adds a member or changes their role. Demoting the last admin is
// rejected so the company never ends up unmanageable.
func (s *Service) SetMember(ctx context.Context, companyID, userID int64, role string) error {
	if !MemberRoles[role] {
		return fmt.Errorf("%w: unknown member role %q", httpx.ErrValidation, role)
	}
	if role != "admin" {
		isAdmin, err := s.memberIsAdmin(ctx, companyID, userID)
		if err != nil {
			return err
		}
		if isAdmin {
			if err := s.guardLastAdmin(ctx, companyID); err != nil {
				return err
			}
		}
	}
	return s.repo.UpsertMember(ctx, companyID, userID, role)
}

// RemoveMember deletes a membership, refusing to drop the last admin.
func (s *Service) RemoveMember(ctx context.Context, companyID, userID int64) error {
	isAdmin, err := s.memberIsAdmin(ctx, companyID, userID)
	if err != nil {
		return err
	}
	if isAdmin {
		if err := s.guardLastAdmin(ctx, companyID); err != nil {
			return err
		}
	}
	return s.repo.RemoveMember(ctx, companyID, userID)
}

// ListFollowers returns followers of a company.
func (s *Service) ListFollowers(ctx context.Context, companyID int64, approvedOnly bool) ([]Follower, error) {
	return s.repo.ListFollowers(ctx, companyID, approvedOnly)
}

// Follow records a pending follow request for the acting user.
func (s *Service) Follow(ctx context.Context, companyID, userID int64) error {
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return err
	}
	return s.repo.AddFollower(ctx, companyID, userID)
}

// Unfollow removes the acting user's follow.
func (s *Service) Unfollow(ctx context.Context, companyID, userID int64) error {
	return s.repo.RemoveFollower(ctx, companyID, userID)
}

// SetApproval approves or unapproves a follower.
func (s *Service) SetApproval(ctx context.Context, companyID, userID int64, approved bool) error {
	return s.repo.SetFollowerApproval(ctx, companyID, userID, approved)
}

func (s *Service) memberIsAdmin(ctx context.Context, companyID, userID int64) (bool, error) {
	members, err := s.repo.ListMembers(ctx, companyID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return m.Role == "admin", nil
		}
	}
	return false, nil
}

func (s *Service) guardLastAdmin(ctx context.Context, companyID int64) error {
	admins, err := s.repo.CountAdmins(ctx, companyID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return fmt.Errorf("%w: a company keeps at least one admin", httpx.ErrValidation)
	}
	return nil
}
