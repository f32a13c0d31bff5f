package roles

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hirelink/hirelink/internal/platform/httpx"
	"github.com/hirelink/hirelink/internal/shared"
)

type fakeRepo struct {
	roles map[int64]Role
	perms map[int64][]string
	next  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{roles: make(map[int64]Role), perms: make(map[int64][]string), next: 1}
}

func (r *fakeRepo) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (r *fakeRepo) CreateRole(ctx context.Context, name, description string, scope RoleScope) (Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return Role{}, httpx.ErrDuplicate
		}
	}
	role := Role{ID: r.next, Name: name, Description: description, Scope: scope}
	r.roles[r.next] = role
	r.next++
	return role, nil
}

func (r *fakeRepo) UpdateRole(ctx context.Context, id int64, name, description string) error {
	role, ok := r.roles[id]
	if !ok {
		return shared.ErrNotFound
	}
	role.Name = name
	role.Description = description
	r.roles[id] = role
	return nil
}

func (r *fakeRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	return r.perms[roleID], nil
}

func (r *fakeRepo) SetRolePermissions(ctx context.Context, roleID int64, codes []string) error {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	r.perms[roleID] = sorted
	return nil
}

func TestCreateRoleDefaultsToGlobalScope(t *testing.T) {
	svc := NewService(newFakeRepo())

	role, err := svc.CreateRole(context.Background(), "recruiter", "", "")
	require.NoError(t, err)
	require.Equal(t, ScopeGlobal, role.Scope)
}

func TestCreateRoleRejectsUnknownScope(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateRole(context.Background(), "recruiter", "", "universal")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRoleDuplicateName(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateRole(context.Background(), "recruiter", "", ScopeGlobal)
	require.NoError(t, err)
	_, err = svc.CreateRole(context.Background(), "recruiter", "", ScopeGlobal)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestSetPermissionsRequiresExistingRole(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	err := svc.SetPermissions(context.Background(), 42, []string{shared.PermUsersView})
	require.ErrorIs(t, err, shared.ErrNotFound)

	role, err := svc.CreateRole(context.Background(), "admin", "", ScopeGlobal)
	require.NoError(t, err)
	require.NoError(t, svc.SetPermissions(context.Background(), role.ID, []string{shared.PermUsersView, shared.PermUsersEdit}))

	_, codes, err := svc.GetRole(context.Background(), role.ID)
	require.NoError(t, err)
	require.Equal(t, []string{shared.PermUsersEdit, shared.PermUsersView}, codes)
}
