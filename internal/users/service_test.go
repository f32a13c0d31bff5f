package users

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/hirelink/hirelink/internal/shared"
)

type fakeRepo struct {
	users   map[int64]User
	blocked map[int64]*pgtype.Timestamptz
}

func newFakeRepo(users ...User) *fakeRepo {
	r := &fakeRepo{users: make(map[int64]User), blocked: make(map[int64]*pgtype.Timestamptz)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) CountUsers(ctx context.Context) (int, error) {
	return len(r.users), nil
}

func (r *fakeRepo) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *fakeRepo) SetRole(ctx context.Context, userID int64, roleID *int64) error {
	u, ok := r.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.RoleID = roleID
	r.users[userID] = u
	return nil
}

func (r *fakeRepo) SetBlockedUntil(ctx context.Context, userID int64, until *pgtype.Timestamptz) error {
	if _, ok := r.users[userID]; !ok {
		return shared.ErrNotFound
	}
	r.blocked[userID] = until
	return nil
}

func TestListUsersPaginates(t *testing.T) {
	repo := newFakeRepo()
	for i := int64(1); i <= 5; i++ {
		repo.users[i] = User{ID: i}
	}
	svc := NewService(repo)

	users, meta, err := svc.ListUsers(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, int64(3), users[0].ID)
	require.Equal(t, 5, meta.Total)
	require.Equal(t, 3, meta.TotalPages)
}

func TestAssignRole(t *testing.T) {
	repo := newFakeRepo(User{ID: 1, Email: "a@example.com"})
	svc := NewService(repo)

	roleID := int64(3)
	require.NoError(t, svc.AssignRole(context.Background(), 1, &roleID))
	u, err := svc.GetUser(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, u.RoleID)
	require.Equal(t, int64(3), *u.RoleID)

	require.NoError(t, svc.AssignRole(context.Background(), 1, nil))
	u, err = svc.GetUser(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, u.RoleID)
}

func TestAssignRoleUnknownUser(t *testing.T) {
	svc := NewService(newFakeRepo())
	roleID := int64(3)
	require.ErrorIs(t, svc.AssignRole(context.Background(), 99, &roleID), shared.ErrNotFound)
}

func TestBlockAndUnblock(t *testing.T) {
	repo := newFakeRepo(User{ID: 1})
	svc := NewService(repo)

	until := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Block(context.Background(), 1, until))
	require.NotNil(t, repo.blocked[1])
	require.True(t, repo.blocked[1].Valid)
	require.True(t, repo.blocked[1].Time.Equal(until))

	require.NoError(t, svc.Unblock(context.Background(), 1))
	require.Nil(t, repo.blocked[1])
}
