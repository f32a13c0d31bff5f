package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelink/hirelink/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, role_id, is_active, is_verified, blocked_until, created_at, updated_at`

// ListUsers returns one page of users ordered by id.
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of user accounts.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// GetUser fetches a single user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// SetRole assigns or clears a user's role.
func (r *Repository) SetRole(ctx context.Context, userID int64, roleID *int64) error {
	var role pgtype.Int8
	if roleID != nil {
		role = pgtype.Int8{Int64: *roleID, Valid: true}
	}
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1`, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetBlockedUntil blocks or unblocks a user account.
func (r *Repository) SetBlockedUntil(ctx context.Context, userID int64, until *pgtype.Timestamptz) error {
	var blocked pgtype.Timestamptz
	if until != nil {
		blocked = *until
	}
	tag, err := r.pool.Exec(ctx, `UPDATE users SET blocked_until = $2, updated_at = NOW() WHERE id = $1`, userID, blocked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user    User
		roleID  pgtype.Int8
		blocked pgtype.Timestamptz
		created pgtype.Timestamptz
		updated pgtype.Timestamptz
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &roleID, &user.IsActive, &user.IsVerified, &blocked, &created, &updated)
	if err != nil {
		return User{}, err
	}
	if roleID.Valid {
		user.RoleID = &roleID.Int64
	}
	if blocked.Valid {
		t := blocked.Time
		user.BlockedUntil = &t
	}
	user.CreatedAt = created.Time
	user.UpdatedAt = updated.Time
	return user, nil
}
