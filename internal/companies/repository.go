package companies

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelink/hirelink/internal/platform/httpx"
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

const companyColumns = `id, name, description, website, created_by, created_at, updated_at`

// ListCompanies returns companies ordered by name.
func (r *Repository) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Website, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// GetCompany fetches a company by id.
func (r *Repository) GetCompany(ctx context.Context, id int64) (Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.Website, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, shared.ErrNotFound
		}
		return Company{}, err
	}
	return c, nil
}

// CreateCompany inserts a company and seeds the creator as its first admin
// member in the same transaction.
func (r *Repository) CreateCompany(ctx context.Context, name, description, website string, createdBy int64) (Company, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Company{}, err
	}
	defer tx.Rollback(ctx)

	var c Company
	err = tx.QueryRow(ctx,
		`INSERT INTO companies (name, description, website, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING `+companyColumns,
		name, description, website, createdBy).
		Scan(&c.ID, &c.Name, &c.Description, &c.Website, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Company{}, mapPGError(err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO company_users (company_id, user_id, role, created_at) VALUES ($1, $2, 'admin', NOW())`,
		c.ID, createdBy)
	if err != nil {
		return Company{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Company{}, err
	}
	return c, nil
}

// UpdateCompany changes the company profile fields.
func (r *Repository) UpdateCompany(ctx context.Context, id int64, name, description, website string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE companies SET name = $2, description = $3, website = $4, updated_at = NOW() WHERE id = $1`,
		id, name, description, website)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListMembers returns company members ordered by join time.
func (r *Repository) ListMembers(ctx context.Context, companyID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT company_id, user_id, role, created_at FROM company_users WHERE company_id = $1 ORDER BY created_at`,
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.CompanyID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpsertMember adds a member or changes an existing member's role.
func (r *Repository) UpsertMember(ctx context.Context, companyID, userID int64, role string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO company_users (company_id, user_id, role, created_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (company_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		companyID, userID, role)
	return err
}

// RemoveMember deletes a membership row.
func (r *Repository) RemoveMember(ctx context.Context, companyID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM company_users WHERE company_id = $1 AND user_id = $2`, companyID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountAdmins returns how many admin members a company has.
func (r *Repository) CountAdmins(ctx context.Context, companyID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM company_users WHERE company_id = $1 AND role = 'admin'`, companyID).Scan(&n)
	return n, err
}

// ListFollowers returns followers, optionally only approved ones.
func (r *Repository) ListFollowers(ctx context.Context, companyID int64, approvedOnly bool) ([]Follower, error) {
	query := `SELECT company_id, user_id, approved, created_at FROM company_followers WHERE company_id = $1`
	if approvedOnly {
		query += ` AND approved`
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY created_at`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var followers []Follower
	for rows.Next() {
		var f Follower
		if err := rows.Scan(&f.CompanyID, &f.UserID, &f.Approved, &f.CreatedAt); err != nil {
			return nil, err
		}
		followers = append(followers, f)
	}
	return followers, rows.Err()
}

// AddFollower records a pending follow request. Re-following is a no-op and
// never resets an existing approval.
func (r *Repository) AddFollower(ctx context.Context, companyID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO company_followers (company_id, user_id, approved, created_at)
		 VALUES ($1, $2, FALSE, NOW())
		 ON CONFLICT (company_id, user_id) DO NOTHING`,
		companyID, userID)
	return err
}

// SetFollowerApproval flips the approved flag on an existing follow.
func (r *Repository) SetFollowerApproval(ctx context.Context, companyID, userID int64, approved bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE company_followers SET approved = $3 WHERE company_id = $1 AND user_id = $2`,
		companyID, userID, approved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RemoveFollower deletes a follow row.
func (r *Repository) RemoveFollower(ctx context.Context, companyID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM company_followers WHERE company_id = $1 AND user_id = $2`, companyID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return httpx.ErrDuplicate
	}
	return err
}
