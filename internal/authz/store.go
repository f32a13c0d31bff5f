package authz

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelink/hirelink/internal/platform/db"
)

// Store is the narrow data-access surface the engine depends on. Every read
// and write is a single equality-conditioned statement; the only multi-step
// sequence is the assign transaction, expressed through WithinTx.
type Store interface {
	// WithinTx runs fn against a transactional view of the store. The
	// assign lifecycle relies on this to make its delete-check-insert
	// sequence atomic.
	WithinTx(ctx context.Context, fn func(Store) error) error

	// GetSubject loads account state for the gate and resolver. A missing
	// user yields ErrInvalidSubject.
	GetSubject(ctx context.Context, userID int64) (Subject, error)

	// GetPermission returns permission metadata, or nil when the code is
	// unknown (not an error: unknown codes simply resolve to deny).
	GetPermission(ctx context.Context, code string) (*Permission, error)

	RoleHasPermission(ctx context.Context, roleID int64, code string) (bool, error)
	ListRoleCodes(ctx context.Context, roleID int64) ([]string, error)

	// ListOverrides returns override rows for one (user, code, company)
	// key. A nil companyID matches only global rows.
	ListOverrides(ctx context.Context, userID int64, code string, companyID *int64) ([]Override, error)
	// ListUserOverrides returns all override rows for a user, filtered to
	// one company key when companyID is set.
	ListUserOverrides(ctx context.Context, userID int64, companyID *int64) ([]Override, error)
	InsertOverride(ctx context.Context, o Override) error
	DeleteOverrides(ctx context.Context, userID int64, code string, companyID *int64, action OverrideAction) (int64, error)
	DeleteExpiredOverrides(ctx context.Context, before time.Time) (int64, error)

	// Relationship facts, read-only to this package.
	IsCreator(ctx context.Context, ownerTable string, entityID, userID int64) (bool, error)
	MemberRole(ctx context.Context, companyID, userID int64) (string, bool, error)
	Follower(ctx context.Context, companyID, userID int64) (approved, found bool, err error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore implements Store against PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
	q    querier
}

// NewPGStore constructs a PGStore backed by the provided pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, q: pool}
}

// WithinTx executes fn with a transaction-scoped store.
func (s *PGStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// Already inside a transaction; reuse it.
		return fn(s)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&PGStore{q: tx})
	})
}

// GetSubject loads the account fields the gate needs.
func (s *PGStore) GetSubject(ctx context.Context, userID int64) (Subject, error) {
	const query = `SELECT id, role_id, is_verified, blocked_until FROM users WHERE id = $1`
	var (
		sub     Subject
		roleID  pgtype.Int8
		blocked pgtype.Timestamptz
	)
	err := s.q.QueryRow(ctx, query, userID).Scan(&sub.ID, &roleID, &sub.Verified, &blocked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subject{}, ErrInvalidSubject
		}
		return Subject{}, err
	}
	if roleID.Valid {
		sub.RoleID = &roleID.Int64
	}
	if blocked.Valid {
		t := blocked.Time
		sub.BlockedUntil = &t
	}
	return sub, nil
}

// GetPermission fetches permission metadata by code.
func (s *PGStore) GetPermission(ctx context.Context, code string) (*Permission, error) {
	const query = `SELECT code, description, access_level, is_public FROM permissions WHERE code = $1`
	var (
		perm  Permission
		level pgtype.Text
	)
	err := s.q.QueryRow(ctx, query, code).Scan(&perm.Code, &perm.Description, &level, &perm.Public)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if level.Valid {
		perm.AccessLevel = Scope(level.String)
	}
	return &perm, nil
}

// RoleHasPermission checks for a direct role-permission association.
func (s *PGStore) RoleHasPermission(ctx context.Context, roleID int64, code string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 AND p.code = $2)`
	var exists bool
	if err := s.q.QueryRow(ctx, query, roleID, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListRoleCodes returns all permission codes associated with a role.
func (s *PGStore) ListRoleCodes(ctx context.Context, roleID int64) ([]string, error) {
	const query = `SELECT p.code FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1`
	rows, err := s.q.Query(ctx, query, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

const overrideColumns = `id, user_id, permission_code, company_id, action, granted_by, note, expires_at, created_at`

// ListOverrides returns override rows for one (user, code, company) key.
func (s *PGStore) ListOverrides(ctx context.Context, userID int64, code string, companyID *int64) ([]Override, error) {
	query := `SELECT ` + overrideColumns + ` FROM user_permission_overrides WHERE user_id = $1 AND permission_code = $2 AND company_id IS NULL`
	args := []any{userID, code}
	if companyID != nil {
		query = `SELECT ` + overrideColumns + ` FROM user_permission_overrides WHERE user_id = $1 AND permission_code = $2 AND company_id = $3`
		args = append(args, *companyID)
	}
	return s.queryOverrides(ctx, query, args...)
}

// ListUserOverrides returns all override rows for a user.
func (s *PGStore) ListUserOverrides(ctx context.Context, userID int64, companyID *int64) ([]Override, error) {
	query := `SELECT ` + overrideColumns + ` FROM user_permission_overrides WHERE user_id = $1 AND company_id IS NULL`
	args := []any{userID}
	if companyID != nil {
		query = `SELECT ` + overrideColumns + ` FROM user_permission_overrides WHERE user_id = $1 AND company_id = $2`
		args = append(args, *companyID)
	}
	return s.queryOverrides(ctx, query, args...)
}

func (s *PGStore) queryOverrides(ctx context.Context, query string, args ...any) ([]Override, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var overrides []Override
	for rows.Next() {
		var (
			o         Override
			companyID pgtype.Int8
			grantedBy pgtype.Int8
			note      pgtype.Text
			expiresAt pgtype.Timestamptz
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.Code, &companyID, &o.Action, &grantedBy, &note, &expiresAt, &createdAt); err != nil {
			return nil, err
		}
		if companyID.Valid {
			o.CompanyID = &companyID.Int64
		}
		if grantedBy.Valid {
			o.GrantedBy = &grantedBy.Int64
		}
		o.Note = note.String
		if expiresAt.Valid {
			t := expiresAt.Time
			o.ExpiresAt = &t
		}
		o.CreatedAt = createdAt.Time
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// InsertOverride persists a new override row.
func (s *PGStore) InsertOverride(ctx context.Context, o Override) error {
	const query = `INSERT INTO user_permission_overrides (user_id, permission_code, company_id, action, granted_by, note, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var companyID pgtype.Int8
	if o.CompanyID != nil {
		companyID = pgtype.Int8{Int64: *o.CompanyID, Valid: true}
	}
	var grantedBy pgtype.Int8
	if o.GrantedBy != nil {
		grantedBy = pgtype.Int8{Int64: *o.GrantedBy, Valid: true}
	}
	var expiresAt pgtype.Timestamptz
	if o.ExpiresAt != nil {
		expiresAt = pgtype.Timestamptz{Time: o.ExpiresAt.UTC(), Valid: true}
	}
	_, err := s.q.Exec(ctx, query,
		o.UserID, o.Code, companyID, string(o.Action), grantedBy,
		pgtype.Text{String: o.Note, Valid: o.Note != ""},
		expiresAt,
		pgtype.Timestamptz{Time: o.CreatedAt.UTC(), Valid: true},
	)
	return err
}

// DeleteOverrides removes rows for one key and action, returning the count.
func (s *PGStore) DeleteOverrides(ctx context.Context, userID int64, code string, companyID *int64, action OverrideAction) (int64, error) {
	query := `DELETE FROM user_permission_overrides WHERE user_id = $1 AND permission_code = $2 AND action = $3 AND company_id IS NULL`
	args := []any{userID, code, string(action)}
	if companyID != nil {
		query = `DELETE FROM user_permission_overrides WHERE user_id = $1 AND permission_code = $2 AND action = $3 AND company_id = $4`
		args = append(args, *companyID)
	}
	tag, err := s.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteExpiredOverrides garbage-collects rows whose expiry has passed.
// Correctness never depends on this; expired rows are already treated as
// absent on every read.
func (s *PGStore) DeleteExpiredOverrides(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM user_permission_overrides WHERE expires_at IS NOT NULL AND expires_at <= $1`
	tag, err := s.q.Exec(ctx, query, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// creatorQueries enumerates the creator-of existence checks per relation.
// Keeping them literal avoids interpolating table names into SQL.
var creatorQueries = map[string]string{
	"companies": `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1 AND created_by = $2)`,
	"job_posts": `SELECT EXISTS (SELECT 1 FROM job_posts WHERE id = $1 AND created_by = $2)`,
	"profiles":  `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1 AND created_by = $2)`,
}

// IsCreator reports whether a creator-of fact exists.
func (s *PGStore) IsCreator(ctx context.Context, ownerTable string, entityID, userID int64) (bool, error) {
	query, ok := creatorQueries[ownerTable]
	if !ok {
		return false, nil
	}
	var exists bool
	if err := s.q.QueryRow(ctx, query, entityID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// MemberRole returns the member-of fact and its role column.
func (s *PGStore) MemberRole(ctx context.Context, companyID, userID int64) (string, bool, error) {
	const query = `SELECT role FROM company_users WHERE company_id = $1 AND user_id = $2`
	var role string
	err := s.q.QueryRow(ctx, query, companyID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return role, true, nil
}

// Follower returns the follower-of fact and its approved flag.
func (s *PGStore) Follower(ctx context.Context, companyID, userID int64) (bool, bool, error) {
	const query = `SELECT approved FROM company_followers WHERE company_id = $1 AND user_id = $2`
	var approved bool
	err := s.q.QueryRow(ctx, query, companyID, userID).Scan(&approved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, err
	}
	return approved, true, nil
}

var _ Store = (*PGStore)(nil)
