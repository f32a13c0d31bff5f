package jobposts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
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

const jobPostColumns = `id, company_id, title, description, location, status, created_by, created_at, updated_at`

// ListJobPosts returns published posts, optionally filtered by company.
func (r *Repository) ListJobPosts(ctx context.Context, companyID *int64) ([]JobPost, error) {
	query := `SELECT ` + jobPostColumns + ` FROM job_posts WHERE status = 'published'`
	args := []any{}
	if companyID != nil {
		query += ` AND company_id = $1`
		args = append(args, *companyID)
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []JobPost
	for rows.Next() {
		post, err := scanJobPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// GetJobPost fetches one post by id regardless of status.
func (r *Repository) GetJobPost(ctx context.Context, id int64) (JobPost, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobPostColumns+` FROM job_posts WHERE id = $1`, id)
	post, err := scanJobPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JobPost{}, shared.ErrNotFound
		}
		return JobPost{}, err
	}
	return post, nil
}

// CreateJobPost inserts a draft post.
func (r *Repository) CreateJobPost(ctx context.Context, post JobPost) (JobPost, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO job_posts (company_id, title, description, location, status, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING `+jobPostColumns,
		post.CompanyID, post.Title, post.Description, post.Location, post.Status, post.CreatedBy)
	return scanJobPost(row)
}

// UpdateJobPost changes the post's content fields.
func (r *Repository) UpdateJobPost(ctx context.Context, id int64, title, description, location string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE job_posts SET title = $2, description = $3, location = $4, updated_at = NOW() WHERE id = $1`,
		id, title, description, location)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetStatus moves the post through its lifecycle.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE job_posts SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanJobPost(row pgx.Row) (JobPost, error) {
	var post JobPost
	err := row.Scan(&post.ID, &post.CompanyID, &post.Title, &post.Description, &post.Location,
		&post.Status, &post.CreatedBy, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return JobPost{}, err
	}
	return post, nil
}
