package jobposts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hirelink/hirelink/internal/platform/httpx"
	"github.com/hirelink/hirelink/internal/shared"
)

type fakeRepo struct {
	posts map[int64]JobPost
	next  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{posts: make(map[int64]JobPost), next: 1}
}

func (r *fakeRepo) ListJobPosts(ctx context.Context, companyID *int64) ([]JobPost, error) {
	var out []JobPost
	for _, post := range r.posts {
		if post.Status != StatusPublished {
			continue
		}
		if companyID != nil && post.CompanyID != *companyID {
			continue
		}
		out = append(out, post)
	}
	return out, nil
}

func (r *fakeRepo) GetJobPost(ctx context.Context, id int64) (JobPost, error) {
	post, ok := r.posts[id]
	if !ok {
		return JobPost{}, shared.ErrNotFound
	}
	return post, nil
}

func (r *fakeRepo) CreateJobPost(ctx context.Context, post JobPost) (JobPost, error) {
	post.ID = r.next
	r.posts[post.ID] = post
	r.next++
	return post, nil
}

func (r *fakeRepo) UpdateJobPost(ctx context.Context, id int64, title, description, location string) error {
	post, ok := r.posts[id]
	if !ok {
		return shared.ErrNotFound
	}
	post.Title, post.Description, post.Location = title, description, location
	r.posts[id] = post
	return nil
}

func (r *fakeRepo) SetStatus(ctx context.Context, id int64, status string) error {
	post, ok := r.posts[id]
	if !ok {
		return shared.ErrNotFound
	}
	post.Status = status
	r.posts[id] = post
	return nil
}

func TestCreateJobPostStartsAsDraft(t *testing.T) {
	svc := NewService(newFakeRepo())

	post, err := svc.CreateJobPost(context.Background(), 7, "Go engineer", "Build things", "Remote", 1)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, post.Status)
	require.Equal(t, int64(1), post.CreatedBy)

	// Drafts are not listed publicly.
	listed, err := svc.ListJobPosts(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestPublishAndClose(t *testing.T) {
	svc := NewService(newFakeRepo())
	post, err := svc.CreateJobPost(context.Background(), 7, "Go engineer", "Build things", "", 1)
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), post.ID, StatusPublished))
	listed, err := svc.ListJobPosts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.SetStatus(context.Background(), post.ID, StatusClosed))
	err = svc.SetStatus(context.Background(), post.ID, StatusPublished)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSetStatusValidation(t *testing.T) {
	svc := NewService(newFakeRepo())
	require.ErrorIs(t, svc.SetStatus(context.Background(), 1, "archived"), httpx.ErrValidation)
	require.ErrorIs(t, svc.SetStatus(context.Background(), 1, StatusPublished), shared.ErrNotFound)
}

func TestListFiltersByCompany(t *testing.T) {
	svc := NewService(newFakeRepo())
	a, _ := svc.CreateJobPost(context.Background(), 7, "Go engineer", "x", "", 1)
	b, _ := svc.CreateJobPost(context.Background(), 8, "Rust engineer", "y", "", 1)
	require.NoError(t, svc.SetStatus(context.Background(), a.ID, StatusPublished))
	require.NoError(t, svc.SetStatus(context.Background(), b.ID, StatusPublished))

	company := int64(7)
	listed, err := svc.ListJobPosts(context.Background(), &company)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, a.ID, listed[0].ID)
}
