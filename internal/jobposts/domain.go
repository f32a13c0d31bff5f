package jobposts

import "time"

// Status values for a job post.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusClosed    = "closed"
)

// JobPost is a vacancy published by a company.
type JobPost struct {
	ID          int64
	CompanyID   int64
	Title       string
	Description string
	Location    string
	Status      string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
