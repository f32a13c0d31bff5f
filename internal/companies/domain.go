package companies

import "time"

// Company is an employer profile on the platform.
type Company struct {
	ID          int64
	Name        string
	Description string
	Website     string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member links a user to a company with a membership role. The "admin" role
// carries company-administration rights.
type Member struct {
	CompanyID int64
	UserID    int64
	Role      string
	CreatedAt time.Time
}

// Follower is a user following a company. Approval is granted by a company
// admin and unlocks follower-only content.
type Follower struct {
	CompanyID int64
	UserID    int64
	Approved  bool
	CreatedAt time.Time
}
