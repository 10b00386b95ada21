package users

import "time"

// AccountStatus tracks the lifecycle of a user account.
type AccountStatus string

const (
	// StatusPendingApproval means the account exists but an approver has not
	// accepted it yet.
	StatusPendingApproval AccountStatus = "PENDING_APPROVAL"
	StatusApproved        AccountStatus = "APPROVED"
)

// Well-known roles.
const (
	RoleApprover    = "approver"
	RoleApiApprover = "api-approver"
)

// User is a portal user account.
type User struct {
	Username  string        `json:"username"`
	FullName  string        `json:"full_name,omitempty"`
	Email     string        `json:"email,omitempty"`
	Locale    string        `json:"locale,omitempty"`
	Status    AccountStatus `json:"status"`
	JoinedAt  time.Time     `json:"joined_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
