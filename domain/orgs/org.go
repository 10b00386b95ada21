package orgs

import "time"

// Organization groups APIs, plans and clients under a shared namespace.
type Organization struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewOrganization is the creation request for an organization.
type NewOrganization struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description,omitempty" validate:"omitempty,max=512"`
}
