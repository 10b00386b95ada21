package apis

import "time"

// DefinitionType identifies the format an API definition is stored in.
type DefinitionType string

const (
	DefinitionJSON DefinitionType = "SwaggerJSON"
	DefinitionYAML DefinitionType = "SwaggerYAML"
	DefinitionWSDL DefinitionType = "WSDL"
	DefinitionNone DefinitionType = "None"
)

// MediaType returns the HTTP content type used when serving a definition.
func (t DefinitionType) MediaType() string {
	switch t {
	case DefinitionJSON:
		return "application/json"
	case DefinitionYAML:
		return "application/x-yaml"
	case DefinitionWSDL:
		return "text/xml"
	default:
		return "application/octet-stream"
	}
}

// ApiSummary is the portal-facing card for an API.
type ApiSummary struct {
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Image            string    `json:"image,omitempty"`
	Featured         bool      `json:"featured"`
	CreatedAt        time.Time `json:"created_at"`
}

// ApiVersionSummary is the per-version row in a version listing.
type ApiVersionSummary struct {
	OrganizationID string `json:"organization_id"`
	ApiID          string `json:"api_id"`
	Version        string `json:"version"`
	Status         string `json:"status"`
	ExposeInPortal bool   `json:"expose_in_portal"`
}

// ApiVersion is the full detail of a published API version.
type ApiVersion struct {
	OrganizationID string         `json:"organization_id"`
	ApiID          string         `json:"api_id"`
	Version        string         `json:"version"`
	Status         string         `json:"status"`
	Endpoint       string         `json:"endpoint,omitempty"`
	ExposeInPortal bool           `json:"expose_in_portal"`
	DefinitionType DefinitionType `json:"definition_type"`
	CreatedAt      time.Time      `json:"created_at"`
	ModifiedAt     time.Time      `json:"modified_at"`
}

// PlanSummary describes a plan available for signup on an API version.
type PlanSummary struct {
	PlanID           string `json:"plan_id"`
	PlanName         string `json:"plan_name"`
	Version          string `json:"version"`
	Description      string `json:"description,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
}

// PolicySummary is the portal-visible view of a policy attached to an API
// version. Configuration details stay internal.
type PolicySummary struct {
	PolicyDefinitionID string `json:"policy_definition_id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
}

// Definition is an API definition document plus its format.
type Definition struct {
	Data []byte
	Type DefinitionType
}

// SearchCriteria is the portal search request.
type SearchCriteria struct {
	Query    string `json:"query"`
	Page     int    `json:"page" validate:"omitempty,min=1"`
	PageSize int    `json:"page_size" validate:"omitempty,min=1,max=100"`
}
