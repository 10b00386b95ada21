package ports

import (
	"context"

	"github.com/hoyacom/apiman/domain/apis"
	"github.com/hoyacom/apiman/domain/notifications"
	"github.com/hoyacom/apiman/domain/orgs"
	"github.com/hoyacom/apiman/domain/users"
)

// NotificationRepository persists notification records and preferences.
type NotificationRepository interface {
	// Create stores a new notification record.
	Create(ctx context.Context, n notifications.Notification) error

	// ListUnreadByRecipient returns a page of OPEN notifications for the
	// recipient, newest first, plus the total unread count.
	ListUnreadByRecipient(ctx context.Context, recipient string, limit, offset int) ([]notifications.Notification, int, error)

	// CountUnreadByRecipient returns the number of OPEN notifications.
	CountUnreadByRecipient(ctx context.Context, recipient string) (int, error)

	// MarkRead sets the status of the given notification IDs. Ownership is
	// keyed on recipient: IDs that do not belong to the recipient (or do not
	// exist) are silently skipped.
	MarkRead(ctx context.Context, recipient string, ids []string, status notifications.Status) error

	// GetPreference returns the recipient's preference for a notification
	// type, or nil when none has been stored.
	GetPreference(ctx context.Context, username, notificationType string) (*notifications.Preference, error)

	// SavePreference stores or replaces a preference.
	SavePreference(ctx context.Context, pref notifications.Preference) error
}

// UserRepository persists user accounts and role memberships.
type UserRepository interface {
	// GetByUsername returns the user, or nil when unknown.
	GetByUsername(ctx context.Context, username string) (*users.User, error)

	// Create stores a new user account.
	Create(ctx context.Context, u users.User) error

	// SetStatus updates the account lifecycle status.
	SetStatus(ctx context.Context, username string, status users.AccountStatus) error

	// ListByRole returns every user holding the given role.
	ListByRole(ctx context.Context, role string) ([]users.User, error)

	// AddRole grants a role to a user.
	AddRole(ctx context.Context, username, role string) error
}

// ApiRepository reads the API catalogue exposed through the portal.
type ApiRepository interface {
	Search(ctx context.Context, criteria apis.SearchCriteria) ([]apis.ApiSummary, int, error)
	ListFeatured(ctx context.Context) ([]apis.ApiSummary, error)
	ListVersions(ctx context.Context, orgID, apiID string) ([]apis.ApiVersionSummary, error)

	// GetVersion returns the version, or nil when unknown.
	GetVersion(ctx context.Context, orgID, apiID, version string) (*apis.ApiVersion, error)
	ListPlans(ctx context.Context, orgID, apiID, version string) ([]apis.PlanSummary, error)
	ListPolicies(ctx context.Context, orgID, apiID, version string) ([]apis.PolicySummary, error)

	// GetDefinition returns the stored definition document, or nil when the
	// version has none.
	GetDefinition(ctx context.Context, orgID, apiID, version string) (*apis.Definition, error)
}

// OrganizationRepository persists organizations.
type OrganizationRepository interface {
	// GetByName returns the organization, or nil when unknown.
	GetByName(ctx context.Context, name string) (*orgs.Organization, error)
	Create(ctx context.Context, org orgs.Organization) error
}

// ConnectionStore tracks active websocket connections per user.
type ConnectionStore interface {
	ListByUser(ctx context.Context, username string) ([]string, error)
	Delete(ctx context.Context, connectionID string) error
}

// EmailSender delivers rendered notification emails.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ExternalEventPublisher forwards domain events to an external bus for
// off-process integrations.
type ExternalEventPublisher interface {
	Publish(ctx context.Context, detailType string, event interface{}) error
}
