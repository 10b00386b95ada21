package services

import (
	"context"
	"sync"

	"github.com/hoyacom/apiman/domain/apis"
	notifdomain "github.com/hoyacom/apiman/domain/notifications"
	"github.com/hoyacom/apiman/domain/orgs"
	"github.com/hoyacom/apiman/domain/users"
)

// fakeNotificationRepo is an in-memory ports.NotificationRepository.
type fakeNotificationRepo struct {
	mu            sync.Mutex
	created       []notifdomain.Notification
	preferences   map[string]notifdomain.Preference
	markReadCalls []markReadCall
	createErr     error
}

type markReadCall struct {
	recipient string
	ids       []string
	status    notifdomain.Status
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{preferences: make(map[string]notifdomain.Preference)}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n notifdomain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) ListUnreadByRecipient(ctx context.Context, recipient string, limit, offset int) ([]notifdomain.Notification, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var unread []notifdomain.Notification
	for _, n := range f.created {
		if n.Recipient == recipient && n.Status == notifdomain.StatusOpen {
			unread = append(unread, n)
		}
	}
	total := len(unread)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return unread[offset:end], total, nil
}

func (f *fakeNotificationRepo) CountUnreadByRecipient(ctx context.Context, recipient string) (int, error) {
	_, total, err := f.ListUnreadByRecipient(ctx, recipient, 0, 0)
	return total, err
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, recipient string, ids []string, status notifdomain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadCalls = append(f.markReadCalls, markReadCall{recipient: recipient, ids: ids, status: status})
	return nil
}

func (f *fakeNotificationRepo) GetPreference(ctx context.Context, username, notificationType string) (*notifdomain.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pref, ok := f.preferences[username+"/"+notificationType]
	if !ok {
		return nil, nil
	}
	return &pref, nil
}

func (f *fakeNotificationRepo) SavePreference(ctx context.Context, pref notifdomain.Preference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preferences[pref.Username+"/"+pref.NotificationType] = pref
	return nil
}

// fakeUserRepo is an in-memory ports.UserRepository.
type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]users.User
	roles   map[string][]string
	created []users.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[string]users.User),
		roles: make(map[string][]string),
	}
}

func (f *fakeUserRepo) add(u users.User, roles ...string) {
	f.users[u.Username] = u
	for _, role := range roles {
		f.roles[role] = append(f.roles[role], u.Username)
	}
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u users.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.Username] = u
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUserRepo) SetStatus(ctx context.Context, username string, status users.AccountStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if ok {
		u.Status = status
		f.users[username] = u
	}
	return nil
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, role string) ([]users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var members []users.User
	for _, username := range f.roles[role] {
		if u, ok := f.users[username]; ok {
			members = append(members, u)
		}
	}
	return members, nil
}

func (f *fakeUserRepo) AddRole(ctx context.Context, username, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[role] = append(f.roles[role], username)
	return nil
}

// fakeApiRepo is an in-memory ports.ApiRepository.
type fakeApiRepo struct {
	summaries  []apis.ApiSummary
	featured   []apis.ApiSummary
	versions   []apis.ApiVersionSummary
	version    *apis.ApiVersion
	plans      []apis.PlanSummary
	policies   []apis.PolicySummary
	definition *apis.Definition
}

func (f *fakeApiRepo) Search(ctx context.Context, criteria apis.SearchCriteria) ([]apis.ApiSummary, int, error) {
	return f.summaries, len(f.summaries), nil
}

func (f *fakeApiRepo) ListFeatured(ctx context.Context) ([]apis.ApiSummary, error) {
	return f.featured, nil
}

func (f *fakeApiRepo) ListVersions(ctx context.Context, orgID, apiID string) ([]apis.ApiVersionSummary, error) {
	return f.versions, nil
}

func (f *fakeApiRepo) GetVersion(ctx context.Context, orgID, apiID, version string) (*apis.ApiVersion, error) {
	return f.version, nil
}

func (f *fakeApiRepo) ListPlans(ctx context.Context, orgID, apiID, version string) ([]apis.PlanSummary, error) {
	return f.plans, nil
}

func (f *fakeApiRepo) ListPolicies(ctx context.Context, orgID, apiID, version string) ([]apis.PolicySummary, error) {
	return f.policies, nil
}

func (f *fakeApiRepo) GetDefinition(ctx context.Context, orgID, apiID, version string) (*apis.Definition, error) {
	return f.definition, nil
}

// fakeOrgRepo is an in-memory ports.OrganizationRepository.
type fakeOrgRepo struct {
	orgs map[string]orgs.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[string]orgs.Organization)}
}

func (f *fakeOrgRepo) GetByName(ctx context.Context, name string) (*orgs.Organization, error) {
	org, ok := f.orgs[name]
	if !ok {
		return nil, nil
	}
	return &org, nil
}

func (f *fakeOrgRepo) Create(ctx context.Context, org orgs.Organization) error {
	f.orgs[org.Name] = org
	return nil
}
