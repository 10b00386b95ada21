package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/events/bus"
	"github.com/hoyacom/apiman/application/ports"
	"github.com/hoyacom/apiman/domain/apis"
	"github.com/hoyacom/apiman/domain/events"
	apperrors "github.com/hoyacom/apiman/pkg/errors"
	"github.com/hoyacom/apiman/pkg/utils"
)

// EventSourcePortal tags events raised by portal operations.
const EventSourcePortal = "devportal"

// ApiSignupRequest is a developer's request to consume an API through a plan.
type ApiSignupRequest struct {
	PlanID      string `json:"plan_id" validate:"required"`
	PlanVersion string `json:"plan_version" validate:"required"`
}

// PortalService serves the public developer portal: the exposed API
// catalogue and plan signups. Only API versions flagged for portal exposure
// are ever returned; everything else behaves as if it did not exist.
type PortalService struct {
	apiRepo  ports.ApiRepository
	eventBus *bus.EventBus
	logger   *zap.Logger
}

// NewPortalService creates a new portal service.
func NewPortalService(apiRepo ports.ApiRepository, eventBus *bus.EventBus, logger *zap.Logger) *PortalService {
	return &PortalService{
		apiRepo:  apiRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// SearchApis searches the exposed API catalogue.
func (s *PortalService) SearchApis(ctx context.Context, criteria apis.SearchCriteria) ([]apis.ApiSummary, int, error) {
	if err := utils.ValidateStruct(criteria); err != nil {
		return nil, 0, apperrors.NewValidationError(err.Error())
	}
	if criteria.Page < 1 {
		criteria.Page = 1
	}
	if criteria.PageSize < 1 {
		criteria.PageSize = 20
	}

	results, total, err := s.apiRepo.Search(ctx, criteria)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError("search apis", err)
	}
	if results == nil {
		results = []apis.ApiSummary{}
	}
	return results, total, nil
}

// FeaturedApis returns the APIs curated onto the portal landing page.
func (s *PortalService) FeaturedApis(ctx context.Context) ([]apis.ApiSummary, error) {
	results, err := s.apiRepo.ListFeatured(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list featured apis", err)
	}
	if results == nil {
		results = []apis.ApiSummary{}
	}
	return results, nil
}

// ApiVersions lists the versions of an API that are exposed in the portal.
func (s *PortalService) ApiVersions(ctx context.Context, orgID, apiID string) ([]apis.ApiVersionSummary, error) {
	versions, err := s.apiRepo.ListVersions(ctx, orgID, apiID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list api versions", err)
	}

	exposed := make([]apis.ApiVersionSummary, 0, len(versions))
	for _, v := range versions {
		if v.ExposeInPortal {
			exposed = append(exposed, v)
		}
	}
	return exposed, nil
}

// ApiVersion returns a single exposed API version. Versions that exist but
// are not exposed report not found, the same as versions that do not exist.
func (s *PortalService) ApiVersion(ctx context.Context, orgID, apiID, version string) (*apis.ApiVersion, error) {
	v, err := s.apiRepo.GetVersion(ctx, orgID, apiID, version)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get api version", err)
	}
	if v == nil || !v.ExposeInPortal {
		return nil, apperrors.NewNotFoundError("api version")
	}
	return v, nil
}

// ApiVersionPlans lists the plans a developer can sign up to on an exposed
// API version.
func (s *PortalService) ApiVersionPlans(ctx context.Context, orgID, apiID, version string) ([]apis.PlanSummary, error) {
	if _, err := s.ApiVersion(ctx, orgID, apiID, version); err != nil {
		return nil, err
	}

	plans, err := s.apiRepo.ListPlans(ctx, orgID, apiID, version)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list api plans", err)
	}
	if plans == nil {
		plans = []apis.PlanSummary{}
	}
	return plans, nil
}

// ApiVersionPolicies lists the policies attached to an exposed API version.
func (s *PortalService) ApiVersionPolicies(ctx context.Context, orgID, apiID, version string) ([]apis.PolicySummary, error) {
	if _, err := s.ApiVersion(ctx, orgID, apiID, version); err != nil {
		return nil, err
	}

	policies, err := s.apiRepo.ListPolicies(ctx, orgID, apiID, version)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list api policies", err)
	}
	if policies == nil {
		policies = []apis.PolicySummary{}
	}
	return policies, nil
}

// ApiVersionDefinition returns the definition document of an exposed API
// version along with its media type.
func (s *PortalService) ApiVersionDefinition(ctx context.Context, orgID, apiID, version string) (*apis.Definition, error) {
	if _, err := s.ApiVersion(ctx, orgID, apiID, version); err != nil {
		return nil, err
	}

	def, err := s.apiRepo.GetDefinition(ctx, orgID, apiID, version)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get api definition", err)
	}
	if def == nil || len(def.Data) == 0 {
		return nil, apperrors.NewNotFoundError("api definition")
	}
	return def, nil
}

// SignUp registers the developer's interest in a plan of an exposed API
// version and raises an ApiSignupEvent. Plans that require approval flag the
// event so the api-approver role gets notified.
func (s *PortalService) SignUp(ctx context.Context, username, orgID, apiID, version string, req ApiSignupRequest) error {
	if username == "" {
		return apperrors.NewUnauthorizedError("must be logged in to sign up")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	plans, err := s.ApiVersionPlans(ctx, orgID, apiID, version)
	if err != nil {
		return err
	}

	var plan *apis.PlanSummary
	for i := range plans {
		if plans[i].PlanID == req.PlanID && plans[i].Version == req.PlanVersion {
			plan = &plans[i]
			break
		}
	}
	if plan == nil {
		return apperrors.NewNotFoundError("plan")
	}

	event := events.NewApiSignupEvent(
		EventSourcePortal,
		username,
		orgID,
		apiID,
		version,
		plan.PlanID,
		plan.Version,
		plan.RequiresApproval,
		time.Now(),
	)

	if err := s.eventBus.Publish(ctx, event); err != nil {
		return apperrors.NewInternalError("failed to publish signup event").WithCause(err)
	}

	s.logger.Info("Api signup requested",
		zap.String("username", username),
		zap.String("orgID", orgID),
		zap.String("apiID", apiID),
		zap.String("version", version),
		zap.String("planID", plan.PlanID),
		zap.Bool("approvalRequired", plan.RequiresApproval),
	)

	return nil
}
