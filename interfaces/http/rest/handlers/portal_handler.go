package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/services"
	"github.com/hoyacom/apiman/domain/apis"
	"github.com/hoyacom/apiman/pkg/auth"
	"github.com/hoyacom/apiman/pkg/common"
)

// portalService is the slice of the portal service the handler uses.
type portalService interface {
	SearchApis(ctx context.Context, criteria apis.SearchCriteria) ([]apis.ApiSummary, int, error)
	FeaturedApis(ctx context.Context) ([]apis.ApiSummary, error)
	ApiVersions(ctx context.Context, orgID, apiID string) ([]apis.ApiVersionSummary, error)
	ApiVersion(ctx context.Context, orgID, apiID, version string) (*apis.ApiVersion, error)
	ApiVersionPlans(ctx context.Context, orgID, apiID, version string) ([]apis.PlanSummary, error)
	ApiVersionPolicies(ctx context.Context, orgID, apiID, version string) ([]apis.PolicySummary, error)
	ApiVersionDefinition(ctx context.Context, orgID, apiID, version string) (*apis.Definition, error)
	SignUp(ctx context.Context, username, orgID, apiID, version string, req services.ApiSignupRequest) error
}

// PortalHandler serves the developer portal endpoints.
type PortalHandler struct {
	service portalService
	logger  *zap.Logger
}

// NewPortalHandler creates a new portal handler.
func NewPortalHandler(service portalService, logger *zap.Logger) *PortalHandler {
	return &PortalHandler{service: service, logger: logger}
}

// SearchApis handles POST /devportal/apis/search
func (h *PortalHandler) SearchApis(w http.ResponseWriter, r *http.Request) {
	var criteria apis.SearchCriteria
	if err := common.ParseJSONBody(w, r, &criteria, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}
	if criteria.Page < 1 {
		criteria.Page = 1
	}
	if criteria.PageSize < 1 {
		criteria.PageSize = 20
	}

	results, total, err := h.service.SearchApis(r.Context(), criteria)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	params := common.PaginationParams{Page: criteria.Page, PageSize: criteria.PageSize}
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(results, params, total))
}

// FeaturedApis handles GET /devportal/apis/featured
func (h *PortalHandler) FeaturedApis(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.FeaturedApis(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, results)
}

// ApiVersions handles GET /devportal/organizations/{orgID}/apis/{apiID}/versions
func (h *PortalHandler) ApiVersions(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	apiID := chi.URLParam(r, "apiID")

	versions, err := h.service.ApiVersions(r.Context(), orgID, apiID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, versions)
}

// ApiVersion handles GET /devportal/organizations/{orgID}/apis/{apiID}/versions/{version}
func (h *PortalHandler) ApiVersion(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	apiID := chi.URLParam(r, "apiID")
	version := chi.URLParam(r, "version")

	v, err := h.service.ApiVersion(r.Context(), orgID, apiID, version)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, v)
}

// ApiVersionPlans handles GET .../versions/{version}/plans
func (h *PortalHandler) ApiVersionPlans(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	apiID := chi.URLParam(r, "apiID")
	version := chi.URLParam(r, "version")

	plans, err := h.service.ApiVersionPlans(r.Context(), orgID, apiID, version)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, plans)
}

// ApiVersionPolicies handles GET .../versions/{version}/policies
func (h *PortalHandler) ApiVersionPolicies(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	apiID := chi.URLParam(r, "apiID")
	version := chi.URLParam(r, "version")

	policies, err := h.service.ApiVersionPolicies(r.Context(), orgID, apiID, version)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, policies)
}

// ApiVersionDefinition handles GET .../versions/{version}/definition. The
// definition document is served raw with its own media type, not wrapped in
// the JSON envelope.
func (h *PortalHandler) ApiVersionDefinition(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	apiID := chi.URLParam(r, "apiID")
	version := chi.URLParam(r, "version")

	def, err := h.service.ApiVersionDefinition(r.Context(), orgID, apiID, version)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", def.Type.MediaType())
	w.WriteHeader(http.StatusOK)
	w.Write(def.Data)
}

// SignUp handles POST .../versions/{version}/signup
func (h *PortalHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	orgID := chi.URLParam(r, "orgID")
	apiID := chi.URLParam(r, "apiID")
	version := chi.URLParam(r, "version")

	var req services.ApiSignupRequest
	if err := common.ParseJSONBody(w, r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}

	if err := h.service.SignUp(r.Context(), user.Username, orgID, apiID, version, req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "signup requested"})
}

var _ portalService = (*services.PortalService)(nil)
