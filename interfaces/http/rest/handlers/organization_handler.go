package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/services"
	"github.com/hoyacom/apiman/domain/orgs"
	"github.com/hoyacom/apiman/pkg/auth"
	"github.com/hoyacom/apiman/pkg/common"
)

// organizationService is the slice of the organization service the handler
// uses.
type organizationService interface {
	CreateHomeOrg(ctx context.Context, username string, req orgs.NewOrganization) (*orgs.Organization, error)
}

// OrganizationHandler serves the portal organization endpoints.
type OrganizationHandler struct {
	service organizationService
	logger  *zap.Logger
}

// NewOrganizationHandler creates a new organization handler.
func NewOrganizationHandler(service organizationService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{service: service, logger: logger}
}

// CreateHomeOrg handles POST /devportal/organizations. A developer's home
// organization is named after them; requesting any other name is rejected.
func (h *OrganizationHandler) CreateHomeOrg(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req orgs.NewOrganization
	if err := common.ParseJSONBody(w, r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}

	org, err := h.service.CreateHomeOrg(r.Context(), user.Username, req)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, org)
}

var _ organizationService = (*services.OrganizationService)(nil)
