package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/services"
	"github.com/hoyacom/apiman/pkg/common"
)

// ssoEventService is the slice of the SSO event service the handler uses.
type ssoEventService interface {
	AccountSignup(ctx context.Context, req services.NewAccountCreated) error
}

// SsoHandler receives callbacks from the identity provider.
type SsoHandler struct {
	service ssoEventService
	logger  *zap.Logger
}

// NewSsoHandler creates a new SSO handler.
func NewSsoHandler(service ssoEventService, logger *zap.Logger) *SsoHandler {
	return &SsoHandler{service: service, logger: logger}
}

// NewAccount handles POST /events/sso/new-account
func (h *SsoHandler) NewAccount(w http.ResponseWriter, r *http.Request) {
	var req services.NewAccountCreated
	if err := common.ParseJSONBody(w, r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}

	if err := h.service.AccountSignup(r.Context(), req); err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var _ ssoEventService = (*services.SsoEventService)(nil)
