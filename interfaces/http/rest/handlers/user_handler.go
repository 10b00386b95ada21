package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/services"
	"github.com/hoyacom/apiman/domain/users"
	"github.com/hoyacom/apiman/pkg/auth"
	"github.com/hoyacom/apiman/pkg/common"
)

// userService is the slice of the user service the handler uses.
type userService interface {
	GetUser(ctx context.Context, username string) (*users.User, error)
	ApproveAccount(ctx context.Context, username, approver string) error
}

// UserHandler serves the user administration endpoints.
type UserHandler struct {
	service userService
	logger  *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service userService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// GetUser handles GET /users/{username}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.service.GetUser(r.Context(), username)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, user)
}

// ApproveAccount handles PUT /users/{username}/approve
func (h *UserHandler) ApproveAccount(w http.ResponseWriter, r *http.Request) {
	approver, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.service.ApproveAccount(r.Context(), username, approver.Username); err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var _ userService = (*services.UserService)(nil)
