package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/services"
	notifdomain "github.com/hoyacom/apiman/domain/notifications"
	"github.com/hoyacom/apiman/pkg/auth"
	"github.com/hoyacom/apiman/pkg/common"
)

// notificationService is the slice of the notification service the handler
// uses.
type notificationService interface {
	LatestNotifications(ctx context.Context, recipient string, params common.PaginationParams) (*common.PaginatedResult, error)
	UnreadCount(ctx context.Context, recipient string) (int, error)
	MarkRead(ctx context.Context, recipient string, ids []string, status notifdomain.Status) error
	GetPreference(ctx context.Context, username, notificationType string) (notifdomain.Preference, error)
	SetPreference(ctx context.Context, pref notifdomain.Preference) error
}

// markReadRequest is the body of PUT /users/me/notifications.
type markReadRequest struct {
	IDs    []string           `json:"ids"`
	Status notifdomain.Status `json:"status"`
}

// preferenceRequest is the body of PUT /users/me/notifications/preferences/{type}.
type preferenceRequest struct {
	Enabled bool `json:"enabled"`
}

// NotificationHandler serves the current user's notification endpoints.
// Every operation is scoped to the authenticated caller; there is no way to
// read or modify another user's notifications through this surface.
type NotificationHandler struct {
	service notificationService
	logger  *zap.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(service notificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

// Latest handles GET /users/me/notifications
func (h *NotificationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	params := common.ExtractPaginationParams(r)
	result, err := h.service.LatestNotifications(r.Context(), user.Username, params)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// UnreadCount handles GET /users/me/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), user.Username)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead handles PUT /users/me/notifications
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req markReadRequest
	if err := common.ParseJSONBody(w, r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}
	if req.Status == "" {
		req.Status = notifdomain.StatusUserDismissed
	}

	if err := h.service.MarkRead(r.Context(), user.Username, req.IDs, req.Status); err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPreference handles GET /users/me/notifications/preferences/{type}
func (h *NotificationHandler) GetPreference(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	notificationType := chi.URLParam(r, "type")
	pref, err := h.service.GetPreference(r.Context(), user.Username, notificationType)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, pref)
}

// SetPreference handles PUT /users/me/notifications/preferences/{type}
func (h *NotificationHandler) SetPreference(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req preferenceRequest
	if err := common.ParseJSONBody(w, r, &req, 1<<12); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}

	pref := notifdomain.Preference{
		Username:         user.Username,
		NotificationType: chi.URLParam(r, "type"),
		Enabled:          req.Enabled,
	}
	if err := h.service.SetPreference(r.Context(), pref); err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, pref)
}

var _ notificationService = (*services.NotificationService)(nil)
