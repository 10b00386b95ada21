package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	notifdomain "github.com/hoyacom/apiman/domain/notifications"
	"github.com/hoyacom/apiman/pkg/auth"
	"github.com/hoyacom/apiman/pkg/common"
)

type stubNotificationService struct {
	unread        int
	markReadCalls []struct {
		recipient string
		ids       []string
		status    notifdomain.Status
	}
	savedPrefs []notifdomain.Preference
}

func (s *stubNotificationService) LatestNotifications(ctx context.Context, recipient string, params common.PaginationParams) (*common.PaginatedResult, error) {
	return common.NewPaginatedResult([]notifdomain.Notification{}, params, 0), nil
}

func (s *stubNotificationService) UnreadCount(ctx context.Context, recipient string) (int, error) {
	return s.unread, nil
}

func (s *stubNotificationService) MarkRead(ctx context.Context, recipient string, ids []string, status notifdomain.Status) error {
	s.markReadCalls = append(s.markReadCalls, struct {
		recipient string
		ids       []string
		status    notifdomain.Status
	}{recipient, ids, status})
	return nil
}

func (s *stubNotificationService) GetPreference(ctx context.Context, username, notificationType string) (notifdomain.Preference, error) {
	return notifdomain.Preference{Username: username, NotificationType: notificationType, Enabled: true}, nil
}

func (s *stubNotificationService) SetPreference(ctx context.Context, pref notifdomain.Preference) error {
	s.savedPrefs = append(s.savedPrefs, pref)
	return nil
}

func notificationTestRouter(svc *stubNotificationService) http.Handler {
	h := NewNotificationHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/users/me/notifications", h.Latest)
	r.Get("/users/me/notifications/unread-count", h.UnreadCount)
	r.Put("/users/me/notifications", h.MarkRead)
	r.Get("/users/me/notifications/preferences/{type}", h.GetPreference)
	r.Put("/users/me/notifications/preferences/{type}", h.SetPreference)
	return r
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.SetUserInContext(req.Context(), &auth.UserContext{Username: "alice"})
	return req.WithContext(ctx)
}

func TestUnreadCountEndpoint(t *testing.T) {
	svc := &stubNotificationService{unread: 3}
	router := notificationTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/me/notifications/unread-count", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope common.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 3, data["unread"])
}

func TestUnreadCountRequiresAuth(t *testing.T) {
	router := notificationTestRouter(&stubNotificationService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me/notifications/unread-count", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMarkReadEndpoint(t *testing.T) {
	t.Run("defaults the status to USER_DISMISSED", func(t *testing.T) {
		svc := &stubNotificationService{}
		router := notificationTestRouter(svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPut, "/users/me/notifications", `{"ids":["n-1","n-2"]}`))

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Len(t, svc.markReadCalls, 1)
		call := svc.markReadCalls[0]
		assert.Equal(t, "alice", call.recipient)
		assert.Equal(t, []string{"n-1", "n-2"}, call.ids)
		assert.Equal(t, notifdomain.StatusUserDismissed, call.status)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		svc := &stubNotificationService{}
		router := notificationTestRouter(svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPut, "/users/me/notifications", `{"bogus":true}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.markReadCalls)
	})
}

func TestSetPreferenceEndpoint(t *testing.T) {
	svc := &stubNotificationService{}
	router := notificationTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/users/me/notifications/preferences/email", `{"enabled":false}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.savedPrefs, 1)
	pref := svc.savedPrefs[0]
	assert.Equal(t, "alice", pref.Username)
	assert.Equal(t, "email", pref.NotificationType)
	assert.False(t, pref.Enabled)
}

func TestLatestEndpoint(t *testing.T) {
	router := notificationTestRouter(&stubNotificationService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/me/notifications?page=2&page_size=10", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool                   `json:"success"`
		Data    common.PaginatedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, 2, envelope.Data.Pagination.Page)
	assert.Equal(t, 10, envelope.Data.Pagination.PageSize)
}
