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

	"github.com/hoyacom/apiman/application/services"
	"github.com/hoyacom/apiman/domain/apis"
	"github.com/hoyacom/apiman/pkg/auth"
	"github.com/hoyacom/apiman/pkg/common"
	apperrors "github.com/hoyacom/apiman/pkg/errors"
)

type stubPortalService struct {
	version     *apis.ApiVersion
	definition  *apis.Definition
	signupCalls []services.ApiSignupRequest
	signupUser  string
}

func (s *stubPortalService) SearchApis(ctx context.Context, criteria apis.SearchCriteria) ([]apis.ApiSummary, int, error) {
	return []apis.ApiSummary{{ID: "petstore", Name: "Petstore"}}, 1, nil
}

func (s *stubPortalService) FeaturedApis(ctx context.Context) ([]apis.ApiSummary, error) {
	return []apis.ApiSummary{}, nil
}

func (s *stubPortalService) ApiVersions(ctx context.Context, orgID, apiID string) ([]apis.ApiVersionSummary, error) {
	return []apis.ApiVersionSummary{}, nil
}

func (s *stubPortalService) ApiVersion(ctx context.Context, orgID, apiID, version string) (*apis.ApiVersion, error) {
	if s.version == nil {
		return nil, apperrors.NewNotFoundError("api version")
	}
	return s.version, nil
}

func (s *stubPortalService) ApiVersionPlans(ctx context.Context, orgID, apiID, version string) ([]apis.PlanSummary, error) {
	return []apis.PlanSummary{}, nil
}

func (s *stubPortalService) ApiVersionPolicies(ctx context.Context, orgID, apiID, version string) ([]apis.PolicySummary, error) {
	return []apis.PolicySummary{}, nil
}

func (s *stubPortalService) ApiVersionDefinition(ctx context.Context, orgID, apiID, version string) (*apis.Definition, error) {
	if s.definition == nil {
		return nil, apperrors.NewNotFoundError("api definition")
	}
	return s.definition, nil
}

func (s *stubPortalService) SignUp(ctx context.Context, username, orgID, apiID, version string, req services.ApiSignupRequest) error {
	s.signupUser = username
	s.signupCalls = append(s.signupCalls, req)
	return nil
}

func portalTestRouter(svc *stubPortalService) http.Handler {
	h := NewPortalHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/devportal/apis/search", h.SearchApis)
	r.Route("/devportal/organizations/{orgID}/apis/{apiID}/versions", func(r chi.Router) {
		r.Get("/{version}", h.ApiVersion)
		r.Get("/{version}/definition", h.ApiVersionDefinition)
		r.Post("/{version}/signup", h.SignUp)
	})
	return r
}

func TestSearchApisEndpoint(t *testing.T) {
	router := portalTestRouter(&stubPortalService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/devportal/apis/search", strings.NewReader(`{"query":"pet"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool                   `json:"success"`
		Data    common.PaginatedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, 1, envelope.Data.Pagination.Total)
	assert.Equal(t, 1, envelope.Data.Pagination.Page)
	assert.Equal(t, 20, envelope.Data.Pagination.PageSize)
}

func TestApiVersionEndpointNotFound(t *testing.T) {
	router := portalTestRouter(&stubPortalService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/devportal/organizations/acme/apis/petstore/versions/1.0", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var envelope common.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestApiVersionDefinitionServedRaw(t *testing.T) {
	svc := &stubPortalService{
		definition: &apis.Definition{
			Data: []byte(`{"openapi":"3.0.0"}`),
			Type: apis.DefinitionJSON,
		},
	}
	router := portalTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/devportal/organizations/acme/apis/petstore/versions/1.0/definition", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	// Raw document, no envelope.
	assert.Equal(t, `{"openapi":"3.0.0"}`, rec.Body.String())
}

func TestSignUpEndpoint(t *testing.T) {
	t.Run("accepted for an authenticated developer", func(t *testing.T) {
		svc := &stubPortalService{}
		router := portalTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost,
			"/devportal/organizations/acme/apis/petstore/versions/1.0/signup",
			strings.NewReader(`{"plan_id":"gold","plan_version":"1.0"}`))
		req = req.WithContext(auth.SetUserInContext(req.Context(), &auth.UserContext{Username: "dev1"}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "dev1", svc.signupUser)
		require.Len(t, svc.signupCalls, 1)
		assert.Equal(t, "gold", svc.signupCalls[0].PlanID)
	})

	t.Run("unauthorized without a user", func(t *testing.T) {
		svc := &stubPortalService{}
		router := portalTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost,
			"/devportal/organizations/acme/apis/petstore/versions/1.0/signup",
			strings.NewReader(`{"plan_id":"gold","plan_version":"1.0"}`))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, svc.signupCalls)
	})
}
