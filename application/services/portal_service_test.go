package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/events/bus"
	"github.com/hoyacom/apiman/domain/apis"
	"github.com/hoyacom/apiman/domain/events"
	apperrors "github.com/hoyacom/apiman/pkg/errors"
)

func newTestPortalService(apiRepo *fakeApiRepo) (*PortalService, *[]events.DomainEvent) {
	logger := zap.NewNop()
	eventBus := bus.NewEventBus(logger)

	var published []events.DomainEvent
	eventBus.Subscribe(events.ApiSignupEvent{}, bus.EventHandlerFunc(func(ctx context.Context, event events.DomainEvent) error {
		published = append(published, event)
		return nil
	}))

	return NewPortalService(apiRepo, eventBus, logger), &published
}

func TestApiVersionsFiltersUnexposed(t *testing.T) {
	apiRepo := &fakeApiRepo{
		versions: []apis.ApiVersionSummary{
			{ApiID: "petstore", Version: "1.0", ExposeInPortal: true},
			{ApiID: "petstore", Version: "2.0-internal", ExposeInPortal: false},
		},
	}
	svc, _ := newTestPortalService(apiRepo)

	versions, err := svc.ApiVersions(context.Background(), "acme", "petstore")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "1.0", versions[0].Version)
}

func TestApiVersionNotFound(t *testing.T) {
	t.Run("missing version", func(t *testing.T) {
		svc, _ := newTestPortalService(&fakeApiRepo{})
		_, err := svc.ApiVersion(context.Background(), "acme", "petstore", "1.0")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unexposed version behaves as missing", func(t *testing.T) {
		svc, _ := newTestPortalService(&fakeApiRepo{
			version: &apis.ApiVersion{ApiID: "petstore", Version: "1.0", ExposeInPortal: false},
		})
		_, err := svc.ApiVersion(context.Background(), "acme", "petstore", "1.0")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestApiVersionPlansRequireExposure(t *testing.T) {
	apiRepo := &fakeApiRepo{
		version: &apis.ApiVersion{ApiID: "petstore", Version: "1.0", ExposeInPortal: false},
		plans:   []apis.PlanSummary{{PlanID: "gold", Version: "1.0"}},
	}
	svc, _ := newTestPortalService(apiRepo)

	_, err := svc.ApiVersionPlans(context.Background(), "acme", "petstore", "1.0")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestApiVersionDefinition(t *testing.T) {
	t.Run("returns stored definition", func(t *testing.T) {
		apiRepo := &fakeApiRepo{
			version:    &apis.ApiVersion{ApiID: "petstore", Version: "1.0", ExposeInPortal: true},
			definition: &apis.Definition{Data: []byte(`{"openapi":"3.0.0"}`), Type: apis.DefinitionJSON},
		}
		svc, _ := newTestPortalService(apiRepo)

		def, err := svc.ApiVersionDefinition(context.Background(), "acme", "petstore", "1.0")
		require.NoError(t, err)
		assert.Equal(t, apis.DefinitionJSON, def.Type)
		assert.Equal(t, "application/json", def.Type.MediaType())
	})

	t.Run("missing definition is not found", func(t *testing.T) {
		apiRepo := &fakeApiRepo{
			version: &apis.ApiVersion{ApiID: "petstore", Version: "1.0", ExposeInPortal: true},
		}
		svc, _ := newTestPortalService(apiRepo)

		_, err := svc.ApiVersionDefinition(context.Background(), "acme", "petstore", "1.0")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestSignUp(t *testing.T) {
	apiRepo := &fakeApiRepo{
		version: &apis.ApiVersion{ApiID: "petstore", Version: "1.0", ExposeInPortal: true},
		plans: []apis.PlanSummary{
			{PlanID: "gold", Version: "1.0", RequiresApproval: true},
			{PlanID: "silver", Version: "1.0", RequiresApproval: false},
		},
	}

	t.Run("publishes a signup event with the plan's approval flag", func(t *testing.T) {
		svc, published := newTestPortalService(apiRepo)

		err := svc.SignUp(context.Background(), "dev1", "acme", "petstore", "1.0", ApiSignupRequest{
			PlanID:      "gold",
			PlanVersion: "1.0",
		})
		require.NoError(t, err)

		require.Len(t, *published, 1)
		event, ok := (*published)[0].(events.ApiSignupEvent)
		require.True(t, ok)
		assert.Equal(t, "dev1", event.Username)
		assert.Equal(t, "gold", event.PlanID)
		assert.True(t, event.ApprovalRequired)
		assert.Equal(t, EventSourcePortal, event.Headers().Source)
	})

	t.Run("unknown plan is not found", func(t *testing.T) {
		svc, published := newTestPortalService(apiRepo)

		err := svc.SignUp(context.Background(), "dev1", "acme", "petstore", "1.0", ApiSignupRequest{
			PlanID:      "platinum",
			PlanVersion: "1.0",
		})
		assert.True(t, apperrors.IsNotFound(err))
		assert.Empty(t, *published)
	})

	t.Run("anonymous callers are rejected", func(t *testing.T) {
		svc, _ := newTestPortalService(apiRepo)

		err := svc.SignUp(context.Background(), "", "acme", "petstore", "1.0", ApiSignupRequest{
			PlanID:      "gold",
			PlanVersion: "1.0",
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})
}

func TestSearchApisDefaultsPaging(t *testing.T) {
	apiRepo := &fakeApiRepo{summaries: []apis.ApiSummary{{ID: "petstore", Name: "Petstore"}}}
	svc, _ := newTestPortalService(apiRepo)

	results, total, err := svc.SearchApis(context.Background(), apis.SearchCriteria{Query: "pet"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, results, 1)
}
