//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/hoyacom/apiman/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideSESClient,
	ProvideMetrics,
	ProvideTracer,
	ProvideJWTValidator,
	ProvideNotificationRepository,
	ProvideUserRepository,
	ProvideApiRepository,
	ProvideOrganizationRepository,
	ProvideConnectionStore,
	ProvideEmailSender,
	ProvideExternalPublisher,
	ProvideDispatcher,
	ProvideNotificationService,
	ProvideEventBus,
	ProvidePortalService,
	ProvideOrganizationService,
	ProvideUserService,
	ProvideSsoEventService,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
