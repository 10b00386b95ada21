package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awssesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/events/bus"
	"github.com/hoyacom/apiman/application/ports"
	"github.com/hoyacom/apiman/application/services"
	"github.com/hoyacom/apiman/domain/events"
	notifdomain "github.com/hoyacom/apiman/domain/notifications"
	"github.com/hoyacom/apiman/infrastructure/config"
	sesemail "github.com/hoyacom/apiman/infrastructure/email"
	"github.com/hoyacom/apiman/infrastructure/messaging/eventbridge"
	"github.com/hoyacom/apiman/infrastructure/messaging/websocket"
	"github.com/hoyacom/apiman/infrastructure/persistence/dynamodb"
	"github.com/hoyacom/apiman/interfaces/http/rest"
	"github.com/hoyacom/apiman/interfaces/http/rest/handlers"
	"github.com/hoyacom/apiman/notifications"
	"github.com/hoyacom/apiman/notifications/email"
	"github.com/hoyacom/apiman/notifications/producers"
	"github.com/hoyacom/apiman/pkg/auth"
	"github.com/hoyacom/apiman/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideSESClient creates an SES client
func ProvideSESClient(awsCfg aws.Config) *awssesv2.Client {
	return awssesv2.NewFromConfig(awsCfg)
}

// ProvideMetrics creates a metrics instance. Without the metrics flag the
// CloudWatch client stays nil and every recording is a no-op.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("Apiman/%s", cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates a tracer, or nil when tracing is disabled.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("apiman")
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideNotificationRepository creates a notification repository
func ProvideNotificationRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.NotificationRepository {
	return dynamodb.NewNotificationRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideUserRepository creates a user repository
func ProvideUserRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.UserRepository {
	return dynamodb.NewUserRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideApiRepository creates an API catalogue repository
func ProvideApiRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ApiRepository {
	return dynamodb.NewApiRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideOrganizationRepository creates an organization repository
func ProvideOrganizationRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.OrganizationRepository {
	return dynamodb.NewOrganizationRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideConnectionStore creates a websocket connection store
func ProvideConnectionStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ConnectionStore {
	return dynamodb.NewConnectionStore(client, cfg.ConnectionsTable, cfg.IndexName, logger)
}

// ProvideEmailSender creates the SES-backed email sender
func ProvideEmailSender(client *awssesv2.Client, cfg *config.Config, logger *zap.Logger) ports.EmailSender {
	return sesemail.NewSESSender(client, cfg.EmailFromAddress, logger)
}

// ProvideExternalPublisher creates the EventBridge publisher
func ProvideExternalPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) *eventbridge.Publisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// repoPreferences adapts the notification repository to the email handler's
// preference lookup, defaulting a missing preference to enabled.
type repoPreferences struct {
	repo ports.NotificationRepository
}

func (r repoPreferences) GetPreference(ctx context.Context, username, notificationType string) (notifdomain.Preference, error) {
	pref, err := r.repo.GetPreference(ctx, username, notificationType)
	if err != nil {
		return notifdomain.Preference{}, err
	}
	if pref == nil {
		return notifdomain.Preference{
			Username:         username,
			NotificationType: notificationType,
			Enabled:          true,
		}, nil
	}
	return *pref, nil
}

// ProvideDispatcher creates the notification dispatcher with every delivery
// handler registered: email always, websocket push only when an endpoint is
// configured.
func ProvideDispatcher(
	awsCfg aws.Config,
	cfg *config.Config,
	notificationRepo ports.NotificationRepository,
	emailSender ports.EmailSender,
	connections ports.ConnectionStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *notifications.Dispatcher {
	dispatcher := notifications.NewDispatcher(logger)

	emailHandler := email.NewHandler(emailSender, repoPreferences{repo: notificationRepo}, metrics, logger)
	dispatcher.Register(emailHandler)

	if cfg.WebSocketEndpoint != "" {
		mgmtClient := websocket.NewManagementClient(awsCfg, cfg.WebSocketEndpoint)
		dispatcher.Register(websocket.NewPusher(mgmtClient, connections, logger))
	}

	return dispatcher
}

// ProvideNotificationService creates the notification service
func ProvideNotificationService(
	notificationRepo ports.NotificationRepository,
	userRepo ports.UserRepository,
	dispatcher *notifications.Dispatcher,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	cfg *config.Config,
	logger *zap.Logger,
) *services.NotificationService {
	return services.NewNotificationService(
		notificationRepo,
		userRepo,
		dispatcher,
		metrics,
		tracer,
		logger,
		cfg.NotificationsEnabled,
	)
}

// ProvideEventBus creates the in-process event bus with all subscribers
// attached: the notification producers and the EventBridge relay.
func ProvideEventBus(
	notificationService *services.NotificationService,
	externalPublisher *eventbridge.Publisher,
	logger *zap.Logger,
) *bus.EventBus {
	eventBus := bus.NewEventBus(logger)

	producers.Subscribe(eventBus, notificationService, logger)

	relay := eventbridge.NewRelay(externalPublisher)
	eventBus.Subscribe(events.AccountSignupEvent{}, relay)
	eventBus.Subscribe(events.AccountApprovalGrantedEvent{}, relay)
	eventBus.Subscribe(events.ApiSignupEvent{}, relay)

	return eventBus
}

// ProvidePortalService creates the portal service
func ProvidePortalService(apiRepo ports.ApiRepository, eventBus *bus.EventBus, logger *zap.Logger) *services.PortalService {
	return services.NewPortalService(apiRepo, eventBus, logger)
}

// ProvideOrganizationService creates the organization service
func ProvideOrganizationService(orgRepo ports.OrganizationRepository, logger *zap.Logger) *services.OrganizationService {
	return services.NewOrganizationService(orgRepo, logger)
}

// ProvideUserService creates the user service
func ProvideUserService(userRepo ports.UserRepository, eventBus *bus.EventBus, logger *zap.Logger) *services.UserService {
	return services.NewUserService(userRepo, eventBus, logger)
}

// ProvideSsoEventService creates the SSO event service
func ProvideSsoEventService(userRepo ports.UserRepository, eventBus *bus.EventBus, logger *zap.Logger) *services.SsoEventService {
	return services.NewSsoEventService(userRepo, eventBus, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	portalService *services.PortalService,
	organizationService *services.OrganizationService,
	notificationService *services.NotificationService,
	userService *services.UserService,
	ssoEventService *services.SsoEventService,
	validator *auth.JWTValidator,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(
		handlers.NewPortalHandler(portalService, logger),
		handlers.NewOrganizationHandler(organizationService, logger),
		handlers.NewNotificationHandler(notificationService, logger),
		handlers.NewUserHandler(userService, logger),
		handlers.NewSsoHandler(ssoEventService, logger),
		validator,
		cfg,
		logger,
	)
}
