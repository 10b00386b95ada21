package di

import (
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/events/bus"
	"github.com/hoyacom/apiman/application/ports"
	"github.com/hoyacom/apiman/application/services"
	"github.com/hoyacom/apiman/infrastructure/config"
	"github.com/hoyacom/apiman/interfaces/http/rest"
	"github.com/hoyacom/apiman/notifications"
	"github.com/hoyacom/apiman/pkg/auth"
	"github.com/hoyacom/apiman/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config              *config.Config
	Logger              *zap.Logger
	NotificationRepo    ports.NotificationRepository
	UserRepo            ports.UserRepository
	ApiRepo             ports.ApiRepository
	OrganizationRepo    ports.OrganizationRepository
	ConnectionStore     ports.ConnectionStore
	EventBus            *bus.EventBus
	Dispatcher          *notifications.Dispatcher
	NotificationService *services.NotificationService
	PortalService       *services.PortalService
	OrganizationService *services.OrganizationService
	UserService         *services.UserService
	SsoEventService     *services.SsoEventService
	Router              *rest.Router
	JWTValidator        *auth.JWTValidator
	Metrics             *observability.Metrics
	Tracer              *observability.Tracer
}
