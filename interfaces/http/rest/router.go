package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/domain/users"
	"github.com/hoyacom/apiman/infrastructure/config"
	"github.com/hoyacom/apiman/interfaces/http/rest/handlers"
	"github.com/hoyacom/apiman/interfaces/http/rest/middleware"
	"github.com/hoyacom/apiman/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	portal        *handlers.PortalHandler
	organizations *handlers.OrganizationHandler
	notifications *handlers.NotificationHandler
	users         *handlers.UserHandler
	sso           *handlers.SsoHandler
	validator     *auth.JWTValidator
	cfg           *config.Config
	logger        *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	portal *handlers.PortalHandler,
	organizations *handlers.OrganizationHandler,
	notifications *handlers.NotificationHandler,
	userHandler *handlers.UserHandler,
	sso *handlers.SsoHandler,
	validator *auth.JWTValidator,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		portal:        portal,
		organizations: organizations,
		notifications: notifications,
		users:         userHandler,
		sso:           sso,
		validator:     validator,
		cfg:           cfg,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.apiman.io"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)

	router.Route("/api/v1", func(r chi.Router) {
		// Public portal reads: no authentication.
		r.Route("/devportal", func(r chi.Router) {
			r.Post("/apis/search", rt.portal.SearchApis)
			r.Get("/apis/featured", rt.portal.FeaturedApis)

			r.Route("/organizations/{orgID}/apis/{apiID}/versions", func(r chi.Router) {
				r.Get("/", rt.portal.ApiVersions)
				r.Get("/{version}", rt.portal.ApiVersion)
				r.Get("/{version}/plans", rt.portal.ApiVersionPlans)
				r.Get("/{version}/policies", rt.portal.ApiVersionPolicies)
				r.Get("/{version}/definition", rt.portal.ApiVersionDefinition)

				// Signups need a logged-in developer.
				r.Group(func(r chi.Router) {
					r.Use(middleware.Authenticate(rt.validator, rt.logger))
					r.Post("/{version}/signup", rt.portal.SignUp)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(rt.validator, rt.logger))
				r.Post("/organizations", rt.organizations.CreateHomeOrg)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.validator, rt.logger))

			r.Route("/me/notifications", func(r chi.Router) {
				r.Get("/", rt.notifications.Latest)
				r.Get("/unread-count", rt.notifications.UnreadCount)
				r.Put("/", rt.notifications.MarkRead)
				r.Get("/preferences/{type}", rt.notifications.GetPreference)
				r.Put("/preferences/{type}", rt.notifications.SetPreference)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(users.RoleApprover))
				r.Get("/{username}", rt.users.GetUser)
				r.Put("/{username}/approve", rt.users.ApproveAccount)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.validator, rt.logger))
			r.Post("/sso/new-account", rt.sso.NewAccount)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
