package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/app"
	iauth "github.com/ud28188-create/codonyx.org/internal/auth"
	"github.com/ud28188-create/codonyx.org/internal/auth/mfa"
	"github.com/ud28188-create/codonyx.org/internal/auth/providers"
	"github.com/ud28188-create/codonyx.org/internal/cache"
	"github.com/ud28188-create/codonyx.org/internal/handlers"
	"github.com/ud28188-create/codonyx.org/internal/middleware"
	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/monitoring"
	"github.com/ud28188-create/codonyx.org/internal/realtime"
	"github.com/ud28188-create/codonyx.org/internal/storage"
)

// Dependencies are the constructed collaborators the router mounts handlers on.
type Dependencies struct {
	DB       *gorm.DB
	Config   *app.Config
	JWT      *iauth.JWTService
	Sessions *iauth.SessionService
	Local    *providers.LocalProvider
	TOTP     *mfa.TOTPService
	Hub      *realtime.Hub
	Cache    cache.Store
	Files    *storage.LocalStore
	Services *Services
	Health   *monitoring.HealthManager
}

func (d Dependencies) validate() error {
	switch {
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.JWT == nil:
		return fmt.Errorf("jwt service must be provided")
	case d.Sessions == nil:
		return fmt.Errorf("session service must be provided")
	case d.Local == nil:
		return fmt.Errorf("local auth provider must be provided")
	case d.Services == nil:
		return fmt.Errorf("services must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config
	svc := deps.Services

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins...))
	if deps.Cache != nil && cfg.Server.RateLimit.Requests > 0 {
		window := cfg.Server.RateLimit.Window
		if window <= 0 {
			window = time.Minute
		}
		r.Use(middleware.RateLimit(deps.Cache, cfg.Server.RateLimit.Requests, window))
	}

	registerHealthRoutes(r, healthManager(deps), cfg)
	registerSetupRoutes(r, handlers.NewSetupHandler(svc.Setup))
	registerFileRoutes(r, deps.Files)

	maxUpload := cfg.Server.MaxUploadBytes
	authHandler := handlers.NewAuthHandler(deps.Local, deps.Sessions, deps.TOTP, svc.Audit)
	inviteHandler := handlers.NewInviteHandler(svc.Invites)

	// Public routes
	public := r.Group("/api")
	registerPublicAuthRoutes(public, authHandler)
	public.GET("/invites/validate", inviteHandler.Validate)
	public.POST("/register", handlers.NewRegistrationHandler(svc.Registrations, maxUpload).Register)

	// Authenticated routes. Session resolves the viewer once per request.
	session := middleware.Session(svc.Users)
	api := r.Group("/api", middleware.Auth(deps.JWT), session)
	registerAuthRoutes(api, authHandler)
	registerNotificationRoutes(api, handlers.NewNotificationHandler(svc.Notifications))

	profileHandler := handlers.NewProfileHandler(svc.Profiles, maxUpload)
	api.GET("/profile", profileHandler.Me)

	// Member surfaces require an approved profile (admins pass).
	members := api.Group("", middleware.RequireApproved())
	registerProfileRoutes(members, profileHandler, handlers.NewPublicationHandler(svc.Publications, svc.Profiles, maxUpload))
	registerDirectoryRoutes(members, handlers.NewDirectoryHandler(svc.Directory))
	registerConnectionRoutes(members, handlers.NewConnectionHandler(svc.Connections))

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	registerAdminRoutes(admin,
		handlers.NewAdminHandler(svc.Approvals, svc.Profiles, svc.Audit),
		inviteHandler,
		handlers.NewRoleHandler(svc.Roles),
	)

	// WebSocket clients cannot set headers, so the token may travel in the query string.
	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub, realtimeStreams()...)
	r.GET("/ws", middleware.QueryAuth(deps.JWT), session, realtimeHandler.Stream)

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

// healthManager returns deps.Health, or database and realtime probes when none was supplied.
func healthManager(deps Dependencies) *monitoring.HealthManager {
	if deps.Health != nil {
		return deps.Health
	}
	manager := monitoring.NewHealthManager(0, monitoring.Database(deps.DB))
	if deps.Hub != nil {
		manager.Register(monitoring.Realtime(deps.Hub))
	}
	return manager
}

func realtimeStreams() []string {
	return []string{realtime.StreamNotifications}
}

func registerFileRoutes(r *gin.Engine, files *storage.LocalStore) {
	if files == nil {
		return
	}
	r.Static("/files", files.Root())
}

func metricsPath(cfg *app.Config) string {
	path := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if path == "" {
		return "/metrics"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
