package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/app"
	iauth "github.com/pawwalk/pawwalk/internal/auth"
	"github.com/pawwalk/pawwalk/internal/handlers"
	"github.com/pawwalk/pawwalk/internal/middleware"
	"github.com/pawwalk/pawwalk/internal/monitoring"
	"github.com/pawwalk/pawwalk/internal/services"
)

const (
	defaultRateLimitRequests = 300
	defaultRateLimitWindow   = time.Minute
)

// Dependencies is everything the router needs to serve the API.
type Dependencies struct {
	DB       *gorm.DB
	Config   *app.Config
	Resolver *iauth.Resolver
	Services *services.Registry

	// HealthChecks are probed by /health in addition to the database.
	HealthChecks []monitoring.Check
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle must be provided")
	}
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Resolver == nil {
		return nil, errors.New("identity resolver must be provided")
	}
	if deps.Services == nil {
		return nil, errors.New("service registry must be provided")
	}
	cfg, svc := deps.Config, deps.Services

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(rateLimitSettings(cfg.Server.RateLimit)))

	registerHealthRoutes(r, cfg, deps.DB, deps.HealthChecks)
	registerMetricsRoutes(r, cfg)

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(deps.Resolver, svc.Users, cfg.Auth.AutoProvision))

	registerUserRoutes(api, handlers.NewUserHandler(svc.Users))
	registerPetRoutes(api,
		handlers.NewPetHandler(svc.Pets),
		handlers.NewPetShareHandler(svc.Shares),
		handlers.NewWalkPlanHandler(svc.WalkPlans),
	)

	advisories := handlers.NewAdvisoryHandler(svc.HealthAdvisor, svc.WeatherAdvice, svc.WalkAdvisor)
	registerWalkRoutes(api, handlers.NewWalkHandler(svc.Walks), handlers.NewPhotoHandler(svc.Photos), advisories)
	registerRecordRoutes(api, handlers.NewRecordHandler(svc.Walks, svc.Photos))
	registerNotificationRoutes(api, handlers.NewNotificationHandler(svc.Notifications), advisories)

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func rateLimitSettings(cfg app.RateLimitConfig) (int, time.Duration) {
	requests, window := cfg.Requests, cfg.Window
	if requests <= 0 {
		requests = defaultRateLimitRequests
	}
	if window <= 0 {
		window = defaultRateLimitWindow
	}
	return requests, window
}
