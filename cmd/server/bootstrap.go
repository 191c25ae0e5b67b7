package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/api"
	"github.com/pawwalk/pawwalk/internal/app"
	"github.com/pawwalk/pawwalk/internal/app/scheduler"
	iauth "github.com/pawwalk/pawwalk/internal/auth"
	"github.com/pawwalk/pawwalk/internal/cache"
	"github.com/pawwalk/pawwalk/internal/database"
	"github.com/pawwalk/pawwalk/internal/integrations/advice"
	"github.com/pawwalk/pawwalk/internal/integrations/storage"
	"github.com/pawwalk/pawwalk/internal/integrations/weather"
	"github.com/pawwalk/pawwalk/internal/monitoring"
	"github.com/pawwalk/pawwalk/internal/monitoring/checks"
	"github.com/pawwalk/pawwalk/internal/services"
	"github.com/pawwalk/pawwalk/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Services  *services.Registry
	Scheduler *scheduler.Scheduler
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, integrations, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	resolver, err := buildResolver(ctx, cfg.Auth, log)
	if err != nil {
		return nil, err
	}

	collab, err := buildCollaborators(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	stack.Services, err = services.NewRegistry(stack.DB, collab)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	if cfg.Scheduler.Enabled {
		stack.Scheduler = buildScheduler(cfg, stack.Services)
		if err := stack.Scheduler.Start(); err != nil {
			return nil, fmt.Errorf("start scheduler: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:       stack.DB,
		Config:   cfg,
		Resolver: resolver,
		Services: stack.Services,
		HealthChecks: []monitoring.Check{
			checks.Integration("weather", cfg.Weather.Enabled()),
			checks.Integration("advice", cfg.Advice.Enabled()),
			checks.Integration("storage", collab.Storage != nil),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		stopCtx := s.Scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			log.Warn("scheduler jobs still running at shutdown")
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func buildResolver(ctx context.Context, cfg app.AuthConfig, log *zap.Logger) (*iauth.Resolver, error) {
	var verifier iauth.Verifier
	switch provider := cfg.ProviderName(); provider {
	case app.AuthProviderFirebase:
		fv, err := iauth.NewFirebaseVerifier(ctx, cfg.FirebaseVerifierConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise firebase verifier: %w", err)
		}
		verifier = fv
	case app.AuthProviderJWT:
		jv, err := iauth.NewJWTVerifier(cfg.JWTVerifierConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise jwt verifier: %w", err)
		}
		verifier = jv
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", provider)
	}
	log.Info("identity verifier ready", zap.String("provider", cfg.ProviderName()))

	return iauth.NewResolver(verifier)
}

// buildCollaborators constructs the outbound integrations. Optional ones are
// only assigned when configured so the service interfaces stay nil.
func buildCollaborators(ctx context.Context, cfg *app.Config, log *zap.Logger) (services.Collaborators, error) {
	collab := services.Collaborators{
		WeatherCache: cache.NewWeatherCache(cfg.Weather.CacheOptions()...),
		Generator:    advice.Disabled{},
	}

	if cfg.Weather.Enabled() {
		client, err := weather.NewClient(cfg.Weather.ClientConfig())
		if err != nil {
			return collab, fmt.Errorf("initialise weather client: %w", err)
		}
		collab.Fetcher = client
	} else {
		log.Warn("weather api key not configured; weather lookups served from cache only")
	}

	if cfg.Advice.Enabled() {
		client, err := advice.NewClient(cfg.Advice.ClientConfig())
		if err != nil {
			return collab, fmt.Errorf("initialise advice client: %w", err)
		}
		collab.Generator = client
	} else {
		log.Warn("advice api key not configured; advisories are disabled")
	}

	switch driver := cfg.Storage.DriverName(); driver {
	case app.StorageDriverS3:
		store, err := storage.NewS3Storage(ctx, cfg.Storage.S3StorageConfig())
		if err != nil {
			return collab, fmt.Errorf("initialise s3 storage: %w", err)
		}
		collab.Storage = store
	case app.StorageDriverNone:
		log.Warn("photo storage not configured; uploads are disabled")
	default:
		return collab, fmt.Errorf("unsupported storage driver %q", driver)
	}

	return collab, nil
}

func buildScheduler(cfg *app.Config, reg *services.Registry) *scheduler.Scheduler {
	var opts []scheduler.Option
	if spec := strings.TrimSpace(cfg.Scheduler.HealthSpec); spec != "" {
		opts = append(opts, scheduler.WithHealthSchedule(spec))
	}
	if spec := strings.TrimSpace(cfg.Scheduler.WeatherSpec); spec != "" {
		opts = append(opts, scheduler.WithWeatherSchedule(spec))
	}

	weatherAdvisor := reg.WeatherAdvice
	if !cfg.Weather.Enabled() {
		weatherAdvisor = nil
	}
	return scheduler.New(reg.Pets, reg.Walks, reg.HealthAdvisor, weatherAdvisor, opts...)
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),

		Options:            cfg.Database.Options,
		MaxOpenConns:       cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:       cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.Pool.ConnMaxLifetime,
		LogQueries:         cfg.Database.LogQueries,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
