package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/api"
	"github.com/ud28188-create/codonyx.org/internal/app"
	"github.com/ud28188-create/codonyx.org/internal/app/maintenance"
	iauth "github.com/ud28188-create/codonyx.org/internal/auth"
	"github.com/ud28188-create/codonyx.org/internal/auth/mfa"
	"github.com/ud28188-create/codonyx.org/internal/auth/providers"
	"github.com/ud28188-create/codonyx.org/internal/cache"
	"github.com/ud28188-create/codonyx.org/internal/database"
	"github.com/ud28188-create/codonyx.org/internal/monitoring"
	"github.com/ud28188-create/codonyx.org/internal/realtime"
	"github.com/ud28188-create/codonyx.org/internal/storage"
	"github.com/ud28188-create/codonyx.org/pkg/logger"
	"github.com/ud28188-create/codonyx.org/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Hub      *realtime.Hub
	Services *api.Services
	Cleaner  *maintenance.Cleaner
	Router   *gin.Engine
}

// runtimeConfig is the loaded configuration plus the secrets generated for this process.
type runtimeConfig struct {
	Config    *app.Config
	Generated map[string]bool
	Log       *zap.Logger
}

// loadRuntimeConfig reads configuration, fills generated secrets and installs the logger.
func loadRuntimeConfig(path string) (*runtimeConfig, error) {
	cfg, err := loadApplicationConfig(path)
	if err != nil {
		return nil, err
	}

	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return nil, err
	}

	if err := app.ConfigureLogging(cfg.Server); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Info("generated runtime secret", zap.String("key", key))
	}
	return &runtimeConfig{Config: cfg, Generated: generated, Log: log}, nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	if strings.TrimSpace(path) == "" {
		return app.LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return app.LoadConfig(path)
	case err == nil:
		return app.LoadConfig(filepath.Dir(path))
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	default:
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

// bootstrapRuntime initialises the database, cache, services and HTTP router.
func bootstrapRuntime(ctx context.Context, rc *runtimeConfig) (*runtimeStack, error) {
	cfg, log := rc.Config, rc.Log
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			if shutdownErr := stack.Shutdown(context.Background()); shutdownErr != nil {
				log.Warn("partial bootstrap cleanup", zap.Error(shutdownErr))
			}
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var store cache.Store
	dbStore := cache.NewDatabaseStore(stack.DB)
	store = dbStore
	if cfg.Cache.Redis.Enabled {
		client, redisErr := cache.NewRedisClient(ctx, cfg.Cache.RedisClientConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database cache", zap.Error(redisErr))
		} else {
			stack.Redis = client
			store = cache.NewRedisStore(client)
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	mailer, err := mail.New(ctx, cfg.Email.MailSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}

	var (
		files    storage.Store
		localDir *storage.LocalStore
	)
	if cfg.Storage.UsesS3() {
		if files, err = storage.NewS3Store(ctx, cfg.Storage.S3Settings()); err != nil {
			return nil, fmt.Errorf("initialise s3 storage: %w", err)
		}
	} else {
		if localDir, err = storage.NewLocalStore(cfg.Storage.Path, cfg.Storage.PublicURL); err != nil {
			return nil, fmt.Errorf("initialise local storage: %w", err)
		}
		files = localDir
	}

	stack.Hub = realtime.NewHub(realtime.WithAllowedOrigins(cfg.Server.CORSOrigins...))

	stack.Services, err = api.NewServices(stack.DB, cfg, stack.Hub, files, mailer)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionSvc, err := iauth.NewSessionService(stack.DB, jwtSvc, cfg.Auth.SessionServiceConfig(iauth.NewSessionCache(store)))
	if err != nil {
		return nil, fmt.Errorf("initialise session service: %w", err)
	}

	local, err := providers.NewLocalProvider(stack.DB, cfg.Auth.LocalProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise local provider: %w", err)
	}

	totp, err := initialiseTOTP(ctx, stack.DB, rc)
	if err != nil {
		return nil, err
	}

	jobs := maintenance.Jobs{
		Sessions: sessionSvc,
		Invites:  stack.Services.Invites,
		Audit:    stack.Services.Audit,
		Cache:    dbStore,
	}
	stack.Cleaner = maintenance.NewCleaner(jobs,
		maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		maintenance.WithSessionSchedule(cfg.Maintenance.SessionCleanup),
		maintenance.WithInviteSchedule(cfg.Maintenance.InviteSweep),
		maintenance.WithAuditSchedule(cfg.Maintenance.AuditRetention),
		maintenance.WithCacheSchedule(cfg.Maintenance.CacheCleanup),
	)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	health := monitoring.NewHealthManager(0,
		monitoring.Database(stack.DB),
		monitoring.Realtime(stack.Hub),
	)
	if cfg.Cache.Redis.Enabled {
		var ping monitoring.PingFunc
		if stack.Redis != nil {
			client := stack.Redis
			ping = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		} else {
			ping = func(context.Context) error { return errors.New("redis unavailable at startup") }
		}
		health.Register(monitoring.Redis(ping))
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:       stack.DB,
		Config:   cfg,
		JWT:      jwtSvc,
		Sessions: sessionSvc,
		Local:    local,
		TOTP:     totp,
		Hub:      stack.Hub,
		Cache:    store,
		Files:    localDir,
		Services: stack.Services,
		Health:   health,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// initialiseTOTP resolves the persisted MFA key so secrets enrolled earlier stay readable.
// A key generated for this process only applies when none has been stored yet.
func initialiseTOTP(ctx context.Context, db *gorm.DB, rc *runtimeConfig) (*mfa.TOTPService, error) {
	cfg := rc.Config
	configured := cfg.Auth.MFA.EncryptionKey
	if rc.Generated["auth.mfa.encryption_key"] {
		configured = ""
	}
	raw, err := database.ResolveMFAKey(ctx, db, configured, cfg.Auth.MFA.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("resolve mfa key: %w", err)
	}
	key, err := app.DecodeAESKey(raw)
	if err != nil {
		return nil, fmt.Errorf("decode mfa key: %w", err)
	}
	totp, err := mfa.NewTOTPService(db, key, mfa.WithIssuer(cfg.Auth.MFA.Issuer))
	if err != nil {
		return nil, fmt.Errorf("initialise totp service: %w", err)
	}
	return totp, nil
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs error
	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
		if _, err := s.Cleaner.RunOnce(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("maintenance: %w", err))
		}
	}
	if s.Hub != nil {
		s.Hub.Close()
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errs
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseSettings()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))
	return db, nil
}
